package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"birdcam-pipeline/domain/clip"
	"birdcam-pipeline/infrastructure/ffmpeg"

	"github.com/spf13/cobra"
)

var (
	annotateSourcePath string
	annotateOutputPath string
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Burn date and timecode into a recording",
	Long: `Writes a copy of the recording with the date, a running wall-clock
timecode and the configured caption overlaid. The recording's filename stem
supplies the date and start time.

Example:
  birdcam-pipeline annotate --source /data/staging/birdcam_20250429_090357.mp4`,
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(annotateCmd)
	annotateCmd.Flags().StringVar(&annotateSourcePath, "source", "", "Path to source recording (required)")
	annotateCmd.Flags().StringVar(&annotateOutputPath, "output", "", "Output path (default: next to the source)")
	annotateCmd.MarkFlagRequired("source")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	output := annotateOutputPath
	if output == "" {
		output = filepath.Join(filepath.Dir(annotateSourcePath), clip.AnnotatedFilename(annotateSourcePath))
	}

	annotator := ffmpeg.NewAnnotator(ffmpeg.WithAnnotatorCaption(c.Watch.AnnotateCaption))
	skipped, err := annotator.Annotate(cmd.Context(), annotateSourcePath, output)
	if err != nil {
		return err
	}
	if skipped {
		fmt.Fprintf(os.Stdout, "%s already exists, skipped\n", output)
		return nil
	}
	fmt.Fprintln(os.Stdout, output)
	return nil
}
