package cmd

import (
	"fmt"
	"os"

	"birdcam-pipeline/domain/catalog"

	"github.com/spf13/cobra"
)

var processSourcePath string

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a single recording into event clips",
	Long: `Runs detection and clip extraction on one recording without touching
the catalog. Useful for reprocessing a file by hand or testing detection
settings.

Example:
  birdcam-pipeline process --source /data/staging/birdcam_20250429_090357.mp4`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().StringVar(&processSourcePath, "source", "", "Path to source recording (required)")
	processCmd.MarkFlagRequired("source")
}

func runProcess(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	svc, closeClassifier, err := newPipelineService(c, log)
	if err != nil {
		return err
	}
	defer closeClassifier()

	result, err := svc.Process(cmd.Context(), processSourcePath)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case catalog.OutcomeZeroDuration:
		fmt.Fprintf(os.Stdout, "%s has no usable frames\n", processSourcePath)
	case catalog.OutcomeSucceeded:
		fmt.Fprintf(os.Stdout, "%d event(s), %d clip(s) (%d already present)\n",
			len(result.Timestamps), len(result.Clips), result.Skipped)
		for _, c := range result.Clips {
			fmt.Fprintln(os.Stdout, "  "+c)
		}
	}
	return nil
}
