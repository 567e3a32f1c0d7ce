package cmd

import (
	"fmt"
	"os"

	"birdcam-pipeline/infrastructure/store"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog counters",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(c.Paths.CatalogFile)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Files:      %d total\n", stats.Total)
	fmt.Fprintf(os.Stdout, "  staged:    %d\n", stats.Staged)
	fmt.Fprintf(os.Stdout, "  processed: %d\n", stats.Processed)
	fmt.Fprintf(os.Stdout, "  failed:    %d\n", stats.Failed)
	fmt.Fprintf(os.Stdout, "Daily runs: %d\n", len(stats.DailyRuns))
	for _, run := range stats.DailyRuns {
		fmt.Fprintf(os.Stdout, "  %s\n", run)
	}
	return nil
}
