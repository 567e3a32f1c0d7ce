package cmd

import (
	"birdcam-pipeline/infrastructure/store"

	"github.com/spf13/cobra"
)

var hourlyCmd = &cobra.Command{
	Use:   "hourly",
	Short: "Catch up on hourly combined files",
	Long: `Walks every (day, hour) since the last recorded hourly run, up to the
configured lag behind the current time, and builds one combined file per hour
that has clips. Each hour is aggregated and published exactly once, so the
command is safe to run from cron as often as you like.`,
	RunE: runHourly,
}

func init() {
	rootCmd.AddCommand(hourlyCmd)
}

func runHourly(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	st, err := store.Open(c.Paths.CatalogFile)
	if err != nil {
		return err
	}
	defer st.Close()

	// The hourly path never touches per-file processing.
	orchestrator, err := newOrchestrator(cmd.Context(), c, st, nil, newAggregateService(c, log), log)
	if err != nil {
		return err
	}

	return orchestrator.CatchUpHourly(cmd.Context())
}
