package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"birdcam-pipeline/infrastructure/store"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the pipeline daemon",
	Long: `Polls the staging directory, processes new recordings into clips,
runs the once-per-day aggregation after the configured process hour, and
archives, publishes and prunes artifacts.

The daemon runs until interrupted. Every durable decision lives in the
catalog database, so restarting it at any point is safe.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(c.Paths.CatalogFile)
	if err != nil {
		return err
	}
	defer st.Close()

	processor, closeClassifier, err := newPipelineService(c, log)
	if err != nil {
		return err
	}
	defer closeClassifier()

	orchestrator, err := newOrchestrator(ctx, c, st, processor, newAggregateService(c, log), log)
	if err != nil {
		return err
	}

	log.Info("watching for recordings",
		"staging", c.Paths.StagingDirectory,
		"interval_seconds", c.Watch.PollIntervalSeconds)

	if err := orchestrator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutting down")
	return nil
}
