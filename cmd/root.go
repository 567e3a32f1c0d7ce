package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"birdcam-pipeline/infrastructure/config"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "birdcam-pipeline",
	Short: "Turn continuous bird-feeder recordings into event clips and daily highlight videos",
	Long: `birdcam-pipeline watches a staging directory of camera recordings and
distills them into publishable footage:

  - Sample frames and detect bird activity with a local model
  - Merge event timestamps into padded clip intervals
  - Extract clips with ffmpeg, annotated with date and timecode
  - Combine each day's clips into one highlight video
  - Archive artifacts and publish the daily video on a schedule

Example:
  birdcam-pipeline watch --config config/config.yaml`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = "config/config.yaml"
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		// Config file is optional for some commands (like help and setup)
		// Commands that need config will check and error appropriately
		cfg = nil
	}
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

// requireConfig returns the loaded configuration or a usable error.
func requireConfig() (*config.Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded; run 'birdcam-pipeline setup' or pass --config")
	}
	return cfg, nil
}

// newLogger builds the process-wide structured logger.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
}
