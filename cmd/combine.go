package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	combineDate string
	combineHour int
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Combine a day's clips without touching the catalog",
	Long: `Builds combined file(s) from the clips already extracted for a day,
or for one hour of a day with --hour. Unlike 'day', this never consults or
records run facts, so it is the tool for rebuilding an output by hand.

Example:
  birdcam-pipeline combine --date 20250429 --hour 9`,
	RunE: runCombine,
}

func init() {
	rootCmd.AddCommand(combineCmd)
	combineCmd.Flags().StringVar(&combineDate, "date", "", "Day to combine as YYYYMMDD (required)")
	combineCmd.Flags().IntVar(&combineHour, "hour", -1, "Combine only this clock hour (0-23)")
	combineCmd.MarkFlagRequired("date")
}

func runCombine(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}
	if _, err := time.Parse("20060102", combineDate); err != nil {
		return fmt.Errorf("invalid --date %q: want YYYYMMDD", combineDate)
	}
	if combineHour != -1 && (combineHour < 0 || combineHour > 23) {
		return fmt.Errorf("invalid --hour %d: want 0-23", combineHour)
	}

	svc := newAggregateService(c, newLogger())

	var outputs []string
	if combineHour == -1 {
		outputs, err = svc.Day(cmd.Context(), combineDate)
	} else {
		outputs, err = svc.Hour(cmd.Context(), combineDate, combineHour)
	}
	if err != nil {
		return err
	}

	if len(outputs) == 0 {
		fmt.Fprintln(os.Stdout, "no clips matched")
		return nil
	}
	for _, out := range outputs {
		fmt.Fprintln(os.Stdout, out)
	}
	return nil
}
