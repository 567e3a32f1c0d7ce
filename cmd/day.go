package cmd

import (
	"fmt"
	"os"
	"time"

	"birdcam-pipeline/infrastructure/store"

	"github.com/spf13/cobra"
)

var (
	dayDate  string
	dayForce bool
)

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Aggregate one day's clips into combined files",
	Long: `Combines a day's extracted clips into the daily highlight video(s) and
records the run in the catalog, so the watch daemon will not redo it.

By default yesterday is aggregated; pass --date for another day. A day whose
run is already recorded is skipped unless --force is given.

Example:
  birdcam-pipeline day --date 20250429`,
	RunE: runDay,
}

func init() {
	rootCmd.AddCommand(dayCmd)
	dayCmd.Flags().StringVar(&dayDate, "date", "", "Day to aggregate as YYYYMMDD (default yesterday)")
	dayCmd.Flags().BoolVar(&dayForce, "force", false, "Aggregate even when the day's run is recorded")
}

func runDay(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	dateKey := dayDate
	if dateKey == "" {
		dateKey = time.Now().AddDate(0, 0, -1).Format("20060102")
	}
	if _, err := time.Parse("20060102", dateKey); err != nil {
		return fmt.Errorf("invalid --date %q: want YYYYMMDD", dateKey)
	}

	st, err := store.Open(c.Paths.CatalogFile)
	if err != nil {
		return err
	}
	defer st.Close()

	if !dayForce {
		done, err := st.HasDailyRun(dateKey)
		if err != nil {
			return err
		}
		if done {
			fmt.Fprintf(os.Stdout, "%s already aggregated; use --force to redo\n", dateKey)
			return nil
		}
	}

	outputs, err := newAggregateService(c, log).Day(cmd.Context(), dateKey)
	if err != nil {
		return err
	}

	if err := st.RecordDailyRun(dateKey); err != nil {
		return err
	}

	if len(outputs) == 0 {
		fmt.Fprintf(os.Stdout, "no clips for %s\n", dateKey)
		return nil
	}
	for _, out := range outputs {
		fmt.Fprintln(os.Stdout, out)
	}
	return nil
}
