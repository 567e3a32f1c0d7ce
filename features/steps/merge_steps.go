//go:build integration

package steps

import (
	"fmt"
	"strconv"
	"strings"

	"birdcam-pipeline/domain/clip"

	"github.com/cucumber/godog"
)

type mergeState struct {
	duration   float64
	timestamps []float64
	intervals  []clip.Interval
}

func InitializeMergeScenario(ctx *godog.ScenarioContext) {
	state := &mergeState{}

	ctx.Step(`^a recording (\d+) seconds long$`, func(seconds int) error {
		state.duration = float64(seconds)
		state.timestamps = nil
		state.intervals = nil
		return nil
	})

	ctx.Step(`^events at seconds "([^"]*)"$`, func(list string) error {
		for _, field := range strings.Split(list, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			ts, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return fmt.Errorf("bad timestamp %q: %w", field, err)
			}
			state.timestamps = append(state.timestamps, ts)
		}
		return nil
	})

	ctx.Step(`^the events are merged with (\d+) second buffers$`, func(buffer int) error {
		b := float64(buffer)
		state.intervals = clip.MergeTimestamps(state.timestamps, state.duration,
			clip.MergeOptions{PreBuffer: b, PostBuffer: b, MinGap: b})
		return nil
	})

	ctx.Step(`^the intervals are:$`, func(table *godog.Table) error {
		rows := table.Rows[1:] // skip header
		if len(state.intervals) != len(rows) {
			return fmt.Errorf("got %d intervals, want %d", len(state.intervals), len(rows))
		}
		for i, row := range rows {
			start, _ := strconv.ParseFloat(row.Cells[0].Value, 64)
			end, _ := strconv.ParseFloat(row.Cells[1].Value, 64)
			if state.intervals[i].Start != start || state.intervals[i].End != end {
				return fmt.Errorf("interval %d = %v, want [%g, %g]", i, state.intervals[i], start, end)
			}
		}
		return nil
	})

	ctx.Step(`^there are no intervals$`, func() error {
		if len(state.intervals) != 0 {
			return fmt.Errorf("got %d intervals, want none", len(state.intervals))
		}
		return nil
	})
}
