//go:build integration

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"birdcam-pipeline/domain/catalog"
	"birdcam-pipeline/infrastructure/store"

	"github.com/cucumber/godog"
)

type catalogState struct {
	dir    string
	path   string
	store  *store.SQLiteStore
	delays []int
}

func (s *catalogState) open() error {
	st, err := store.Open(s.path)
	if err != nil {
		return err
	}
	s.store = st
	return nil
}

func InitializeCatalogScenario(ctx *godog.ScenarioContext) {
	state := &catalogState{}

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if state.store != nil {
			state.store.Close()
			state.store = nil
		}
		if state.dir != "" {
			os.RemoveAll(state.dir)
			state.dir = ""
		}
		return c, nil
	})

	ctx.Step(`^an empty catalog$`, func() error {
		dir, err := os.MkdirTemp("", "catalog")
		if err != nil {
			return err
		}
		state.dir = dir
		state.path = filepath.Join(dir, "catalog.db")
		state.delays = nil
		return state.open()
	})

	ctx.Step(`^the daily run for "([^"]*)" is recorded( again)?$`, func(dateKey, _ string) error {
		return state.store.RecordDailyRun(dateKey)
	})

	ctx.Step(`^the catalog is reopened$`, func() error {
		if err := state.store.Close(); err != nil {
			return err
		}
		return state.open()
	})

	ctx.Step(`^the daily run for "([^"]*)" is marked done$`, func(dateKey string) error {
		done, err := state.store.HasDailyRun(dateKey)
		if err != nil {
			return err
		}
		if !done {
			return fmt.Errorf("daily run %s not marked done", dateKey)
		}
		return nil
	})

	ctx.Step(`^the daily run for "([^"]*)" is not marked done$`, func(dateKey string) error {
		done, err := state.store.HasDailyRun(dateKey)
		if err != nil {
			return err
		}
		if done {
			return fmt.Errorf("daily run %s unexpectedly marked done", dateKey)
		}
		return nil
	})

	ctx.Step(`^the file "([^"]*)" is discovered$`, func(name string) error {
		_, err := state.store.CatalogFile(name, catalog.StatusStaged)
		return err
	})

	ctx.Step(`^the catalog holds (\d+) file(?:s)?$`, func(want int) error {
		stats, err := state.store.Stats()
		if err != nil {
			return err
		}
		if stats.Total != int64(want) {
			return fmt.Errorf("catalog holds %d files, want %d", stats.Total, want)
		}
		return nil
	})

	ctx.Step(`^(\d+) publish delays of step (\d+) are taken$`, func(count, step int) error {
		for i := 0; i < count; i++ {
			delay, err := state.store.NextPublishDelay(step)
			if err != nil {
				return err
			}
			state.delays = append(state.delays, delay)
		}
		return nil
	})

	ctx.Step(`^the delays were "([^"]*)"$`, func(list string) error {
		var want []int
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return err
			}
			want = append(want, v)
		}
		if len(state.delays) != len(want) {
			return fmt.Errorf("delays = %v, want %v", state.delays, want)
		}
		for i := range want {
			if state.delays[i] != want[i] {
				return fmt.Errorf("delays = %v, want %v", state.delays, want)
			}
		}
		return nil
	})
}
