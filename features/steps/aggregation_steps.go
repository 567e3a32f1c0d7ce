//go:build integration

package steps

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"birdcam-pipeline/application/aggregate"
	"birdcam-pipeline/infrastructure/ffmpeg"

	"github.com/cucumber/godog"
)

// stubProber reports any non-empty file as a valid recording.
type stubProber struct{}

func (stubProber) Probe(ctx context.Context, path string) (ffmpeg.ProbeResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ffmpeg.ProbeResult{}, err
	}
	if info.Size() == 0 {
		return ffmpeg.ProbeResult{Duration: 0, HasVideo: true}, nil
	}
	return ffmpeg.ProbeResult{Duration: 60, HasVideo: true}, nil
}

// recordingConcat records input order and writes a non-empty output.
type recordingConcat struct {
	builds map[string][]string // output base name -> input base names
}

func (r *recordingConcat) Concat(ctx context.Context, files []string, trimFirst float64, outputPath string) error {
	var bases []string
	for _, f := range files {
		bases = append(bases, filepath.Base(f))
	}
	r.builds[filepath.Base(outputPath)] = bases
	return os.WriteFile(outputPath, []byte("combined"), 0644)
}

type aggregationState struct {
	dir    string
	concat *recordingConcat
	svc    *aggregate.Service
}

func InitializeAggregationScenario(ctx *godog.ScenarioContext) {
	state := &aggregationState{}

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if state.dir != "" {
			os.RemoveAll(state.dir)
			state.dir = ""
		}
		return c, nil
	})

	ctx.Step(`^extracted clips:$`, func(table *godog.Table) error {
		dir, err := os.MkdirTemp("", "aggregate")
		if err != nil {
			return err
		}
		state.dir = dir
		state.concat = &recordingConcat{builds: map[string][]string{}}
		state.svc = aggregate.NewService(stubProber{}, state.concat, dir,
			aggregate.WithLogger(slog.New(slog.DiscardHandler)))

		for _, row := range table.Rows {
			name := row.Cells[0].Value
			if err := os.WriteFile(filepath.Join(dir, name), []byte("clip"), 0644); err != nil {
				return err
			}
		}
		return nil
	})

	ctx.Step(`^a valid combined file "([^"]*)" already exists$`, func(name string) error {
		return os.WriteFile(filepath.Join(state.dir, name), []byte("finished earlier"), 0644)
	})

	ctx.Step(`^an invalid combined file "([^"]*)" already exists$`, func(name string) error {
		return os.WriteFile(filepath.Join(state.dir, name), nil, 0644)
	})

	ctx.Step(`^the day "([^"]*)" is aggregated$`, func(dateKey string) error {
		_, err := state.svc.Day(context.Background(), dateKey)
		return err
	})

	ctx.Step(`^the combined file "([^"]*)" is built from:$`, func(name string, table *godog.Table) error {
		got, ok := state.concat.builds[name]
		if !ok {
			return fmt.Errorf("combined file %s was not built", name)
		}
		if len(got) != len(table.Rows) {
			return fmt.Errorf("built from %v, want %d inputs", got, len(table.Rows))
		}
		for i, row := range table.Rows {
			if got[i] != row.Cells[0].Value {
				return fmt.Errorf("input %d = %s, want %s", i, got[i], row.Cells[0].Value)
			}
		}
		return nil
	})

	ctx.Step(`^no combined file is rebuilt$`, func() error {
		if len(state.concat.builds) != 0 {
			return fmt.Errorf("rebuilt: %v", state.concat.builds)
		}
		return nil
	})
}
