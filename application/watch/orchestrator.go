package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"birdcam-pipeline/application/pipeline"
	"birdcam-pipeline/domain/catalog"
	"birdcam-pipeline/domain/clip"
	"birdcam-pipeline/domain/publish"
	"birdcam-pipeline/infrastructure/archive"
)

// Processor turns one staged recording into clips.
type Processor interface {
	Process(ctx context.Context, sourcePath string) (pipeline.Result, error)
}

// Aggregator combines a day's or hour's clips.
type Aggregator interface {
	Day(ctx context.Context, dateKey string) ([]string, error)
	Hour(ctx context.Context, dateKey string, hour int) ([]string, error)
}

// Syncer mirrors artifacts to the archive target.
type Syncer interface {
	Sync(ctx context.Context, files ...string) error
}

// Orchestrator drives the pipeline: it discovers recordings, processes them,
// runs the once-per-day aggregation, publishes combined files and prunes old
// artifacts. All durable decisions go through the catalog store, so any
// number of restarts converge on the same outcome.
type Orchestrator struct {
	store        catalog.Store
	processor    Processor
	aggregator   Aggregator
	syncer       Syncer            // nil disables archive sync
	publisher    publish.Publisher // nil disables publication
	stagingDir   string
	outputDir    string
	pollInterval time.Duration
	processHour  int
	retention    time.Duration // zero disables pruning
	policy       publish.Policy
	staggerStep  int
	titlePrefix  string
	playlistName string
	hourlyLag    int
	now          func() time.Time
	log          *slog.Logger
}

// OrchestratorOption is a functional option for configuring Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithSyncer enables archive sync of produced artifacts.
func WithSyncer(s Syncer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.syncer = s
	}
}

// WithPublisher enables publication of combined files.
func WithPublisher(p publish.Publisher) OrchestratorOption {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}

// WithPollInterval sets the delay between watch passes.
func WithPollInterval(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.pollInterval = d
	}
}

// WithProcessHour sets the earliest local hour daily aggregation may run.
func WithProcessHour(hour int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.processHour = hour
	}
}

// WithRetention enables pruning of output artifacts older than d.
func WithRetention(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.retention = d
	}
}

// WithPublishPolicy replaces the default visibility policy.
func WithPublishPolicy(p publish.Policy) OrchestratorOption {
	return func(o *Orchestrator) {
		o.policy = p
	}
}

// WithStaggerStep sets the seconds added to the stagger counter per upload.
func WithStaggerStep(seconds int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.staggerStep = seconds
	}
}

// WithTitlePrefix sets the upload title prefix.
func WithTitlePrefix(prefix string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.titlePrefix = prefix
	}
}

// WithPlaylist sets the playlist uploads are added to.
func WithPlaylist(name string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.playlistName = name
	}
}

// WithHourlyLag sets how many whole hours behind now the hourly catch-up
// stays, leaving recordings time to finish and process.
func WithHourlyLag(hours int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.hourlyLag = hours
	}
}

// WithClock replaces the wall clock, used for testing.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// NewOrchestrator creates the pipeline orchestrator.
func NewOrchestrator(store catalog.Store, processor Processor, aggregator Aggregator, stagingDir, outputDir string, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store:        store,
		processor:    processor,
		aggregator:   aggregator,
		stagingDir:   stagingDir,
		outputDir:    outputDir,
		pollInterval: 5 * time.Minute,
		processHour:  3,
		policy:       publish.DefaultPolicy(),
		staggerStep:  60,
		hourlyLag:    2,
		now:          time.Now,
		log:          slog.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Run polls until the context is cancelled. A failed pass is logged and the
// loop continues; only cancellation stops it.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		if err := o.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.log.Error("watch pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single watch pass.
func (o *Orchestrator) RunOnce(ctx context.Context) error {
	discovered, err := o.catalogNewFiles()
	if err != nil {
		return err
	}
	if discovered > 0 {
		o.log.Info("recordings discovered", "count", discovered)
	}

	if err := o.processStaged(ctx); err != nil {
		return err
	}

	if err := o.maybeAggregateDaily(ctx); err != nil {
		return err
	}

	if o.retention > 0 {
		removed, err := archive.Prune(o.outputDir, o.retention, o.now())
		if err != nil {
			return err
		}
		if len(removed) > 0 {
			o.log.Info("old artifacts pruned", "count", len(removed))
		}
	}

	stats, err := o.store.Stats()
	if err != nil {
		return err
	}
	o.log.Info("watch pass complete",
		"total", stats.Total, "staged", stats.Staged,
		"processed", stats.Processed, "failed", stats.Failed)

	return nil
}

// catalogNewFiles registers every recording in the staging directory. Files
// already cataloged are left untouched, whatever their status.
func (o *Orchestrator) catalogNewFiles() (int, error) {
	entries, err := os.ReadDir(o.stagingDir)
	if err != nil {
		return 0, fmt.Errorf("reading staging directory: %w", err)
	}

	var discovered int
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp4") {
			continue
		}
		inserted, err := o.store.CatalogFile(entry.Name(), catalog.StatusStaged)
		if err != nil {
			return discovered, err
		}
		if inserted {
			discovered++
		}
	}
	return discovered, nil
}

// processStaged runs the pipeline over every staged recording. A failure on
// one file marks it failed and moves on; it never blocks the rest.
func (o *Orchestrator) processStaged(ctx context.Context) error {
	staged, err := o.store.StagedFiles()
	if err != nil {
		return err
	}

	for _, name := range staged {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.processOne(ctx, name)
	}
	return nil
}

func (o *Orchestrator) processOne(ctx context.Context, name string) {
	sourcePath := filepath.Join(o.stagingDir, name)
	if _, err := os.Stat(sourcePath); err != nil {
		o.log.Error("staged recording missing", "file", name)
		o.setStatus(name, catalog.StatusFailed)
		return
	}

	result, err := o.processor.Process(ctx, sourcePath)
	o.setStatus(name, result.Outcome.Status())
	if err != nil {
		o.log.Error("processing failed", "file", name, "error", err)
		return
	}
	if result.Outcome != catalog.OutcomeSucceeded {
		o.log.Warn("processing did not succeed", "file", name, "outcome", result.Outcome.String())
		return
	}

	o.log.Info("recording processed",
		"file", name, "events", len(result.Timestamps),
		"clips", len(result.Clips), "skipped", result.Skipped)

	if o.syncer != nil {
		artifacts := append([]string{}, result.Clips...)
		artifacts = append(artifacts, filepath.Join(o.outputDir, clip.TimestampsFilename(result.Source.Stem)))
		if err := o.syncer.Sync(ctx, artifacts...); err != nil {
			// Leave the source in place; the next pass retries the sync from
			// the already-extracted clips.
			o.log.Error("archive sync failed", "file", name, "error", err)
			return
		}
	}

	// The clips and the catalog row now carry the recording's history; the
	// bulky original is no longer needed.
	if err := os.Remove(sourcePath); err != nil {
		o.log.Error("removing processed recording failed", "file", name, "error", err)
	}
}

func (o *Orchestrator) setStatus(name string, status catalog.Status) {
	if err := o.store.SetFileStatus(name, status); err != nil {
		o.log.Error("status update failed", "file", name, "status", string(status), "error", err)
	}
}

// maybeAggregateDaily runs yesterday's aggregation once the local clock has
// passed the process hour, exactly once per date key.
func (o *Orchestrator) maybeAggregateDaily(ctx context.Context) error {
	now := o.now()
	if now.Hour() < o.processHour {
		return nil
	}
	dateKey := now.AddDate(0, 0, -1).Format("20060102")

	done, err := o.store.HasDailyRun(dateKey)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	outputs, err := o.aggregator.Day(ctx, dateKey)
	if err != nil {
		return fmt.Errorf("daily aggregation for %s: %w", dateKey, err)
	}

	if err := o.distribute(ctx, dateKey, outputs); err != nil {
		return err
	}

	// Recorded only after every artifact is built, synced and published, so
	// a crash anywhere above reruns the day idempotently.
	if err := o.store.RecordDailyRun(dateKey); err != nil {
		return err
	}
	o.log.Info("daily aggregation complete", "date", dateKey, "outputs", len(outputs))
	return nil
}

// CatchUpHourly aggregates and distributes every (date, hour) key between the
// last recorded hourly run and lag hours before now, oldest first.
func (o *Orchestrator) CatchUpHourly(ctx context.Context) error {
	now := o.now()
	limit := now.Truncate(time.Hour).Add(-time.Duration(o.hourlyLag) * time.Hour)

	next := limit.Add(-time.Hour) // default: only the most recent eligible hour
	if dateKey, hour, ok, err := o.store.LastHourlyRun(); err != nil {
		return err
	} else if ok {
		day, err := time.ParseInLocation("20060102", dateKey, now.Location())
		if err != nil {
			return fmt.Errorf("stored hourly run key %q: %w", dateKey, err)
		}
		next = day.Add(time.Duration(hour+1) * time.Hour)
	}

	for ; next.Before(limit); next = next.Add(time.Hour) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		dateKey := next.Format("20060102")
		hour := next.Hour()

		done, err := o.store.HasHourlyRun(dateKey, hour)
		if err != nil {
			return err
		}
		if done {
			continue
		}

		outputs, err := o.aggregator.Hour(ctx, dateKey, hour)
		if err != nil {
			return fmt.Errorf("hourly aggregation for %s/%02d: %w", dateKey, hour, err)
		}
		if err := o.distribute(ctx, dateKey, outputs); err != nil {
			return err
		}
		if err := o.store.RecordHourlyRun(dateKey, hour); err != nil {
			return err
		}
		o.log.Info("hourly aggregation complete", "date", dateKey, "hour", hour, "outputs", len(outputs))
	}
	return nil
}

// distribute syncs and publishes the combined files of one aggregation run.
func (o *Orchestrator) distribute(ctx context.Context, dateKey string, outputs []string) error {
	if len(outputs) == 0 {
		return nil
	}

	if o.syncer != nil {
		if err := o.syncer.Sync(ctx, outputs...); err != nil {
			return err
		}
	}
	if o.publisher == nil {
		return nil
	}

	for _, output := range outputs {
		if err := o.publishOne(ctx, dateKey, output); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) publishOne(ctx context.Context, dateKey, output string) error {
	now := o.now()

	var schedule publish.Schedule
	if o.policy.Decide(now, 0).Deferred() {
		stagger, err := o.store.NextPublishDelay(o.staggerStep)
		if err != nil {
			return err
		}
		schedule = o.policy.Decide(now, time.Duration(stagger)*time.Second)
	} else {
		schedule = o.policy.Decide(now, 0)
		if err := o.store.ResetPublishDelay(); err != nil {
			return err
		}
	}

	title := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	if o.titlePrefix != "" {
		title = o.titlePrefix + " " + title
	}

	result, err := o.publisher.Upload(ctx, publish.UploadRequest{
		Path:          output,
		Title:         title,
		Description:   fmt.Sprintf("Bird activity highlights for %s.", dateKey),
		PrivacyStatus: schedule.PrivacyStatus,
		PublishAt:     schedule.PublishAt,
		PlaylistName:  o.playlistName,
	})
	if err != nil {
		return fmt.Errorf("publishing %s: %w", filepath.Base(output), err)
	}

	o.log.Info("combined file published",
		"file", filepath.Base(output), "video", result.VideoID,
		"privacy", schedule.PrivacyStatus, "deferred", schedule.Deferred())
	return nil
}
