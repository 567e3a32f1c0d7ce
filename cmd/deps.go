package cmd

import (
	"context"
	"log/slog"
	"time"

	"birdcam-pipeline/application/aggregate"
	"birdcam-pipeline/application/pipeline"
	"birdcam-pipeline/application/watch"
	"birdcam-pipeline/domain/clip"
	"birdcam-pipeline/domain/detect"
	"birdcam-pipeline/domain/publish"
	"birdcam-pipeline/infrastructure/archive"
	"birdcam-pipeline/infrastructure/classify"
	"birdcam-pipeline/infrastructure/config"
	"birdcam-pipeline/infrastructure/ffmpeg"
	"birdcam-pipeline/infrastructure/store"
	"birdcam-pipeline/infrastructure/youtube"
)

// newPipelineService wires the per-file processing service from configuration.
// The returned closer releases the classifier.
func newPipelineService(c *config.Config, log *slog.Logger) (*pipeline.Service, func() error, error) {
	classifier, err := classify.NewYOLOClassifier(c.Detection.ModelFile, c.Detection.ClassNamesFile)
	if err != nil {
		return nil, nil, err
	}

	prober := ffmpeg.NewProber()
	opts := []pipeline.Option{
		pipeline.WithSamplePeriod(c.Detection.SamplePeriodSeconds),
		pipeline.WithFilter(detect.NewFilter(detect.FilterConfig{
			Threshold:     c.Detection.ConfidenceThreshold,
			AllowedLabels: c.Detection.AllowedLabels,
			MinAspect:     c.Detection.MinAspectRatio,
			MaxAspect:     c.Detection.MaxAspectRatio,
			SmallObjectPx: float64(c.Detection.SmallObjectPixels),
		})),
		pipeline.WithMergeOptions(clip.MergeOptions{
			PreBuffer:  c.Clips.PreBufferSeconds,
			PostBuffer: c.Clips.PostBufferSeconds,
			MinGap:     c.Clips.MinGapSeconds,
		}),
		pipeline.WithLogger(log),
	}
	if c.Watch.AnnotateCaption != "" {
		opts = append(opts, pipeline.WithAnnotator(ffmpeg.NewAnnotator(
			ffmpeg.WithAnnotatorProber(prober),
			ffmpeg.WithAnnotatorCaption(c.Watch.AnnotateCaption),
		)))
	}

	svc := pipeline.NewService(
		ffmpeg.NewSampler(),
		classifier,
		prober,
		ffmpeg.NewCutter(),
		c.Paths.OutputDirectory,
		opts...,
	)
	return svc, classifier.Close, nil
}

// newAggregateService wires the clip aggregation service from configuration.
func newAggregateService(c *config.Config, log *slog.Logger) *aggregate.Service {
	return aggregate.NewService(
		ffmpeg.NewProber(),
		ffmpeg.NewConcatenator(),
		c.Paths.OutputDirectory,
		aggregate.WithSuffix(c.Aggregation.CombinedSuffix),
		aggregate.WithTrimFirst(c.Aggregation.TrimFirstSeconds),
		aggregate.WithSplitAMPM(c.Aggregation.SplitAMPM),
		aggregate.WithLogger(log),
	)
}

// newOrchestrator wires the full orchestrator, including the optional archive
// syncer and publisher.
func newOrchestrator(ctx context.Context, c *config.Config, st *store.SQLiteStore, processor watch.Processor, aggregator watch.Aggregator, log *slog.Logger) (*watch.Orchestrator, error) {
	opts := []watch.OrchestratorOption{
		watch.WithPollInterval(time.Duration(c.Watch.PollIntervalSeconds) * time.Second),
		watch.WithProcessHour(c.Watch.ProcessHour),
		watch.WithStaggerStep(c.Publish.StaggerStepSeconds),
		watch.WithTitlePrefix(c.Publish.TitlePrefix),
		watch.WithPlaylist(c.Publish.PlaylistName),
		watch.WithHourlyLag(c.Aggregation.HourlyLagHours),
		watch.WithPublishPolicy(publish.Policy{
			ReleaseHour:     c.Publish.ReleaseHour,
			WindowStartHour: c.Publish.WindowStartHour,
			WindowEndHour:   c.Publish.WindowEndHour,
		}),
		watch.WithLogger(log),
	}
	if c.Watch.RetentionDays > 0 {
		opts = append(opts, watch.WithRetention(time.Duration(c.Watch.RetentionDays)*24*time.Hour))
	}
	if c.Paths.ArchiveTarget != "" {
		opts = append(opts, watch.WithSyncer(archive.NewSyncer(c.Paths.ArchiveTarget)))
	}
	if c.Publish.Enabled {
		publisher, err := youtube.NewClient(ctx, c.Google.CredentialsFile, c.Google.TokenFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, watch.WithPublisher(publisher))
	}

	return watch.NewOrchestrator(
		st, processor, aggregator,
		c.Paths.StagingDirectory, c.Paths.OutputDirectory,
		opts...,
	), nil
}
