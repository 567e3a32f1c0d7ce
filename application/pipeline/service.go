package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"birdcam-pipeline/domain/catalog"
	"birdcam-pipeline/domain/clip"
	"birdcam-pipeline/domain/detect"
	"birdcam-pipeline/infrastructure/ffmpeg"
)

// Prober reads media metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (ffmpeg.ProbeResult, error)
}

// Cutter extracts one interval from a source into a clip file.
type Cutter interface {
	Cut(ctx context.Context, sourcePath string, iv clip.Interval, outputPath string) (skipped bool, err error)
}

// Annotator writes an overlay-annotated copy of a recording.
type Annotator interface {
	Annotate(ctx context.Context, sourcePath, outputPath string) (skipped bool, err error)
}

// Result reports what processing one recording produced.
type Result struct {
	Source     clip.Source
	Outcome    catalog.Outcome
	Timestamps []float64
	Clips      []string // produced or confirmed clip paths, in interval order
	Skipped    int      // clips that already existed
	FromCache  bool     // timestamps recovered from a previous run's artifact
}

// Service turns one staged recording into event clips. Every step is
// idempotent against artifacts already on disk, so a crashed run resumes by
// simply running again.
type Service struct {
	sampler    detect.FrameSampler
	classifier detect.Classifier
	prober     Prober
	cutter     Cutter
	annotator  Annotator
	outputDir  string
	period     float64
	filter     *detect.Filter
	mergeOpt   clip.MergeOptions
	log        *slog.Logger
}

// Option is a functional option for configuring Service.
type Option func(*Service)

// WithSamplePeriod sets the seconds between sampled frames.
func WithSamplePeriod(seconds float64) Option {
	return func(s *Service) {
		s.period = seconds
	}
}

// WithFilter replaces the default event filter.
func WithFilter(f *detect.Filter) Option {
	return func(s *Service) {
		s.filter = f
	}
}

// WithMergeOptions replaces the default interval padding.
func WithMergeOptions(opt clip.MergeOptions) Option {
	return func(s *Service) {
		s.mergeOpt = opt
	}
}

// WithAnnotator enables overlay annotation ahead of detection, so extracted
// clips carry the date and timecode overlay.
func WithAnnotator(a Annotator) Option {
	return func(s *Service) {
		s.annotator = a
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// NewService creates a processing service writing artifacts to outputDir.
func NewService(sampler detect.FrameSampler, classifier detect.Classifier, prober Prober, cutter Cutter, outputDir string, opts ...Option) *Service {
	s := &Service{
		sampler:    sampler,
		classifier: classifier,
		prober:     prober,
		cutter:     cutter,
		outputDir:  outputDir,
		period:     30,
		filter:     detect.NewFilter(detect.DefaultFilterConfig()),
		mergeOpt:   clip.DefaultMergeOptions(),
		log:        slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Process runs annotation, detection, merging and extraction for one
// recording. The returned outcome is always meaningful; the error carries
// detail only when the outcome is a failure.
func (s *Service) Process(ctx context.Context, sourcePath string) (Result, error) {
	src, err := clip.ParseSource(sourcePath)
	if err != nil {
		return Result{Outcome: catalog.OutcomeFailed}, err
	}
	result := Result{Source: src}

	probe, err := s.prober.Probe(ctx, sourcePath)
	if err != nil || probe.Duration == 0 || !probe.HasVideo {
		result.Outcome = catalog.OutcomeZeroDuration
		s.log.Warn("recording has no usable frames", "file", filepath.Base(sourcePath))
		return result, nil
	}

	detectSource := sourcePath
	if s.annotator != nil {
		annotated := filepath.Join(s.outputDir, clip.AnnotatedFilename(sourcePath))
		skipped, err := s.annotator.Annotate(ctx, sourcePath, annotated)
		if err != nil {
			result.Outcome = catalog.OutcomeFailed
			return result, fmt.Errorf("annotating %s: %w", src.Stem, err)
		}
		if skipped {
			s.log.Debug("annotation already present", "file", filepath.Base(annotated))
		}
		detectSource = annotated
	}

	timestamps, fromCache, err := s.eventTimestamps(ctx, src, detectSource)
	if err != nil {
		result.Outcome = catalog.OutcomeFailed
		return result, err
	}
	result.Timestamps = timestamps
	result.FromCache = fromCache

	intervals := clip.MergeTimestamps(timestamps, probe.Duration, s.mergeOpt)
	s.log.Info("events merged",
		"file", src.Stem, "events", len(timestamps), "intervals", len(intervals), "cached", fromCache)

	detectStem := src.Stem
	if s.annotator != nil {
		// Clips are cut from the annotated copy and inherit its stem, which
		// still parses as a source stem for later hour bucketing.
		annotatedSrc, err := clip.ParseSource(detectSource)
		if err == nil {
			detectStem = annotatedSrc.Stem
		}
	}

	for _, iv := range intervals {
		out := filepath.Join(s.outputDir, clip.Filename(detectStem, iv.Start))
		skipped, err := s.cutter.Cut(ctx, detectSource, iv, out)
		if err != nil {
			result.Outcome = catalog.OutcomeFailed
			return result, fmt.Errorf("cutting %s from %s: %w", iv, src.Stem, err)
		}
		if skipped {
			result.Skipped++
		}
		result.Clips = append(result.Clips, out)
	}

	result.Outcome = catalog.OutcomeSucceeded
	return result, nil
}

// eventTimestamps returns the recording's event timestamps, recovering them
// from the persisted artifact when a previous run already paid for
// classification. An unreadable artifact triggers re-detection; an empty but
// well-formed one means the recording genuinely had no events.
func (s *Service) eventTimestamps(ctx context.Context, src clip.Source, detectSource string) ([]float64, bool, error) {
	artifact := filepath.Join(s.outputDir, clip.TimestampsFilename(src.Stem))

	if cached, err := readTimestamps(artifact); err == nil {
		return cached, true, nil
	} else if !os.IsNotExist(err) {
		s.log.Warn("timestamp artifact unreadable, re-detecting", "file", artifact, "error", err)
	}

	var timestamps []float64
	err := s.sampler.Sample(ctx, detectSource, s.period, func(sample detect.Sample) error {
		detections, err := s.classifier.Classify(ctx, sample.Image)
		if err != nil {
			return fmt.Errorf("classifying frame at %gs: %w", sample.Timestamp, err)
		}
		if events := s.filter.Events(detections); len(events) > 0 {
			timestamps = append(timestamps, sample.Timestamp)
			s.log.Debug("event detected",
				"file", src.Stem, "timestamp", sample.Timestamp,
				"label", events[0].Label, "confidence", events[0].Confidence)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("detecting events in %s: %w", src.Stem, err)
	}

	if err := writeTimestamps(artifact, timestamps); err != nil {
		return nil, false, fmt.Errorf("persisting timestamps for %s: %w", src.Stem, err)
	}
	return timestamps, false, nil
}

// readTimestamps parses the one-column CSV artifact.
func readTimestamps(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	timestamps := make([]float64, 0, len(records))
	for _, rec := range records {
		if len(rec) == 0 {
			continue
		}
		ts, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("bad timestamp row %q: %w", rec[0], err)
		}
		timestamps = append(timestamps, ts)
	}
	return timestamps, nil
}

// writeTimestamps persists the artifact atomically so a crash mid-write never
// leaves a plausible-looking truncated file.
func writeTimestamps(path string, timestamps []float64) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	for _, ts := range timestamps {
		if err := w.Write([]string{strconv.FormatFloat(ts, 'f', -1, 64)}); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
