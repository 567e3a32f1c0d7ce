package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"birdcam-pipeline/domain/clip"
	"birdcam-pipeline/infrastructure/ffmpeg"
)

// Prober reads media metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (ffmpeg.ProbeResult, error)
}

// Concatenator joins ordered clips into one combined file.
type Concatenator interface {
	Concat(ctx context.Context, files []string, trimFirst float64, outputPath string) error
}

// Service aggregates a day's or an hour's event clips into combined files.
// Aggregation is idempotent: an existing combined file that probes as valid
// is kept, an invalid one is deleted and rebuilt.
type Service struct {
	prober    Prober
	concat    Concatenator
	outputDir string
	suffix    string
	trimFirst float64
	splitAMPM bool
	log       *slog.Logger
}

// Option is a functional option for configuring Service.
type Option func(*Service)

// WithSuffix sets the combined-filename suffix.
func WithSuffix(suffix string) Option {
	return func(s *Service) {
		s.suffix = suffix
	}
}

// WithTrimFirst drops the given seconds from the head of the first clip.
func WithTrimFirst(seconds float64) Option {
	return func(s *Service) {
		s.trimFirst = seconds
	}
}

// WithSplitAMPM produces separate morning and afternoon combined files,
// partitioned at noon, instead of one file per day.
func WithSplitAMPM(split bool) Option {
	return func(s *Service) {
		s.splitAMPM = split
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// NewService creates an aggregation service over outputDir.
func NewService(prober Prober, concat Concatenator, outputDir string, opts ...Option) *Service {
	s := &Service{
		prober:    prober,
		concat:    concat,
		outputDir: outputDir,
		suffix:    "birdcam",
		log:       slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Day combines all of a day's clips, returning the combined file paths. A day
// with no clips produces nothing and no error: the caller still records the
// run so the day is never revisited.
func (s *Service) Day(ctx context.Context, dateKey string) ([]string, error) {
	clips, err := s.dayClips(dateKey)
	if err != nil {
		return nil, err
	}
	if len(clips) == 0 {
		s.log.Info("no clips to aggregate", "date", dateKey)
		return nil, nil
	}

	if !s.splitAMPM {
		out := filepath.Join(s.outputDir, clip.CombinedFilename(dateKey, s.suffix, clip.BucketAll))
		if err := s.combine(ctx, clips, out); err != nil {
			return nil, err
		}
		return []string{out}, nil
	}

	var outputs []string
	for _, part := range []struct {
		bucket clip.Bucket
		accept func(hour int) bool
	}{
		{clip.BucketAM, func(h int) bool { return h < 12 }},
		{clip.BucketPM, func(h int) bool { return h >= 12 }},
	} {
		var bucketClips []string
		for _, c := range clips {
			hour, err := clip.ClockHour(c)
			if err != nil {
				return nil, fmt.Errorf("bucketing %s: %w", c, err)
			}
			if part.accept(hour) {
				bucketClips = append(bucketClips, c)
			}
		}
		if len(bucketClips) == 0 {
			continue
		}
		out := filepath.Join(s.outputDir, clip.CombinedFilename(dateKey, s.suffix, part.bucket))
		if err := s.combine(ctx, bucketClips, out); err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// Hour combines the clips of one clock hour of a day.
func (s *Service) Hour(ctx context.Context, dateKey string, hour int) ([]string, error) {
	clips, err := s.dayClips(dateKey)
	if err != nil {
		return nil, err
	}

	var hourClips []string
	for _, c := range clips {
		h, err := clip.ClockHour(c)
		if err != nil {
			return nil, fmt.Errorf("bucketing %s: %w", c, err)
		}
		if h == hour {
			hourClips = append(hourClips, c)
		}
	}
	if len(hourClips) == 0 {
		s.log.Info("no clips to aggregate", "date", dateKey, "hour", hour)
		return nil, nil
	}

	out := filepath.Join(s.outputDir, clip.HourlyCombinedFilename(dateKey, s.suffix, hour))
	if err := s.combine(ctx, hourClips, out); err != nil {
		return nil, err
	}
	return []string{out}, nil
}

// combine builds one combined file unless a valid one already exists, and
// verifies the result before reporting success.
func (s *Service) combine(ctx context.Context, clips []string, outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		probe, err := s.prober.Probe(ctx, outputPath)
		if err == nil && probe.Duration > 0 {
			s.log.Info("combined file already valid", "file", filepath.Base(outputPath))
			return nil
		}
		// A zero-length or unreadable leftover from an interrupted run.
		s.log.Warn("removing invalid combined file", "file", filepath.Base(outputPath))
		if err := os.Remove(outputPath); err != nil {
			return fmt.Errorf("removing invalid combined file %s: %w", outputPath, err)
		}
	}

	if err := s.concat.Concat(ctx, clips, s.trimFirst, outputPath); err != nil {
		return err
	}

	probe, err := s.prober.Probe(ctx, outputPath)
	if err != nil || probe.Duration == 0 {
		os.Remove(outputPath)
		return fmt.Errorf("combined file %s failed verification", outputPath)
	}

	s.log.Info("combined file written",
		"file", filepath.Base(outputPath), "clips", len(clips), "duration", probe.Duration)
	return nil
}

// dayClips returns the day's clip paths in chronological order. Clip names
// embed the source start clock and the zero-padded interval start, so lexical
// order is chronological order.
func (s *Service) dayClips(dateKey string) ([]string, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.outputDir, err)
	}

	var clips []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp4") {
			continue
		}
		stem, _, err := clip.ParseFilename(entry.Name())
		if err != nil {
			continue // not a clip
		}
		src, err := clip.ParseSource(stem)
		if err != nil || src.DateKey() != dateKey {
			continue
		}
		clips = append(clips, filepath.Join(s.outputDir, entry.Name()))
	}

	sort.Strings(clips)
	return clips, nil
}
