package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"birdcam-pipeline/domain/catalog"
	"birdcam-pipeline/domain/clip"
	"birdcam-pipeline/domain/detect"
	"birdcam-pipeline/infrastructure/ffmpeg"
)

const sourceName = "birdcam_20250429_090357.mp4"

// fakeSampler emits one sample per configured timestamp, tagging each image
// with its index so the fake classifier can look it up.
type fakeSampler struct {
	timestamps []float64
	err        error
}

func (f *fakeSampler) Sample(ctx context.Context, videoPath string, period float64, fn func(detect.Sample) error) error {
	if f.err != nil {
		return f.err
	}
	for i, ts := range f.timestamps {
		if err := fn(detect.Sample{Image: []byte{byte(i)}, Timestamp: ts}); err != nil {
			return err
		}
	}
	return nil
}

// fakeClassifier returns detections for samples whose index is listed.
type fakeClassifier struct {
	eventIndexes map[byte][]detect.Detection
	err          error
	calls        int
}

func (f *fakeClassifier) Classify(ctx context.Context, image []byte) ([]detect.Detection, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.eventIndexes[image[0]], nil
}

func (f *fakeClassifier) Close() error { return nil }

type fakeProber struct {
	result ffmpeg.ProbeResult
	err    error
}

func (f *fakeProber) Probe(ctx context.Context, path string) (ffmpeg.ProbeResult, error) {
	return f.result, f.err
}

type fakeCutter struct {
	cuts    []clip.Interval
	outputs []string
	failOn  int // 1-based call number to fail at, 0 for never
	calls   int
}

func (f *fakeCutter) Cut(ctx context.Context, sourcePath string, iv clip.Interval, outputPath string) (bool, error) {
	f.calls++
	if f.failOn != 0 && f.calls == f.failOn {
		return false, errors.New("encoder crashed")
	}
	if _, err := os.Stat(outputPath); err == nil {
		return true, nil
	}
	f.cuts = append(f.cuts, iv)
	f.outputs = append(f.outputs, outputPath)
	return false, os.WriteFile(outputPath, []byte("clip"), 0644)
}

type fakeAnnotator struct {
	annotated []string
	err       error
}

func (f *fakeAnnotator) Annotate(ctx context.Context, sourcePath, outputPath string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.annotated = append(f.annotated, outputPath)
	return false, os.WriteFile(outputPath, []byte("annotated"), 0644)
}

func birdAt(idx byte) map[byte][]detect.Detection {
	return map[byte][]detect.Detection{
		idx: {{Label: "bird", Confidence: 0.9, Box: detect.Box{XMin: 0, YMin: 0, XMax: 100, YMax: 100}}},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestProcessProducesClips(t *testing.T) {
	dir := t.TempDir()
	events := map[byte][]detect.Detection{}
	for idx, d := range birdAt(1) {
		events[idx] = d
	}
	for idx, d := range birdAt(2) {
		events[idx] = d
	}
	classifier := &fakeClassifier{eventIndexes: events}
	cutter := &fakeCutter{}

	svc := NewService(
		&fakeSampler{timestamps: []float64{0, 30, 60, 90}},
		classifier,
		&fakeProber{result: ffmpeg.ProbeResult{Duration: 100, HasVideo: true}},
		cutter,
		dir,
		WithLogger(quietLogger()),
	)

	result, err := svc.Process(context.Background(), sourceName)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if result.Outcome != catalog.OutcomeSucceeded {
		t.Errorf("outcome = %v, want succeeded", result.Outcome)
	}
	// Events at 30 and 60 are more than MinGap apart after padding, so two
	// intervals: [20,40] and [50,70].
	wantCuts := []clip.Interval{{Start: 20, End: 40}, {Start: 50, End: 70}}
	if len(cutter.cuts) != len(wantCuts) {
		t.Fatalf("cut %d intervals, want %d", len(cutter.cuts), len(wantCuts))
	}
	for i, want := range wantCuts {
		if cutter.cuts[i] != want {
			t.Errorf("cut %d = %v, want %v", i, cutter.cuts[i], want)
		}
	}
	if base := filepath.Base(result.Clips[0]); base != "birdcam_20250429_090357_clip_0020.mp4" {
		t.Errorf("clip name = %q", base)
	}
	if result.FromCache {
		t.Error("fresh detection reported as cached")
	}

	// The timestamps artifact is persisted for recovery.
	artifact := filepath.Join(dir, "birdcam_20250429_090357_timestamps.csv")
	data, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatalf("timestamps artifact missing: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "30\n60" {
		t.Errorf("artifact = %q, want two rows", got)
	}
}

func TestProcessNoEvents(t *testing.T) {
	dir := t.TempDir()
	cutter := &fakeCutter{}
	svc := NewService(
		&fakeSampler{timestamps: []float64{0, 30}},
		&fakeClassifier{},
		&fakeProber{result: ffmpeg.ProbeResult{Duration: 60, HasVideo: true}},
		cutter,
		dir,
		WithLogger(quietLogger()),
	)

	result, err := svc.Process(context.Background(), sourceName)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if result.Outcome != catalog.OutcomeSucceeded {
		t.Errorf("outcome = %v, want succeeded", result.Outcome)
	}
	if len(result.Clips) != 0 || cutter.calls != 0 {
		t.Error("eventless recording produced clips")
	}
	if _, err := os.Stat(filepath.Join(dir, "birdcam_20250429_090357_timestamps.csv")); err != nil {
		t.Error("eventless recording should still persist an empty artifact")
	}
}

func TestProcessUsesCachedTimestamps(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "birdcam_20250429_090357_timestamps.csv")
	if err := os.WriteFile(artifact, []byte("5\n12\n40\n"), 0644); err != nil {
		t.Fatal(err)
	}

	classifier := &fakeClassifier{err: errors.New("must not classify")}
	cutter := &fakeCutter{}
	svc := NewService(
		&fakeSampler{timestamps: []float64{0}},
		classifier,
		&fakeProber{result: ffmpeg.ProbeResult{Duration: 50, HasVideo: true}},
		cutter,
		dir,
		WithLogger(quietLogger()),
	)

	result, err := svc.Process(context.Background(), sourceName)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if !result.FromCache {
		t.Error("cached timestamps not used")
	}
	if classifier.calls != 0 {
		t.Error("classifier ran despite a valid artifact")
	}
	wantCuts := []clip.Interval{{Start: 0, End: 22}, {Start: 30, End: 50}}
	if len(cutter.cuts) != 2 || cutter.cuts[0] != wantCuts[0] || cutter.cuts[1] != wantCuts[1] {
		t.Errorf("cuts = %v, want %v", cutter.cuts, wantCuts)
	}
}

func TestProcessEmptyArtifactIsValid(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "birdcam_20250429_090357_timestamps.csv")
	if err := os.WriteFile(artifact, nil, 0644); err != nil {
		t.Fatal(err)
	}

	classifier := &fakeClassifier{err: errors.New("must not classify")}
	svc := NewService(
		&fakeSampler{timestamps: []float64{0}},
		classifier,
		&fakeProber{result: ffmpeg.ProbeResult{Duration: 50, HasVideo: true}},
		&fakeCutter{},
		dir,
		WithLogger(quietLogger()),
	)

	result, err := svc.Process(context.Background(), sourceName)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if !result.FromCache || len(result.Timestamps) != 0 {
		t.Errorf("empty artifact should mean no events, got cached=%v events=%v",
			result.FromCache, result.Timestamps)
	}
}

func TestProcessCorruptArtifactRedetects(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "birdcam_20250429_090357_timestamps.csv")
	if err := os.WriteFile(artifact, []byte("not-a-number\n"), 0644); err != nil {
		t.Fatal(err)
	}

	classifier := &fakeClassifier{eventIndexes: birdAt(0)}
	svc := NewService(
		&fakeSampler{timestamps: []float64{30}},
		classifier,
		&fakeProber{result: ffmpeg.ProbeResult{Duration: 60, HasVideo: true}},
		&fakeCutter{},
		dir,
		WithLogger(quietLogger()),
	)

	result, err := svc.Process(context.Background(), sourceName)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if classifier.calls == 0 {
		t.Error("corrupt artifact did not trigger re-detection")
	}
	if result.FromCache {
		t.Error("corrupt artifact reported as cache hit")
	}
	// The artifact is rewritten with the fresh detection.
	data, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "30" {
		t.Errorf("artifact = %q after re-detection", data)
	}
}

func TestProcessZeroDuration(t *testing.T) {
	svc := NewService(
		&fakeSampler{},
		&fakeClassifier{},
		&fakeProber{result: ffmpeg.ProbeResult{Duration: 0, HasVideo: true}},
		&fakeCutter{},
		t.TempDir(),
		WithLogger(quietLogger()),
	)

	result, err := svc.Process(context.Background(), sourceName)
	if err != nil {
		t.Fatalf("zero duration must not be an error, got %v", err)
	}
	if result.Outcome != catalog.OutcomeZeroDuration {
		t.Errorf("outcome = %v, want zero-duration", result.Outcome)
	}
}

func TestProcessUnprobeableSource(t *testing.T) {
	svc := NewService(
		&fakeSampler{},
		&fakeClassifier{},
		&fakeProber{err: errors.New("moov atom not found")},
		&fakeCutter{},
		t.TempDir(),
		WithLogger(quietLogger()),
	)

	result, err := svc.Process(context.Background(), sourceName)
	if err != nil {
		t.Fatalf("unprobeable source must not be an error, got %v", err)
	}
	if result.Outcome != catalog.OutcomeZeroDuration {
		t.Errorf("outcome = %v, want zero-duration", result.Outcome)
	}
}

func TestProcessBadStem(t *testing.T) {
	svc := NewService(&fakeSampler{}, &fakeClassifier{}, &fakeProber{}, &fakeCutter{},
		t.TempDir(), WithLogger(quietLogger()))

	result, err := svc.Process(context.Background(), "recording.mp4")
	if err == nil {
		t.Fatal("Process() accepted a malformed source name")
	}
	if result.Outcome != catalog.OutcomeFailed {
		t.Errorf("outcome = %v, want failed", result.Outcome)
	}
}

func TestProcessCutFailure(t *testing.T) {
	svc := NewService(
		&fakeSampler{timestamps: []float64{30}},
		&fakeClassifier{eventIndexes: birdAt(0)},
		&fakeProber{result: ffmpeg.ProbeResult{Duration: 60, HasVideo: true}},
		&fakeCutter{failOn: 1},
		t.TempDir(),
		WithLogger(quietLogger()),
	)

	result, err := svc.Process(context.Background(), sourceName)
	if err == nil {
		t.Fatal("Process() swallowed the cut failure")
	}
	if result.Outcome != catalog.OutcomeFailed {
		t.Errorf("outcome = %v, want failed", result.Outcome)
	}
}

func TestProcessClassifierFailure(t *testing.T) {
	svc := NewService(
		&fakeSampler{timestamps: []float64{0}},
		&fakeClassifier{err: errors.New("model exploded")},
		&fakeProber{result: ffmpeg.ProbeResult{Duration: 60, HasVideo: true}},
		&fakeCutter{},
		t.TempDir(),
		WithLogger(quietLogger()),
	)

	result, err := svc.Process(context.Background(), sourceName)
	if err == nil {
		t.Fatal("Process() swallowed the classifier failure")
	}
	if result.Outcome != catalog.OutcomeFailed {
		t.Errorf("outcome = %v, want failed", result.Outcome)
	}
}

func TestProcessSkipsExistingClips(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "birdcam_20250429_090357_clip_0020.mp4")
	if err := os.WriteFile(existing, []byte("previous run"), 0644); err != nil {
		t.Fatal(err)
	}

	cutter := &fakeCutter{}
	svc := NewService(
		&fakeSampler{timestamps: []float64{30}},
		&fakeClassifier{eventIndexes: birdAt(0)},
		&fakeProber{result: ffmpeg.ProbeResult{Duration: 60, HasVideo: true}},
		cutter,
		dir,
		WithLogger(quietLogger()),
	)

	result, err := svc.Process(context.Background(), sourceName)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "previous run" {
		t.Error("existing clip was overwritten")
	}
}

func TestProcessAnnotates(t *testing.T) {
	dir := t.TempDir()
	annotator := &fakeAnnotator{}
	cutter := &fakeCutter{}
	svc := NewService(
		&fakeSampler{timestamps: []float64{30}},
		&fakeClassifier{eventIndexes: birdAt(0)},
		&fakeProber{result: ffmpeg.ProbeResult{Duration: 60, HasVideo: true}},
		cutter,
		dir,
		WithAnnotator(annotator),
		WithLogger(quietLogger()),
	)

	result, err := svc.Process(context.Background(), sourceName)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(annotator.annotated) != 1 {
		t.Fatalf("annotator invoked %d times, want 1", len(annotator.annotated))
	}
	if base := filepath.Base(annotator.annotated[0]); base != "birdcam_20250429_090357_dated_tc.mp4" {
		t.Errorf("annotated name = %q", base)
	}
	// Clips are cut from the annotated copy and carry its stem.
	if base := filepath.Base(result.Clips[0]); base != "birdcam_20250429_090357_dated_tc_clip_0020.mp4" {
		t.Errorf("clip name = %q", base)
	}
	// Hour bucketing still works from the annotated clip name.
	hour, err := clip.ClockHour(filepath.Base(result.Clips[0]))
	if err != nil {
		t.Fatalf("ClockHour() error: %v", err)
	}
	if hour != 9 {
		t.Errorf("hour = %d, want 9", hour)
	}
}
