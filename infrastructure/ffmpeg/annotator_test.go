package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAnnotatorAnnotate(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{
		"ffprobe": probeJSON(120, true, true),
	}}
	a := NewAnnotator(
		WithAnnotatorCommandRunner(runner),
		WithAnnotatorProber(NewProber(WithProberCommandRunner(runner))),
		WithAnnotatorCaption("LA County USA"),
	)

	out := filepath.Join(t.TempDir(), "birdcam_20250429_090357_dated_tc.mp4")
	skipped, err := a.Annotate(context.Background(), "birdcam_20250429_090357.mp4", out)
	if err != nil {
		t.Fatalf("Annotate() unexpected error: %v", err)
	}
	if skipped {
		t.Error("Annotate() skipped a fresh target")
	}

	call := runner.lastCall("ffmpeg")
	if call == nil {
		t.Fatal("ffmpeg never invoked")
	}
	var filter string
	for i, arg := range call {
		if arg == "-vf" && i+1 < len(call) {
			filter = call[i+1]
		}
	}
	if !strings.Contains(filter, "2025-04-29") {
		t.Errorf("filter %q missing the recording date", filter)
	}
	// 09:03:57 start clock is 32637 seconds after midnight.
	if !strings.Contains(filter, "t+32637") {
		t.Errorf("filter %q missing the start-of-day timecode offset", filter)
	}
	if !strings.Contains(filter, "LA County USA") {
		t.Errorf("filter %q missing the caption", filter)
	}
	if !strings.Contains(filter, "fps=fps=30") {
		t.Errorf("filter %q missing the frame-rate normalization", filter)
	}
}

func TestAnnotatorAnnotateIdempotent(t *testing.T) {
	runner := &fakeRunner{}
	a := NewAnnotator(WithAnnotatorCommandRunner(runner))

	out := filepath.Join(t.TempDir(), "birdcam_20250429_090357_dated_tc.mp4")
	if err := os.WriteFile(out, []byte("done"), 0644); err != nil {
		t.Fatal(err)
	}

	skipped, err := a.Annotate(context.Background(), "birdcam_20250429_090357.mp4", out)
	if err != nil {
		t.Fatalf("Annotate() unexpected error: %v", err)
	}
	if !skipped {
		t.Error("Annotate() should skip when the output exists")
	}
	if len(runner.calls) != 0 {
		t.Error("Annotate() invoked ffmpeg for an existing output")
	}
}

func TestAnnotatorAnnotateBadStem(t *testing.T) {
	a := NewAnnotator(WithAnnotatorCommandRunner(&fakeRunner{}))
	_, err := a.Annotate(context.Background(), "recording.mp4", filepath.Join(t.TempDir(), "out.mp4"))
	if err == nil {
		t.Error("Annotate() expected error for an unparseable stem")
	}
}
