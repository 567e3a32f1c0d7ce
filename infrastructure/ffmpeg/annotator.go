package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"strings"

	"birdcam-pipeline/domain/clip"
)

// Annotator burns a date, running wall-clock timecode and a location caption
// into a recording using ffmpeg's drawtext filter. The overlay start time
// comes from the recording's filename stem.
type Annotator struct {
	ffmpegPath string
	runner     CommandRunner
	prober     *Prober
	fontFile   string
	fontSize   int
	fontColor  string
	caption    string
}

// AnnotatorOption is a functional option for configuring Annotator.
type AnnotatorOption func(*Annotator)

// WithAnnotatorFFmpegPath sets a custom ffmpeg executable path.
func WithAnnotatorFFmpegPath(path string) AnnotatorOption {
	return func(a *Annotator) {
		a.ffmpegPath = path
	}
}

// WithAnnotatorCommandRunner sets a custom command runner (for testing).
func WithAnnotatorCommandRunner(runner CommandRunner) AnnotatorOption {
	return func(a *Annotator) {
		a.runner = runner
	}
}

// WithAnnotatorProber sets a custom prober (for testing).
func WithAnnotatorProber(p *Prober) AnnotatorOption {
	return func(a *Annotator) {
		a.prober = p
	}
}

// WithAnnotatorFont sets the overlay font file, size and color.
func WithAnnotatorFont(file string, size int, color string) AnnotatorOption {
	return func(a *Annotator) {
		a.fontFile = file
		a.fontSize = size
		a.fontColor = color
	}
}

// WithAnnotatorCaption sets the static caption line.
func WithAnnotatorCaption(caption string) AnnotatorOption {
	return func(a *Annotator) {
		a.caption = caption
	}
}

// NewAnnotator creates a new ffmpeg-based overlay annotator.
func NewAnnotator(opts ...AnnotatorOption) *Annotator {
	a := &Annotator{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
		fontFile:   "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
		fontSize:   32,
		fontColor:  "white",
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.prober == nil {
		a.prober = NewProber(WithProberCommandRunner(a.runner))
	}

	return a
}

// Annotate writes the overlaid copy of sourcePath to outputPath. An existing
// output means the work is done and the call is a no-op; a failed encode
// removes its partial output.
func (a *Annotator) Annotate(ctx context.Context, sourcePath, outputPath string) (skipped bool, err error) {
	if _, err := os.Stat(outputPath); err == nil {
		return true, nil
	}

	src, err := clip.ParseSource(sourcePath)
	if err != nil {
		return false, err
	}

	probe, err := a.prober.Probe(ctx, sourcePath)
	if err != nil {
		return false, fmt.Errorf("probing %s for annotation: %w", sourcePath, err)
	}
	if !probe.HasVideo {
		return false, fmt.Errorf("no video stream in %s", sourcePath)
	}

	args := []string{
		"-i", sourcePath,
		"-vf", a.filter(src, probe.FrameRate),
		"-vcodec", "libx264",
		"-crf", "18",
		"-preset", "medium",
		"-y",
		outputPath,
	}

	if err := a.runner.Run(ctx, a.ffmpegPath, args...); err != nil {
		os.Remove(outputPath)
		return false, fmt.Errorf("ffmpeg annotate of %s failed: %w", sourcePath, err)
	}

	return false, nil
}

// filter builds the drawtext chain: static date, running timecode offset by
// the recording's start-of-day clock, and the caption.
func (a *Annotator) filter(src clip.Source, frameRate float64) string {
	dateText := src.Day.Format("2006-01-02")
	start := src.StartOfDay

	timecode := fmt.Sprintf(
		`text='%%{eif\:mod((t+%d)/3600\,24)\:d\:2}\:%%{eif\:mod((t+%d)/60\,60)\:d\:2}\:%%{eif\:mod((t+%d)\,60)\:d\:2}'`,
		start, start, start,
	)

	var lines []string
	if frameRate > 0 {
		lines = append(lines, fmt.Sprintf("fps=fps=%g", frameRate))
	}
	lines = append(lines,
		fmt.Sprintf("drawtext=fontfile=%s:text='%s':fontcolor=%s:fontsize=%d:x=100:y=h-180:box=0",
			a.fontFile, dateText, a.fontColor, a.fontSize),
		fmt.Sprintf("drawtext=fontfile=%s:%s:fontcolor=%s:fontsize=%d:x=100:y=h-140:box=0",
			a.fontFile, timecode, a.fontColor, a.fontSize),
	)
	if a.caption != "" {
		lines = append(lines, fmt.Sprintf("drawtext=fontfile=%s:text='%s':fontcolor=%s:fontsize=%d:x=100:y=h-100:box=0",
			a.fontFile, a.caption, a.fontColor, a.fontSize))
	}
	return strings.Join(lines, ",")
}
