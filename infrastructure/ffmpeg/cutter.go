package ffmpeg

import (
	"context"
	"fmt"
	"os"

	"birdcam-pipeline/domain/clip"
)

// Cutter extracts clip intervals from a source recording with ffmpeg.
// Clips are re-encoded so that cuts land exactly on the interval bounds and
// every clip shares parameters, which is what makes later stream-copy
// concatenation safe.
type Cutter struct {
	ffmpegPath string
	runner     CommandRunner
}

// CutterOption is a functional option for configuring Cutter.
type CutterOption func(*Cutter)

// WithCutterFFmpegPath sets a custom ffmpeg executable path.
func WithCutterFFmpegPath(path string) CutterOption {
	return func(c *Cutter) {
		c.ffmpegPath = path
	}
}

// WithCutterCommandRunner sets a custom command runner (for testing).
func WithCutterCommandRunner(runner CommandRunner) CutterOption {
	return func(c *Cutter) {
		c.runner = runner
	}
}

// NewCutter creates a new ffmpeg-based clip cutter.
func NewCutter(opts ...CutterOption) *Cutter {
	c := &Cutter{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Cut writes the interval from sourcePath to outputPath, preserving audio.
// If the target already exists the interval has been extracted before and
// the cut is skipped. A failed cut removes its partial output before
// returning so the file's existence stays a trustworthy witness.
func (c *Cutter) Cut(ctx context.Context, sourcePath string, iv clip.Interval, outputPath string) (skipped bool, err error) {
	if _, err := os.Stat(outputPath); err == nil {
		return true, nil
	}

	args := []string{
		"-ss", fmt.Sprintf("%.3f", iv.Start),
		"-to", fmt.Sprintf("%.3f", iv.End),
		"-i", sourcePath,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-y",
		outputPath,
	}

	if err := c.runner.Run(ctx, c.ffmpegPath, args...); err != nil {
		os.Remove(outputPath)
		return false, fmt.Errorf("ffmpeg cut %s of %s failed: %w", iv, sourcePath, err)
	}

	return false, nil
}

// VerifyInstalled checks that ffmpeg is available.
func (c *Cutter) VerifyInstalled(ctx context.Context) error {
	_, err := c.runner.Output(ctx, c.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}
