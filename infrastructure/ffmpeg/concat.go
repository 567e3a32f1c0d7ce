package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Concatenator joins ordered clips into one combined file via the concat
// demuxer with stream copy, so no re-encode happens and quality is
// preserved.
type Concatenator struct {
	ffmpegPath string
	runner     CommandRunner
}

// ConcatenatorOption is a functional option for configuring Concatenator.
type ConcatenatorOption func(*Concatenator)

// WithConcatFFmpegPath sets a custom ffmpeg executable path.
func WithConcatFFmpegPath(path string) ConcatenatorOption {
	return func(c *Concatenator) {
		c.ffmpegPath = path
	}
}

// WithConcatCommandRunner sets a custom command runner (for testing).
func WithConcatCommandRunner(runner CommandRunner) ConcatenatorOption {
	return func(c *Concatenator) {
		c.runner = runner
	}
}

// NewConcatenator creates a new ffmpeg-based concatenator.
func NewConcatenator(opts ...ConcatenatorOption) *Concatenator {
	c := &Concatenator{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Concat joins files in the given order into outputPath. trimFirst seconds
// are dropped from the head of the first clip only, cutting the leading
// artifact frame this capture hardware produces. On failure any partially
// written output is deleted so a later existence check cannot mistake it for
// a finished artifact.
func (c *Concatenator) Concat(ctx context.Context, files []string, trimFirst float64, outputPath string) error {
	if len(files) == 0 {
		return fmt.Errorf("no clips to concatenate into %s", outputPath)
	}

	listPath, err := c.writeList(files, trimFirst, outputPath)
	if err != nil {
		return err
	}
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath,
	}

	if err := c.runner.Run(ctx, c.ffmpegPath, args...); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("ffmpeg concat into %s failed: %w", outputPath, err)
	}

	return nil
}

// writeList writes the concat demuxer edit list next to the output file.
func (c *Concatenator) writeList(files []string, trimFirst float64, outputPath string) (string, error) {
	var b strings.Builder
	for i, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return "", fmt.Errorf("resolving clip path %s: %w", f, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
		if i == 0 && trimFirst > 0 {
			fmt.Fprintf(&b, "inpoint %.3f\n", trimFirst)
		}
	}

	listPath := outputPath + ".list.txt"
	if err := os.WriteFile(listPath, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("writing concat list %s: %w", listPath, err)
	}
	return listPath, nil
}
