package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ProbeResult describes a media file as reported by ffprobe.
type ProbeResult struct {
	Duration  float64
	HasVideo  bool
	HasAudio  bool
	FrameRate float64
}

// Prober reads media metadata through ffprobe.
type Prober struct {
	ffprobePath string
	runner      CommandRunner
}

// ProberOption is a functional option for configuring Prober.
type ProberOption func(*Prober)

// WithProberFFprobePath sets a custom ffprobe executable path.
func WithProberFFprobePath(path string) ProberOption {
	return func(p *Prober) {
		p.ffprobePath = path
	}
}

// WithProberCommandRunner sets a custom command runner (for testing).
func WithProberCommandRunner(runner CommandRunner) ProberOption {
	return func(p *Prober) {
		p.runner = runner
	}
}

// NewProber creates a new ffprobe-based prober.
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		ffprobePath: "ffprobe",
		runner:      &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// Probe returns the duration and stream layout of a media file.
func (p *Prober) Probe(ctx context.Context, path string) (ProbeResult, error) {
	out, err := p.runner.Output(ctx, p.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var raw probeOutput
	if err := json.Unmarshal(out, &raw); err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe output for %s unparseable: %w", path, err)
	}

	result := ProbeResult{}
	if raw.Format.Duration != "" {
		result.Duration, err = strconv.ParseFloat(raw.Format.Duration, 64)
		if err != nil {
			return ProbeResult{}, fmt.Errorf("ffprobe duration %q unparseable: %w", raw.Format.Duration, err)
		}
	}

	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			result.HasVideo = true
			if rate, ok := parseFrameRate(s.RFrameRate); ok {
				result.FrameRate = rate
			}
		case "audio":
			result.HasAudio = true
		}
	}

	return result, nil
}

// parseFrameRate converts ffprobe's rational rate ("30000/1001") to a float.
func parseFrameRate(s string) (float64, bool) {
	num, den, found := strings.Cut(s, "/")
	if !found {
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}
