package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"

	"birdcam-pipeline/domain/detect"
)

// Sampler implements detect.FrameSampler by streaming mjpeg frames out of
// ffmpeg. Frames are decoded sequentially off the pipe, so the recording is
// never memory-resident.
type Sampler struct {
	ffmpegPath string
	runner     CommandRunner
	prober     *Prober
}

// SamplerOption is a functional option for configuring Sampler.
type SamplerOption func(*Sampler)

// WithSamplerFFmpegPath sets a custom ffmpeg executable path.
func WithSamplerFFmpegPath(path string) SamplerOption {
	return func(s *Sampler) {
		s.ffmpegPath = path
	}
}

// WithSamplerCommandRunner sets a custom command runner (for testing).
func WithSamplerCommandRunner(runner CommandRunner) SamplerOption {
	return func(s *Sampler) {
		s.runner = runner
	}
}

// WithSamplerProber sets a custom prober (for testing).
func WithSamplerProber(p *Prober) SamplerOption {
	return func(s *Sampler) {
		s.prober = p
	}
}

// NewSampler creates a new ffmpeg-based frame sampler.
func NewSampler(opts ...SamplerOption) *Sampler {
	s := &Sampler{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.prober == nil {
		s.prober = NewProber(WithProberCommandRunner(s.runner))
	}

	return s
}

// Sample streams one frame every period seconds to fn, in timestamp order,
// finishing with a frame adjacent to the end of the recording whether or not
// it aligns with the period. A source that cannot be opened or has no usable
// frames produces an empty sequence without error; a decode failure
// mid-stream is reported.
func (s *Sampler) Sample(ctx context.Context, videoPath string, period float64, fn func(detect.Sample) error) error {
	if period <= 0 {
		return fmt.Errorf("sampling period must be positive, got %v", period)
	}

	probe, err := s.prober.Probe(ctx, videoPath)
	if err != nil || probe.Duration == 0 || !probe.HasVideo {
		// Unopenable or frameless input is an empty sequence, not an error.
		return nil
	}

	stdout, wait, err := s.runner.Start(ctx, s.ffmpegPath,
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%g", period),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)
	if err != nil {
		return fmt.Errorf("ffmpeg frame stream failed to start: %w", err)
	}
	defer stdout.Close()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	scanner.Split(splitJPEG)

	var index int
	var lastTimestamp float64
	for scanner.Scan() {
		ts := float64(index) * period
		frame := make([]byte, len(scanner.Bytes()))
		copy(frame, scanner.Bytes())
		if err := fn(detect.Sample{Image: frame, Timestamp: ts}); err != nil {
			return err
		}
		lastTimestamp = ts
		index++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("frame stream from %s corrupted: %w", videoPath, err)
	}
	if err := wait(); err != nil {
		return fmt.Errorf("ffmpeg frame stream for %s failed: %w", videoPath, err)
	}

	// The periodic sweep can stop short of the end of the recording; grab
	// one frame off the tail so the last moments are always inspected.
	if index > 0 && probe.Duration-lastTimestamp > period {
		tail, err := s.finalFrame(ctx, videoPath)
		if err != nil {
			return err
		}
		if len(tail) > 0 {
			return fn(detect.Sample{Image: tail, Timestamp: probe.Duration})
		}
	}

	return nil
}

// finalFrame extracts a single frame from just before the end of the file.
func (s *Sampler) finalFrame(ctx context.Context, videoPath string) ([]byte, error) {
	out, err := s.runner.Output(ctx, s.ffmpegPath,
		"-sseof", "-1",
		"-i", videoPath,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)
	if err != nil {
		return nil, fmt.Errorf("final frame extraction for %s failed: %w", videoPath, err)
	}
	return out, nil
}

// splitJPEG is a bufio.SplitFunc cutting an mjpeg byte stream into whole
// JPEG images on their SOI/EOI markers.
func splitJPEG(data []byte, atEOF bool) (advance int, token []byte, err error) {
	soi := []byte{0xFF, 0xD8}
	eoi := []byte{0xFF, 0xD9}

	start := bytes.Index(data, soi)
	if start < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}

	end := bytes.Index(data[start+2:], eoi)
	if end < 0 {
		if atEOF && len(data) > start {
			return 0, nil, fmt.Errorf("truncated jpeg frame in stream")
		}
		return start, nil, nil
	}

	frameEnd := start + 2 + end + 2
	return frameEnd, data[start:frameEnd], nil
}

// Ensure Sampler implements detect.FrameSampler.
var _ detect.FrameSampler = (*Sampler)(nil)
