package detect

import (
	"context"
	"math"
)

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// Width returns the box width in pixels.
func (b Box) Width() float64 { return b.XMax - b.XMin }

// Height returns the box height in pixels.
func (b Box) Height() float64 { return b.YMax - b.YMin }

// AspectRatio returns width divided by height.
func (b Box) AspectRatio() float64 { return b.Width() / b.Height() }

// Degenerate reports whether the box cannot describe a real object: any
// non-finite coordinate, or a non-positive width or height.
func (b Box) Degenerate() bool {
	for _, v := range []float64{b.XMin, b.YMin, b.XMax, b.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return b.Width() <= 0 || b.Height() <= 0
}

// Detection is one raw classifier result for a single frame.
type Detection struct {
	Label      string
	Confidence float64
	Box        Box
}

// Sample is one decoded frame paired with its position in the recording.
// Samples are ephemeral: they live only for the trip from the sampler to the
// classifier and are never persisted.
type Sample struct {
	Image     []byte // encoded JPEG frame
	Timestamp float64
}

// Classifier is the opaque inference boundary. Implementations return every
// raw detection for a frame; filtering is the adapter's job, not theirs.
type Classifier interface {
	Classify(ctx context.Context, image []byte) ([]Detection, error)
	Close() error
}

// FrameSampler produces a lazy, finite sequence of samples from a recording
// at a fixed period, always including a sample at or adjacent to the final
// frame. An unreadable or frameless source yields an empty sequence without
// error; decode corruption mid-stream is a hard failure.
type FrameSampler interface {
	Sample(ctx context.Context, videoPath string, period float64, fn func(Sample) error) error
}
