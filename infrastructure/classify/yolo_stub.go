//go:build !detection

package classify

import (
	"context"
	"errors"

	"birdcam-pipeline/domain/detect"
)

// YOLOClassifier is a stub when OpenCV is not available.
type YOLOClassifier struct{}

// YOLOClassifierOption is a functional option for configuring YOLOClassifier.
type YOLOClassifierOption func(*YOLOClassifier)

// WithInputSize is a no-op in stub mode.
func WithInputSize(px int) YOLOClassifierOption {
	return func(c *YOLOClassifier) {}
}

// NewYOLOClassifier creates a stub classifier (requires building with
// -tags=detection).
func NewYOLOClassifier(modelPath, namesPath string, opts ...YOLOClassifierOption) (*YOLOClassifier, error) {
	return &YOLOClassifier{}, nil
}

// Classify returns an error indicating inference is not available.
func (c *YOLOClassifier) Classify(ctx context.Context, imageData []byte) ([]detect.Detection, error) {
	return nil, errors.New("classification requires -tags=detection build with OpenCV installed")
}

// Close releases nothing in stub mode.
func (c *YOLOClassifier) Close() error { return nil }

// Ensure YOLOClassifier implements detect.Classifier.
var _ detect.Classifier = (*YOLOClassifier)(nil)
