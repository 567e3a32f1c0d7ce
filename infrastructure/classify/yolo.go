//go:build detection

package classify

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"birdcam-pipeline/domain/detect"

	"gocv.io/x/gocv"
)

// scoreFloor discards the vast majority of anchor rows before they ever
// reach the adapter; real thresholding happens in the domain filter.
const scoreFloor = 0.1

// YOLOClassifier implements detect.Classifier using a YOLO ONNX model run
// through GoCV's DNN module.
type YOLOClassifier struct {
	net       gocv.Net
	names     []string
	inputSize int
}

// YOLOClassifierOption is a functional option for configuring YOLOClassifier.
type YOLOClassifierOption func(*YOLOClassifier)

// WithInputSize sets the square input resolution the model expects.
func WithInputSize(px int) YOLOClassifierOption {
	return func(c *YOLOClassifier) {
		c.inputSize = px
	}
}

// NewYOLOClassifier loads the model and its class-name list.
func NewYOLOClassifier(modelPath, namesPath string, opts ...YOLOClassifierOption) (*YOLOClassifier, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}

	names, err := loadNames(namesPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model: %s", modelPath)
	}

	c := &YOLOClassifier{
		net:       net,
		names:     names,
		inputSize: 640,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func loadNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class names: %w", err)
	}

	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("class name file %s is empty", path)
	}
	return names, nil
}

// Classify implements detect.Classifier.
func (c *YOLOClassifier) Classify(ctx context.Context, imageData []byte) ([]detect.Detection, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	frame, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	defer frame.Close()
	if frame.Empty() {
		return nil, fmt.Errorf("decoded frame is empty")
	}

	blob := gocv.BlobFromImage(frame, 1.0/255.0,
		image.Pt(c.inputSize, c.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	c.net.SetInput(blob, "")
	output := c.net.Forward("")
	defer output.Close()

	return c.decode(output, frame.Cols(), frame.Rows())
}

// decode converts the model's [1 x rows x (5+classes)] output tensor into
// detections in source-frame pixel coordinates.
func (c *YOLOClassifier) decode(output gocv.Mat, frameW, frameH int) ([]detect.Detection, error) {
	sizes := output.Size()
	if len(sizes) != 3 {
		return nil, fmt.Errorf("unexpected model output shape %v", sizes)
	}
	rows, cols := sizes[1], sizes[2]
	if cols < 5+1 {
		return nil, fmt.Errorf("model output row too short: %d", cols)
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("reading model output: %w", err)
	}

	scaleX := float64(frameW) / float64(c.inputSize)
	scaleY := float64(frameH) / float64(c.inputSize)

	var detections []detect.Detection
	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]
		objectness := float64(row[4])
		if objectness < scoreFloor {
			continue
		}

		classID, classScore := 0, float32(0)
		for i, s := range row[5:] {
			if s > classScore {
				classID, classScore = i, s
			}
		}
		confidence := objectness * float64(classScore)
		if confidence < scoreFloor || classID >= len(c.names) {
			continue
		}

		cx, cy := float64(row[0])*scaleX, float64(row[1])*scaleY
		w, h := float64(row[2])*scaleX, float64(row[3])*scaleY

		detections = append(detections, detect.Detection{
			Label:      c.names[classID],
			Confidence: confidence,
			Box: detect.Box{
				XMin: cx - w/2,
				YMin: cy - h/2,
				XMax: cx + w/2,
				YMax: cy + h/2,
			},
		})
	}

	return detections, nil
}

// Close releases the loaded network.
func (c *YOLOClassifier) Close() error {
	return c.net.Close()
}

// Ensure YOLOClassifier implements detect.Classifier.
var _ detect.Classifier = (*YOLOClassifier)(nil)
