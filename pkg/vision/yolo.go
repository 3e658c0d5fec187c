package vision

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-bullseye/internal/log"
	"github.com/teslashibe/go-bullseye/pkg/tracking/detection"
)

// ErrModelNotFound is returned when the ONNX file is missing.
var ErrModelNotFound = errors.New("vision: model file not found")

// YOLOConfig holds YOLO detector configuration
type YOLOConfig struct {
	ModelPath   string
	Labels      []string // Class names in model output order
	NMSThresh   float32
	InputWidth  int
	InputHeight int
}

// DefaultYOLOConfig returns defaults for a single-class YOLOv8 bullseye model.
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		ModelPath:   "models/bullseye.onnx",
		Labels:      []string{"bullseye"},
		NMSThresh:   0.45,
		InputWidth:  640,
		InputHeight: 640,
	}
}

// YOLODetector runs a YOLOv8 ONNX export through OpenCV DNN.
type YOLODetector struct {
	net       gocv.Net
	config    YOLOConfig
	mu        sync.Mutex
	inputSize image.Point
}

// NewYOLO loads the model.
func NewYOLO(cfg YOLOConfig) (*YOLODetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("vision: failed to load YOLO model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	log.Info("yolo model loaded", "path", cfg.ModelPath, "classes", len(cfg.Labels))

	return &YOLODetector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Detect finds objects in frame scoring at least confidence.
func (d *YOLODetector) Detect(frame gocv.Mat, confidence float64) ([]detection.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame.Empty() {
		return nil, fmt.Errorf("vision: empty frame")
	}

	blob := gocv.BlobFromImage(frame, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// YOLOv8 output: [1, 4+classes, anchors]
	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("vision: unexpected output shape %v", dims)
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("vision: read output: %w", err)
	}

	scaleX := float32(frame.Cols()) / float32(d.config.InputWidth)
	scaleY := float32(frame.Rows()) / float32(d.config.InputHeight)
	cands := decodeYOLOv8(data, dims[1], dims[2], scaleX, scaleY, float32(confidence))
	if len(cands) == 0 {
		return nil, nil
	}

	boxes := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		boxes[i] = c.rect
		scores[i] = c.score
	}

	indices := gocv.NMSBoxes(boxes, scores, float32(confidence), d.config.NMSThresh)

	out := make([]detection.Detection, 0, len(indices))
	for _, idx := range indices {
		out = append(out, cands[idx].toDetection(d.config.Labels))
	}

	log.Debug("yolo detections", "count", len(out))
	return out, nil
}

// Close releases the detector resources
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

type candidate struct {
	rect    image.Rectangle
	score   float32
	classID int
}

func (c candidate) toDetection(labels []string) detection.Detection {
	label := fmt.Sprintf("class_%d", c.classID)
	if c.classID < len(labels) {
		label = labels[c.classID]
	}
	return detection.Detection{
		Box: detection.BoundingBox{
			X:      c.rect.Min.X,
			Y:      c.rect.Min.Y,
			Width:  c.rect.Dx(),
			Height: c.rect.Dy(),
		},
		Confidence: float64(c.score),
		Label:      label,
	}
}

// decodeYOLOv8 reads the channel-major tensor: rows 0-3 are cx, cy, w, h
// in input pixels, the rest are class scores.
func decodeYOLOv8(data []float32, channels, anchors int, scaleX, scaleY, minScore float32) []candidate {
	if channels < 5 || len(data) < channels*anchors {
		return nil
	}

	var out []candidate
	for i := 0; i < anchors; i++ {
		best := float32(0)
		bestID := 0
		for c := 4; c < channels; c++ {
			if s := data[c*anchors+i]; s > best {
				best = s
				bestID = c - 4
			}
		}
		if best < minScore {
			continue
		}

		cx := data[0*anchors+i]
		cy := data[1*anchors+i]
		w := data[2*anchors+i]
		h := data[3*anchors+i]

		x1 := int((cx - w/2) * scaleX)
		y1 := int((cy - h/2) * scaleY)
		x2 := int((cx + w/2) * scaleX)
		y2 := int((cy + h/2) * scaleY)

		out = append(out, candidate{
			rect:    image.Rect(x1, y1, x2, y2),
			score:   best,
			classID: bestID,
		})
	}
	return out
}
