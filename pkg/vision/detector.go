// Package vision holds the OpenCV-backed collaborators of the tracker:
// the YOLO detector, the operator overlay and the rig camera pipeline.
package vision

import (
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-bullseye/pkg/tracking/detection"
)

// Detector proposes target boxes for a frame.
// Boxes are in the pixel space of the frame passed in.
type Detector interface {
	Detect(frame gocv.Mat, confidence float64) ([]detection.Detection, error)
	Close() error
}
