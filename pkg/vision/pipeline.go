package vision

import (
	"errors"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-bullseye/pkg/camera"
	"github.com/teslashibe/go-bullseye/pkg/rig"
	"github.com/teslashibe/go-bullseye/pkg/tracking"
	"github.com/teslashibe/go-bullseye/pkg/tracking/detection"
)

// Pipeline is the OpenCV camera stage of the rig: capture, software zoom,
// detection and the annotated preview.
type Pipeline struct {
	src      *camera.Source
	det      Detector
	deadZone tracking.DeadZone
	quality  int

	raw   gocv.Mat
	frame gocv.Mat
}

var _ rig.Camera = (*Pipeline)(nil)

// NewPipeline wires a capture source and a detector. The pipeline takes
// ownership of both and closes them in Close.
func NewPipeline(src *camera.Source, det Detector, dz tracking.DeadZone, quality int) *Pipeline {
	return &Pipeline{
		src:      src,
		det:      det,
		deadZone: dz,
		quality:  quality,
		raw:      gocv.NewMat(),
		frame:    gocv.NewMat(),
	}
}

// Capture reads the next frame and crops it to the zoom level.
func (p *Pipeline) Capture(zoom float64) error {
	if err := p.src.Read(&p.raw); err != nil {
		return err
	}
	camera.ApplyZoom(p.raw, &p.frame, zoom)
	return nil
}

// Detect runs the detector on the zoomed frame.
func (p *Pipeline) Detect(confidence float64) ([]detection.Detection, error) {
	if p.det == nil {
		return nil, nil
	}
	return p.det.Detect(p.frame, confidence)
}

// Render draws the overlay onto the zoomed frame and encodes it.
func (p *Pipeline) Render(snap rig.Snapshot) ([]byte, error) {
	if p.frame.Empty() {
		return nil, nil
	}
	DrawOverlay(&p.frame, p.deadZone, snap)
	return EncodeJPEG(p.frame, p.quality)
}

// Close releases the frames, the detector and the device.
func (p *Pipeline) Close() error {
	var errs []error
	if p.det != nil {
		errs = append(errs, p.det.Close())
	}
	errs = append(errs, p.src.Close(), p.raw.Close(), p.frame.Close())
	return errors.Join(errs...)
}
