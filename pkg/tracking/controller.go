package tracking

import (
	"math"

	"github.com/teslashibe/go-bullseye/pkg/tracking/detection"
)

// ProportionalTracker turns pixel error into pan/tilt deltas.
// It is memoryless: no integral or derivative terms, only distance-banded gains.
type ProportionalTracker struct {
	// Gains
	BaseSensitivity float64    // Degrees per pixel at zoom 1.0
	Bands           []GainBand // Distance-indexed gain schedule

	// Dead band
	MinCommand float64 // Deltas smaller than this (degrees) are dropped

	// Convergence
	Tolerance int // Pixels
}

// NewProportionalTracker creates a tracker from the config's gain schedule.
func NewProportionalTracker(config Config) *ProportionalTracker {
	return &ProportionalTracker{
		BaseSensitivity: config.BaseSensitivity,
		Bands:           config.GainBands,
		MinCommand:      config.MinCommandDegrees,
		Tolerance:       config.CenterTolerance,
	}
}

// Band returns the gain band for a pixel distance.
func (c *ProportionalTracker) Band(distance float64) GainBand {
	for _, b := range c.Bands {
		if distance < b.MaxDistance {
			return b
		}
	}
	return c.Bands[len(c.Bands)-1]
}

// ComputeDelta returns the angular deltas that would bring center onto
// frameCenter, and whether the error is already within tolerance.
func (c *ProportionalTracker) ComputeDelta(center, frameCenter detection.Point, zoom float64) (panDelta, tiltDelta float64, converged bool) {
	diff := center.Sub(frameCenter)
	dx, dy := float64(diff.X), float64(diff.Y)

	distance := math.Sqrt(dx*dx + dy*dy)

	if zoom <= 0 {
		zoom = 1
	}
	band := c.Band(distance)
	sensitivity := c.BaseSensitivity / zoom * band.Gain

	panDelta = dx * sensitivity * band.Step
	tiltDelta = dy * sensitivity * band.Step

	// Dead band: sub-threshold moves only make the servo jitter
	if math.Abs(panDelta) < c.MinCommand {
		panDelta = 0
	}
	if math.Abs(tiltDelta) < c.MinCommand {
		tiltDelta = 0
	}

	return panDelta, tiltDelta, c.Centered(center, frameCenter)
}

// Centered reports whether the error is within tolerance on both axes.
func (c *ProportionalTracker) Centered(center, frameCenter detection.Point) bool {
	diff := center.Sub(frameCenter)
	return absInt(diff.X) < c.Tolerance && absInt(diff.Y) < c.Tolerance
}

// Track computes the delta and moves the position model.
// Pan is inverted relative to pixel x; tilt follows pixel y.
func (c *ProportionalTracker) Track(center, frameCenter detection.Point, zoom float64, pos *PositionModel) (Pose, bool) {
	panDelta, tiltDelta, converged := c.ComputeDelta(center, frameCenter, zoom)

	current := pos.Pose()
	next := pos.SetPose(current.Pan-panDelta, current.Tilt+tiltDelta)

	return next, converged
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
