package tracking

import "github.com/teslashibe/go-bullseye/pkg/tracking/detection"

// DeadZone is the fixed-radius virtual circle at the frame center.
// A target is locked when this circle fits inside its bounding box.
type DeadZone struct {
	Center detection.Point
	Radius int
}

// NewDeadZone builds the dead zone for the configured frame.
func NewDeadZone(cfg Config) DeadZone {
	return DeadZone{
		Center: cfg.FrameCenter(),
		Radius: cfg.DeadZoneRadius,
	}
}

// InsideTarget reports whether the circle is contained in box.
// Only the four cardinal extrema of the circle are tested against the box edges.
func (z DeadZone) InsideTarget(box detection.BoundingBox) bool {
	left := z.Center.X - z.Radius
	right := z.Center.X + z.Radius
	top := z.Center.Y - z.Radius
	bottom := z.Center.Y + z.Radius

	return left >= box.X && right <= box.Right() &&
		top >= box.Y && bottom <= box.Bottom()
}

// SizeRatio returns the dead zone diameter over the box's larger side.
// Smaller means a bigger target. An empty box yields +Inf.
func (z DeadZone) SizeRatio(box detection.BoundingBox) float64 {
	size := box.Size()
	if size <= 0 {
		return inf
	}
	return float64(2*z.Radius) / float64(size)
}
