// Package detection holds the detector-facing types of the tracking core:
// pixel bounding boxes, candidate detections and target selection.
// It has no inference dependencies; backends live in pkg/vision.
package detection

import "strings"

// Point is an integer pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// BoundingBox is an axis-aligned box in pixel units.
type BoundingBox struct {
	X      int `json:"x"` // Top-left corner
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the integer center of the box.
func (b BoundingBox) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// Size returns the larger side of the box.
func (b BoundingBox) Size() int {
	if b.Width > b.Height {
		return b.Width
	}
	return b.Height
}

// Right returns the x coordinate of the right edge.
func (b BoundingBox) Right() int {
	return b.X + b.Width
}

// Bottom returns the y coordinate of the bottom edge.
func (b BoundingBox) Bottom() int {
	return b.Y + b.Height
}

// Detection represents one candidate target in a frame.
type Detection struct {
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"` // 0-1
	Label      string      `json:"label"`      // Class name reported by the model
}

// Center returns the center of the detection's box.
func (d Detection) Center() Point {
	return d.Box.Center()
}

// Size returns max(width, height) of the detection's box.
func (d Detection) Size() int {
	return d.Box.Size()
}

// SelectPrimary picks the largest detection by Size.
// Ties go to the detection that appears first in dets.
func SelectPrimary(dets []Detection) *Detection {
	if len(dets) == 0 {
		return nil
	}

	best := &dets[0]
	for i := 1; i < len(dets); i++ {
		if dets[i].Size() > best.Size() {
			best = &dets[i]
		}
	}
	return best
}

// ClassFilter decides whether a detector label is the tracked target class.
type ClassFilter func(label string) bool

// MatchClass returns a filter accepting labels equal to name (case-insensitive)
// or containing it as a substring. A blank name matches nothing.
func MatchClass(name string) ClassFilter {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return func(string) bool { return false }
	}
	return func(label string) bool {
		l := strings.ToLower(label)
		return l == want || strings.Contains(l, want)
	}
}

// Filter returns the detections accepted by keep, preserving order.
func Filter(dets []Detection, keep ClassFilter) []Detection {
	if keep == nil {
		return dets
	}
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if keep(d.Label) {
			out = append(out, d)
		}
	}
	return out
}
