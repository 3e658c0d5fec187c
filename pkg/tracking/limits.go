// Package tracking is the control core of the bullseye rig: the lock/coast/recover
// state machine, the gain-scheduled proportional law, the dead-zone lock test,
// the zoom regulator and the eased motion interpolator.
//
// This file defines the mechanical limits of the MG995 pan/tilt head.
package tracking

import "math"

// Mechanical limits of the rig as mounted.
const (
	// DefaultPanMin and DefaultPanMax bound the pan axis in degrees.
	// The servo itself only covers 0-180; the transport clamps to that.
	DefaultPanMin = 30.0
	DefaultPanMax = 290.0

	// DefaultTiltMin and DefaultTiltMax bound the tilt axis in degrees.
	DefaultTiltMin = 0.0
	DefaultTiltMax = 180.0

	// DefaultHomePan and DefaultHomeTilt is where the camera looks straight ahead.
	DefaultHomePan  = 114.0
	DefaultHomeTilt = 14.0

	// MG995 pulse range in microseconds.
	DefaultServoMinUS = 1000
	DefaultServoMaxUS = 2000

	// ServoSpanDegrees is the angular travel mapped onto the pulse range.
	ServoSpanDegrees = 180.0
)

var inf = math.Inf(1)

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
