package tracking

import (
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-bullseye/pkg/tracking/detection"
)

// GainBand scales the proportional law for targets closer than MaxDistance pixels.
// Bands are evaluated in order; the last band should have MaxDistance = +Inf.
type GainBand struct {
	MaxDistance float64 // Upper bound (exclusive) of the pixel distance
	Gain        float64 // Multiplier applied to the sensitivity
	Step        float64 // Multiplier applied to the final delta
}

// Config holds all tunable parameters for bullseye tracking.
// It is read-only once a session has been created.
type Config struct {
	// Frame geometry
	FrameWidth  int // Pixels
	FrameHeight int // Pixels

	// Dead zone
	DeadZoneRadius int // Radius of the virtual circle at the frame center (pixels)

	// Zoom regulation
	ZoomMin          float64
	ZoomMax          float64
	ZoomStep         float64 // Automatic step per frame
	ManualZoomStep   float64 // Operator +/- step
	ZoomInThreshold  float64 // Zoom in when size ratio is above this
	ZoomOutThreshold float64 // Zoom out when size ratio is below this

	// Proportional law
	BaseSensitivity   float64    // Degrees per pixel at zoom 1.0
	GainBands         []GainBand // Distance-indexed gain schedule
	MinCommandDegrees float64    // Deltas below this are snapped to zero
	CenterTolerance   int        // Pixels; error within this on both axes is "converged"

	// Timing
	MoveInterval  time.Duration // Minimum time between acquisition moves
	CoastDuration time.Duration // Keep steering to the last known center this long
	LossTimeout   time.Duration // Return home after no detection for this long

	// Pose limits (degrees)
	PanMin  float64
	PanMax  float64
	TiltMin float64
	TiltMax float64

	// Home pose (degrees)
	HomePan  float64
	HomeTilt float64

	// Servo pulse range (microseconds)
	ServoMinUS int
	ServoMaxUS int
}

// DefaultConfig returns the configuration tuned for the MG995 rig at 1280x720.
func DefaultConfig() Config {
	return Config{
		FrameWidth:  1280,
		FrameHeight: 720,

		DeadZoneRadius: 20,

		ZoomMin:          1.0,
		ZoomMax:          5.0,
		ZoomStep:         0.05,
		ManualZoomStep:   0.1,
		ZoomInThreshold:  0.55,
		ZoomOutThreshold: 0.302,

		BaseSensitivity:   0.008,
		GainBands:         DefaultGainBands(),
		MinCommandDegrees: 0.05,
		CenterTolerance:   5,

		MoveInterval:  200 * time.Millisecond,
		CoastDuration: 3 * time.Second,
		LossTimeout:   5 * time.Second,

		PanMin:  DefaultPanMin,
		PanMax:  DefaultPanMax,
		TiltMin: DefaultTiltMin,
		TiltMax: DefaultTiltMax,

		HomePan:  DefaultHomePan,
		HomeTilt: DefaultHomeTilt,

		ServoMinUS: DefaultServoMinUS,
		ServoMaxUS: DefaultServoMaxUS,
	}
}

// DefaultGainBands returns the four-band schedule: fine when close, fast when far.
func DefaultGainBands() []GainBand {
	return []GainBand{
		{MaxDistance: 20, Gain: 0.3, Step: 0.2},
		{MaxDistance: 50, Gain: 0.5, Step: 0.5},
		{MaxDistance: 100, Gain: 0.8, Step: 1.0},
		{MaxDistance: inf, Gain: 1.2, Step: 1.5},
	}
}

// SlowConfig returns a configuration for gentler acquisition.
func SlowConfig() Config {
	cfg := DefaultConfig()
	cfg.MoveInterval = 400 * time.Millisecond
	cfg.BaseSensitivity = 0.005
	return cfg
}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("tracking: invalid config")

// Validate checks the invariants the control core relies on.
func (c Config) Validate() error {
	var problems []string

	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		problems = append(problems, "frame size must be positive")
	}
	if c.DeadZoneRadius <= 0 {
		problems = append(problems, "dead zone radius must be positive")
	}
	if c.ZoomMin <= 0 || c.ZoomMin > c.ZoomMax {
		problems = append(problems, "zoom range must satisfy 0 < min <= max")
	}
	if c.ZoomOutThreshold >= c.ZoomInThreshold {
		problems = append(problems, "zoom out threshold must be below zoom in threshold")
	}
	if c.BaseSensitivity <= 0 {
		problems = append(problems, "base sensitivity must be positive")
	}
	if len(c.GainBands) == 0 {
		problems = append(problems, "at least one gain band is required")
	}
	for i := 1; i < len(c.GainBands); i++ {
		if c.GainBands[i].MaxDistance <= c.GainBands[i-1].MaxDistance {
			problems = append(problems, "gain bands must be sorted by distance")
			break
		}
	}
	if c.PanMin > c.PanMax || c.TiltMin > c.TiltMax {
		problems = append(problems, "pose limits are inverted")
	}
	if c.ServoMinUS >= c.ServoMaxUS {
		problems = append(problems, "servo pulse range is empty")
	}
	if c.MoveInterval <= 0 || c.CoastDuration <= 0 || c.LossTimeout <= 0 {
		problems = append(problems, "timings must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, problems)
	}
	return nil
}

// FrameCenter returns the integer pixel center of the frame.
func (c Config) FrameCenter() detection.Point {
	return detection.Point{X: c.FrameWidth / 2, Y: c.FrameHeight / 2}
}
