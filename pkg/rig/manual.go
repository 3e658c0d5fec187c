package rig

import (
	"math"

	"github.com/teslashibe/go-bullseye/pkg/tracking"
)

// Manual step limits.
const (
	DefaultStepDeg   = 0.5
	MinStepDeg       = 0.1
	MaxStepDeg       = 10.0
	StepDegIncrement = 0.1

	DefaultStepUS   = 10
	MinStepUS       = 1
	MaxStepUS       = 100
	StepUSIncrement = 5

	ConfidenceStep = 0.1
)

// Direction is a manual nudge direction.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// ParseDirection accepts w/s/a/d or the direction name.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "w", "up":
		return Up, true
	case "s", "down":
		return Down, true
	case "a", "left":
		return Left, true
	case "d", "right":
		return Right, true
	}
	return 0, false
}

// StepMode selects the unit of manual nudges.
type StepMode int

const (
	StepDegrees StepMode = iota
	StepMicros
)

func (m StepMode) String() string {
	if m == StepMicros {
		return "micros"
	}
	return "degrees"
}

// MarshalText lets StepMode appear as a string in JSON.
func (m StepMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Manual holds the operator's step settings.
type Manual struct {
	Mode    StepMode
	StepDeg float64
	StepUS  int
}

// NewManual returns degree mode with the default steps.
func NewManual() Manual {
	return Manual{Mode: StepDegrees, StepDeg: DefaultStepDeg, StepUS: DefaultStepUS}
}

// ToggleMode switches between degree and microsecond steps.
func (m *Manual) ToggleMode() StepMode {
	if m.Mode == StepDegrees {
		m.Mode = StepMicros
	} else {
		m.Mode = StepDegrees
	}
	return m.Mode
}

// Adjust grows (delta > 0) or shrinks the step of the active mode.
func (m *Manual) Adjust(delta int) {
	if delta == 0 {
		return
	}
	sign := 1
	if delta < 0 {
		sign = -1
	}

	if m.Mode == StepMicros {
		m.StepUS = min(MaxStepUS, max(MinStepUS, m.StepUS+sign*StepUSIncrement))
		return
	}
	step := m.StepDeg + float64(sign)*StepDegIncrement
	m.StepDeg = math.Min(MaxStepDeg, math.Max(MinStepDeg, roundTenth(step)))
}

// DegreeTarget applies one degree nudge to pose.
// Up lowers tilt; left raises pan because the pan axis is mounted inverted.
func (m Manual) DegreeTarget(pose tracking.Pose, dir Direction) (pan, tilt float64) {
	pan, tilt = pose.Pan, pose.Tilt
	switch dir {
	case Up:
		tilt -= m.StepDeg
	case Down:
		tilt += m.StepDeg
	case Left:
		pan += m.StepDeg
	case Right:
		pan -= m.StepDeg
	}
	return pan, tilt
}

// PulseTarget applies one microsecond nudge to pose.
func (m Manual) PulseTarget(pose tracking.Pose, dir Direction) (panUS, tiltUS int) {
	panUS, tiltUS = pose.PanUS, pose.TiltUS
	switch dir {
	case Up:
		tiltUS -= m.StepUS
	case Down:
		tiltUS += m.StepUS
	case Left:
		panUS += m.StepUS
	case Right:
		panUS -= m.StepUS
	}
	return panUS, tiltUS
}

// NudgeConfidence moves c by one step in the sign of delta, within bounds.
func NudgeConfidence(c float64, delta int) float64 {
	switch {
	case delta > 0:
		c += ConfidenceStep
	case delta < 0:
		c -= ConfidenceStep
	}
	return math.Min(MaxConfidence, math.Max(MinConfidence, roundTenth(c)))
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
