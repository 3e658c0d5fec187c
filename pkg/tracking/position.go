package tracking

import (
	"fmt"
	"math"
)

// Pose is the actuator position in both representations.
// Pan/Tilt are degrees; PanUS/TiltUS are servo pulse widths in microseconds.
type Pose struct {
	Pan    float64 `json:"pan"`
	Tilt   float64 `json:"tilt"`
	PanUS  int     `json:"pan_us"`
	TiltUS int     `json:"tilt_us"`
}

func (p Pose) String() string {
	return fmt.Sprintf("pan=%.2f° (%dµs) tilt=%.2f° (%dµs)", p.Pan, p.PanUS, p.Tilt, p.TiltUS)
}

// Reported is a position reported back by the actuator.
// Nil fields were absent from the reply.
type Reported struct {
	Pan    *float64 `json:"pan,omitempty"`
	Tilt   *float64 `json:"tilt,omitempty"`
	PanUS  *int     `json:"pan_us,omitempty"`
	TiltUS *int     `json:"tilt_us,omitempty"`
}

// Empty reports whether the actuator sent no position at all.
func (r Reported) Empty() bool {
	return r.Pan == nil && r.Tilt == nil && r.PanUS == nil && r.TiltUS == nil
}

// PositionModel owns the current pose and keeps degrees and pulses consistent.
// Only the clamped setters mutate it. It performs no I/O.
type PositionModel struct {
	panMin, panMax   float64
	tiltMin, tiltMax float64
	minUS, maxUS     int

	pose Pose
}

// NewPositionModel creates a model at the configured home pose.
func NewPositionModel(cfg Config) *PositionModel {
	m := &PositionModel{
		panMin:  cfg.PanMin,
		panMax:  cfg.PanMax,
		tiltMin: cfg.TiltMin,
		tiltMax: cfg.TiltMax,
		minUS:   cfg.ServoMinUS,
		maxUS:   cfg.ServoMaxUS,
	}
	m.SetPose(cfg.HomePan, cfg.HomeTilt)
	return m
}

// Pose returns the current pose.
func (m *PositionModel) Pose() Pose {
	return m.pose
}

// DegreesToMicros converts an angle to a pulse width.
// The angle is clamped to the servo's 0-180° travel first.
func (m *PositionModel) DegreesToMicros(deg float64) int {
	deg = clamp(deg, 0, ServoSpanDegrees)
	return m.minUS + int(math.Round(deg/ServoSpanDegrees*float64(m.maxUS-m.minUS)))
}

// MicrosToDegrees converts a pulse width to an angle.
// The pulse is clamped to the servo range first.
func (m *PositionModel) MicrosToDegrees(us int) float64 {
	us = clampInt(us, m.minUS, m.maxUS)
	return float64(us-m.minUS) / float64(m.maxUS-m.minUS) * ServoSpanDegrees
}

// Clamp limits a degree pair to the axis limits without changing the pose.
func (m *PositionModel) Clamp(panDeg, tiltDeg float64) (float64, float64) {
	return clamp(panDeg, m.panMin, m.panMax), clamp(tiltDeg, m.tiltMin, m.tiltMax)
}

// SetPose sets the pose from degrees, clamping both axes to their limits.
func (m *PositionModel) SetPose(panDeg, tiltDeg float64) Pose {
	pan, tilt := m.Clamp(panDeg, tiltDeg)

	m.pose = Pose{
		Pan:    pan,
		Tilt:   tilt,
		PanUS:  m.DegreesToMicros(pan),
		TiltUS: m.DegreesToMicros(tilt),
	}
	return m.pose
}

// SetPulse sets the pose from pulse widths. Pulses are clamped to the servo
// range, then to the pulse image of each axis' degree limits.
func (m *PositionModel) SetPulse(panUS, tiltUS int) Pose {
	panUS = m.clampAxisPulse(panUS, m.panMin, m.panMax)
	tiltUS = m.clampAxisPulse(tiltUS, m.tiltMin, m.tiltMax)

	m.pose = Pose{
		Pan:    m.MicrosToDegrees(panUS),
		Tilt:   m.MicrosToDegrees(tiltUS),
		PanUS:  panUS,
		TiltUS: tiltUS,
	}
	return m.pose
}

func (m *PositionModel) clampAxisPulse(us int, minDeg, maxDeg float64) int {
	us = clampInt(us, m.minUS, m.maxUS)

	span := float64(m.maxUS - m.minUS)
	lo := m.minUS + int(math.Ceil(clamp(minDeg, 0, ServoSpanDegrees)/ServoSpanDegrees*span))
	hi := m.minUS + int(math.Floor(clamp(maxDeg, 0, ServoSpanDegrees)/ServoSpanDegrees*span))
	if lo > hi {
		return us
	}
	return clampInt(us, lo, hi)
}

// Apply overwrites the local pose with whatever the actuator reported.
// A representation missing from the report is recomputed from the one present.
func (m *PositionModel) Apply(r Reported) Pose {
	m.pose.Pan, m.pose.PanUS = m.applyAxis(m.pose.Pan, m.pose.PanUS, r.Pan, r.PanUS)
	m.pose.Tilt, m.pose.TiltUS = m.applyAxis(m.pose.Tilt, m.pose.TiltUS, r.Tilt, r.TiltUS)
	return m.pose
}

func (m *PositionModel) applyAxis(deg float64, us int, rDeg *float64, rUS *int) (float64, int) {
	switch {
	case rDeg != nil && rUS != nil:
		return *rDeg, *rUS
	case rDeg != nil:
		return *rDeg, m.DegreesToMicros(*rDeg)
	case rUS != nil:
		return m.MicrosToDegrees(*rUS), *rUS
	default:
		return deg, us
	}
}
