package rig

import (
	"fmt"

	"github.com/teslashibe/go-bullseye/pkg/tracking"
)

// Snapshot is the session status plus the operator settings.
// It is what the dashboard, the overlay and the status command show.
type Snapshot struct {
	tracking.Status

	Tracking   bool     `json:"tracking"`
	Mode       StepMode `json:"mode"`
	StepDeg    float64  `json:"step_deg"`
	StepUS     int      `json:"step_us"`
	Confidence float64  `json:"confidence"`
	CoastLeft  float64  `json:"coast_left_s,omitempty"`
}

// Lines returns the HUD text, one entry per line.
func (s Snapshot) Lines() []string {
	mode := "MANUAL"
	if s.Tracking {
		mode = "TRACKING"
	}

	step := fmt.Sprintf("Step: %.2f deg", s.StepDeg)
	if s.Mode == StepMicros {
		step = fmt.Sprintf("Step: %d us", s.StepUS)
	}

	lines := []string{
		fmt.Sprintf("Mode: %s (%s)", mode, s.State),
		fmt.Sprintf("Pan: %.2f deg (%dus)", s.Pose.Pan, s.Pose.PanUS),
		fmt.Sprintf("Tilt: %.2f deg (%dus)", s.Pose.Tilt, s.Pose.TiltUS),
		step,
		fmt.Sprintf("Zoom: %.2fx", s.Zoom),
		fmt.Sprintf("Confidence: %.1f", s.Confidence),
	}
	if s.Target != nil {
		lines = append(lines, fmt.Sprintf("Target: %dx%d px", s.Target.Width, s.Target.Height))
	}
	if s.CoastLeft > 0 {
		lines = append(lines, fmt.Sprintf("Coasting: %.1fs left", s.CoastLeft))
	}
	return lines
}
