package rig

import (
	"strings"
	"testing"

	"github.com/teslashibe/go-bullseye/pkg/tracking"
	"github.com/teslashibe/go-bullseye/pkg/tracking/detection"
)

func TestManual_AdjustDegrees(t *testing.T) {
	m := NewManual()

	m.Adjust(1)
	if m.StepDeg != 0.6 {
		t.Errorf("Expected 0.6, got %v", m.StepDeg)
	}
	for i := 0; i < 200; i++ {
		m.Adjust(1)
	}
	if m.StepDeg != MaxStepDeg {
		t.Errorf("Expected max %v, got %v", MaxStepDeg, m.StepDeg)
	}
	for i := 0; i < 200; i++ {
		m.Adjust(-1)
	}
	if m.StepDeg != MinStepDeg {
		t.Errorf("Expected min %v, got %v", MinStepDeg, m.StepDeg)
	}
	if m.StepUS != DefaultStepUS {
		t.Errorf("Expected micro step untouched in degree mode, got %d", m.StepUS)
	}
}

func TestManual_AdjustMicros(t *testing.T) {
	m := NewManual()
	if m.ToggleMode() != StepMicros {
		t.Fatal("Expected micros mode after toggle")
	}

	m.Adjust(1)
	if m.StepUS != 15 {
		t.Errorf("Expected 15, got %d", m.StepUS)
	}
	m.Adjust(-1)
	m.Adjust(-1)
	m.Adjust(-1)
	if m.StepUS != MinStepUS {
		t.Errorf("Expected floor %d, got %d", MinStepUS, m.StepUS)
	}
	for i := 0; i < 50; i++ {
		m.Adjust(1)
	}
	if m.StepUS != MaxStepUS {
		t.Errorf("Expected ceiling %d, got %d", MaxStepUS, m.StepUS)
	}
	if m.ToggleMode() != StepDegrees {
		t.Error("Expected degrees after second toggle")
	}
}

func TestManual_Targets(t *testing.T) {
	m := NewManual()
	pose := tracking.Pose{Pan: 114, Tilt: 14, PanUS: 1633, TiltUS: 1078}

	tests := []struct {
		dir           Direction
		pan, tilt     float64
		panUS, tiltUS int
	}{
		{Up, 114, 13.5, 1633, 1068},
		{Down, 114, 14.5, 1633, 1088},
		{Left, 114.5, 14, 1643, 1078},
		{Right, 113.5, 14, 1623, 1078},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			pan, tilt := m.DegreeTarget(pose, tt.dir)
			if pan != tt.pan || tilt != tt.tilt {
				t.Errorf("DegreeTarget = (%v,%v), want (%v,%v)", pan, tilt, tt.pan, tt.tilt)
			}
			panUS, tiltUS := m.PulseTarget(pose, tt.dir)
			if panUS != tt.panUS || tiltUS != tt.tiltUS {
				t.Errorf("PulseTarget = (%d,%d), want (%d,%d)", panUS, tiltUS, tt.panUS, tt.tiltUS)
			}
		})
	}
}

func TestNudgeConfidence(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		delta int
		want  float64
	}{
		{"Up", 0.5, 1, 0.6},
		{"Down", 0.5, -1, 0.4},
		{"Ceiling", 0.9, 1, 0.9},
		{"Floor", 0.1, -1, 0.1},
		{"NoDrift", 0.3, 1, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NudgeConfidence(tt.start, tt.delta); got != tt.want {
				t.Errorf("NudgeConfidence(%v, %d) = %v, want %v", tt.start, tt.delta, got, tt.want)
			}
		})
	}
}

func TestSnapshot_Lines(t *testing.T) {
	snap := Snapshot{
		Status: tracking.Status{
			State:  tracking.StateCoasting,
			Pose:   tracking.Pose{Pan: 114, Tilt: 14, PanUS: 1633, TiltUS: 1078},
			Zoom:   1.5,
			Target: &detection.BoundingBox{Width: 80, Height: 40},
		},
		Tracking:   true,
		Mode:       StepMicros,
		StepUS:     10,
		Confidence: 0.5,
		CoastLeft:  1.2,
	}

	text := strings.Join(snap.Lines(), "\n")
	for _, want := range []string{"TRACKING (coasting)", "Step: 10 us", "Zoom: 1.50x", "Target: 80x40 px", "Coasting: 1.2s left"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in HUD:\n%s", want, text)
		}
	}
}
