package tracking

import "testing"

func TestZoomRegulator_Hysteresis(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name   string
		start  float64
		ratio  float64
		want   float64
		change ZoomChange
	}{
		{"SmallTargetZoomsIn", 1.0, 0.8, 1.05, ZoomIn},
		{"LargeTargetZoomsOut", 2.0, 0.01, 1.95, ZoomOut},
		{"InBandAtUpper", 2.0, 0.55, 2.0, ZoomHold},
		{"InBandAtLower", 2.0, 0.302, 2.0, ZoomHold},
		{"InBandMiddle", 2.0, 0.4, 2.0, ZoomHold},
		{"ClampedAtMax", 5.0, 0.9, 5.0, ZoomIn},
		{"ClampedAtMin", 1.0, 0.01, 1.0, ZoomOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := NewZoomRegulator(cfg)
			z.level = tt.start

			change := z.Update(tt.ratio)
			if !floatEquals(z.Level(), tt.want, 1e-9) {
				t.Errorf("Expected zoom %v, got %v", tt.want, z.Level())
			}
			if change != tt.change {
				t.Errorf("Expected change %v, got %v", tt.change, change)
			}
		})
	}
}

func TestZoomRegulator_AlwaysWithinRange(t *testing.T) {
	cfg := DefaultConfig()
	z := NewZoomRegulator(cfg)

	for i := 0; i < 200; i++ {
		z.Update(10)
		if z.Level() > cfg.ZoomMax {
			t.Fatalf("Zoom %v exceeds max", z.Level())
		}
	}
	for i := 0; i < 200; i++ {
		z.Update(0)
		if z.Level() < cfg.ZoomMin {
			t.Fatalf("Zoom %v below min", z.Level())
		}
	}
}

func TestZoomRegulator_NudgeAndReset(t *testing.T) {
	z := NewZoomRegulator(DefaultConfig())

	if got := z.Nudge(1); !floatEquals(got, 1.1, 1e-9) {
		t.Errorf("Expected 1.1 after nudge in, got %v", got)
	}
	if got := z.Nudge(-1); !floatEquals(got, 1.0, 1e-9) {
		t.Errorf("Expected 1.0 after nudge out, got %v", got)
	}
	if got := z.Nudge(-1); got != 1.0 {
		t.Errorf("Expected nudge out clamped at 1.0, got %v", got)
	}

	z.Nudge(1)
	z.Reset()
	if z.Level() != 1.0 {
		t.Errorf("Expected 1.0 after reset, got %v", z.Level())
	}
}
