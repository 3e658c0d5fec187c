package tracking

import (
	"math"
	"testing"
)

func TestPositionModel_StartsAtHome(t *testing.T) {
	cfg := DefaultConfig()
	m := NewPositionModel(cfg)

	p := m.Pose()
	if p.Pan != 114 || p.Tilt != 14 {
		t.Errorf("Expected home 114/14, got %v/%v", p.Pan, p.Tilt)
	}
	if p.PanUS != m.DegreesToMicros(114) || p.TiltUS != m.DegreesToMicros(14) {
		t.Errorf("Expected pulses consistent with home, got %d/%d", p.PanUS, p.TiltUS)
	}
}

func TestPositionModel_DegreesToMicros(t *testing.T) {
	m := NewPositionModel(DefaultConfig())

	tests := []struct {
		deg  float64
		want int
	}{
		{0, 1000},
		{90, 1500},
		{180, 2000},
		{-10, 1000},
		{250, 2000},
		{114, 1633},
	}
	for _, tt := range tests {
		if got := m.DegreesToMicros(tt.deg); got != tt.want {
			t.Errorf("DegreesToMicros(%v) = %d, want %d", tt.deg, got, tt.want)
		}
	}
}

func TestPositionModel_ConversionsAreInverse(t *testing.T) {
	m := NewPositionModel(DefaultConfig())

	for deg := 0.0; deg <= 180; deg += 0.37 {
		back := m.MicrosToDegrees(m.DegreesToMicros(deg))
		if math.Abs(back-deg) > 0.1 {
			t.Fatalf("deg %v -> %v after round trip", deg, back)
		}
	}
	for us := 1000; us <= 2000; us += 7 {
		back := m.DegreesToMicros(m.MicrosToDegrees(us))
		if back < us-1 || back > us+1 {
			t.Fatalf("us %d -> %d after round trip", us, back)
		}
	}
}

func TestPositionModel_SetPoseClamps(t *testing.T) {
	cfg := DefaultConfig()
	m := NewPositionModel(cfg)

	p := m.SetPose(500, -20)
	if p.Pan != cfg.PanMax || p.Tilt != cfg.TiltMin {
		t.Errorf("Expected clamped (%v,%v), got (%v,%v)", cfg.PanMax, cfg.TiltMin, p.Pan, p.Tilt)
	}
	// Pan max is beyond servo travel; pulse saturates at the servo limit
	if p.PanUS != cfg.ServoMaxUS {
		t.Errorf("Expected PanUS=%d, got %d", cfg.ServoMaxUS, p.PanUS)
	}
	if p.TiltUS != cfg.ServoMinUS {
		t.Errorf("Expected TiltUS=%d, got %d", cfg.ServoMinUS, p.TiltUS)
	}
}

func TestPositionModel_SetPulse(t *testing.T) {
	cfg := DefaultConfig()
	m := NewPositionModel(cfg)

	p := m.SetPulse(1500, 1100)
	if p.PanUS != 1500 || p.TiltUS != 1100 {
		t.Errorf("Expected pulses 1500/1100, got %d/%d", p.PanUS, p.TiltUS)
	}
	if !floatEquals(p.Pan, 90, 1e-9) || !floatEquals(p.Tilt, 18, 1e-9) {
		t.Errorf("Expected 90/18 degrees, got %v/%v", p.Pan, p.Tilt)
	}

	p = m.SetPulse(3000, 200)
	if p.PanUS != cfg.ServoMaxUS || p.TiltUS != cfg.ServoMinUS {
		t.Errorf("Expected pulses clamped to servo range, got %d/%d", p.PanUS, p.TiltUS)
	}
}

func TestPositionModel_SetPulseHonoursPanMinimum(t *testing.T) {
	cfg := DefaultConfig()
	m := NewPositionModel(cfg)

	// 1000us is 0°, below PanMin=30°
	p := m.SetPulse(1000, 1500)
	if p.Pan < cfg.PanMin {
		t.Errorf("Expected pan >= %v, got %v", cfg.PanMin, p.Pan)
	}
	if p.PanUS != 1167 {
		t.Errorf("Expected PanUS=1167, got %d", p.PanUS)
	}
}

func TestPositionModel_Apply(t *testing.T) {
	pan := 100.0
	tiltUS := 1250

	tests := []struct {
		name string
		r    Reported
		want func(Pose, *PositionModel) bool
	}{
		{
			name: "Empty",
			r:    Reported{},
			want: func(p Pose, m *PositionModel) bool { return p.Pan == 114 && p.Tilt == 14 },
		},
		{
			name: "DegreesOnlyRecomputesPulse",
			r:    Reported{Pan: &pan},
			want: func(p Pose, m *PositionModel) bool { return p.Pan == 100 && p.PanUS == m.DegreesToMicros(100) },
		},
		{
			name: "PulseOnlyRecomputesDegrees",
			r:    Reported{TiltUS: &tiltUS},
			want: func(p Pose, m *PositionModel) bool { return p.TiltUS == 1250 && floatEquals(p.Tilt, 45, 1e-9) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewPositionModel(DefaultConfig())
			p := m.Apply(tt.r)
			if !tt.want(p, m) {
				t.Errorf("Unexpected pose after Apply: %v", p)
			}
			if m.Pose() != p {
				t.Error("Expected Apply to update the model")
			}
		})
	}
}

func TestPositionModel_ApplyBothVerbatim(t *testing.T) {
	m := NewPositionModel(DefaultConfig())
	pan, panUS := 91.0, 1400

	p := m.Apply(Reported{Pan: &pan, PanUS: &panUS})
	if p.Pan != 91 || p.PanUS != 1400 {
		t.Errorf("Expected actuator values verbatim, got %v/%d", p.Pan, p.PanUS)
	}
}

func TestReported_Empty(t *testing.T) {
	if !(Reported{}).Empty() {
		t.Error("Expected zero Reported to be empty")
	}
	v := 1
	if (Reported{PanUS: &v}).Empty() {
		t.Error("Expected Reported with a field to be non-empty")
	}
}
