package robot

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/teslashibe/go-bullseye/pkg/tracking"
)

// SimController is an in-memory actuator for dry runs and tests.
// It applies the same transport clamps as HTTPController and reports the
// resulting position back, the way the ESP32 firmware does.
type SimController struct {
	Limits Limits

	// Latency is added to every command; zero means instant.
	Latency time.Duration

	mu       sync.Mutex
	pan      float64
	tilt     float64
	panUS    int
	tiltUS   int
	commands []tracking.Pose
	failWith error
}

// NewSimController creates a simulated actuator resting at the given pose.
func NewSimController(limits Limits, home tracking.Pose) *SimController {
	return &SimController{
		Limits: limits,
		pan:    home.Pan,
		tilt:   home.Tilt,
		panUS:  home.PanUS,
		tiltUS: home.TiltUS,
	}
}

// FailWith makes every following command return err (nil restores success).
func (s *SimController) FailWith(err error) {
	s.mu.Lock()
	s.failWith = err
	s.mu.Unlock()
}

// Commands returns a copy of every pose sent so far.
func (s *SimController) Commands() []tracking.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tracking.Pose, len(s.commands))
	copy(out, s.commands)
	return out
}

// SetAngles records a degree command.
func (s *SimController) SetAngles(ctx context.Context, pan, tilt float64) (Reply, error) {
	pan, tilt = s.Limits.ClampAngles(pan, tilt)
	reply := Reply{Sent: tracking.Pose{Pan: pan, Tilt: tilt}}

	if err := s.wait(ctx); err != nil {
		return reply, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, reply.Sent)
	if s.failWith != nil {
		return reply, s.failWith
	}

	s.pan, s.tilt = pan, tilt
	s.panUS, s.tiltUS = s.toMicros(pan), s.toMicros(tilt)
	reply.Reported = s.snapshot(true, false)
	return reply, nil
}

// SetPulses records a pulse command.
func (s *SimController) SetPulses(ctx context.Context, panUS, tiltUS int) (Reply, error) {
	panUS, tiltUS = s.Limits.ClampPulses(panUS, tiltUS)
	reply := Reply{Sent: tracking.Pose{PanUS: panUS, TiltUS: tiltUS}}

	if err := s.wait(ctx); err != nil {
		return reply, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, reply.Sent)
	if s.failWith != nil {
		return reply, s.failWith
	}

	s.panUS, s.tiltUS = panUS, tiltUS
	s.pan, s.tilt = s.toDegrees(panUS), s.toDegrees(tiltUS)
	reply.Reported = s.snapshot(false, true)
	return reply, nil
}

// Status reports the last accepted position.
func (s *SimController) Status(ctx context.Context) (tracking.Reported, error) {
	if err := s.wait(ctx); err != nil {
		return tracking.Reported{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return tracking.Reported{}, s.failWith
	}
	return s.snapshot(true, true), nil
}

// snapshot copies the requested representations so callers never alias
// the simulator's fields. Must be called with mu held.
func (s *SimController) snapshot(degrees, pulses bool) tracking.Reported {
	var r tracking.Reported
	if degrees {
		pan, tilt := s.pan, s.tilt
		r.Pan, r.Tilt = &pan, &tilt
	}
	if pulses {
		panUS, tiltUS := s.panUS, s.tiltUS
		r.PanUS, r.TiltUS = &panUS, &tiltUS
	}
	return r
}

func (s *SimController) toMicros(deg float64) int {
	span := float64(s.Limits.ServoMaxUS - s.Limits.ServoMinUS)
	return s.Limits.ServoMinUS + int(math.Round(deg/tracking.ServoSpanDegrees*span))
}

func (s *SimController) toDegrees(us int) float64 {
	span := float64(s.Limits.ServoMaxUS - s.Limits.ServoMinUS)
	return float64(us-s.Limits.ServoMinUS) / span * tracking.ServoSpanDegrees
}

func (s *SimController) wait(ctx context.Context) error {
	if s.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.Latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
