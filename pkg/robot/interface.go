// Package robot talks to the ESP32 pan/tilt actuator.
//
// This package follows the Interface Segregation Principle (ISP) by defining
// small, focused interfaces that can be composed as needed. Consumers should
// depend only on the interfaces they actually use.
package robot

import (
	"context"

	"github.com/teslashibe/go-bullseye/pkg/tracking"
)

// Reply is the outcome of one actuator command.
// Sent holds the values actually transmitted after transport clamping and is
// filled in even when the command fails.
type Reply struct {
	Sent     tracking.Pose
	Reported tracking.Reported
}

// SentAngles is the transmitted degree pair in report form.
func (r Reply) SentAngles() tracking.Reported {
	pan, tilt := r.Sent.Pan, r.Sent.Tilt
	return tracking.Reported{Pan: &pan, Tilt: &tilt}
}

// SentPulses is the transmitted pulse pair in report form.
func (r Reply) SentPulses() tracking.Reported {
	panUS, tiltUS := r.Sent.PanUS, r.Sent.TiltUS
	return tracking.Reported{PanUS: &panUS, TiltUS: &tiltUS}
}

// AngleController moves both servos to angles in degrees.
// Use this minimal interface when only reactive tracking is needed.
type AngleController interface {
	SetAngles(ctx context.Context, pan, tilt float64) (Reply, error)
}

// PulseController moves both servos by raw pulse width.
type PulseController interface {
	SetPulses(ctx context.Context, panUS, tiltUS int) (Reply, error)
}

// StatusController queries the actuator's current position.
type StatusController interface {
	Status(ctx context.Context) (tracking.Reported, error)
}

// Controller is the composite interface for full actuator control.
type Controller interface {
	AngleController
	PulseController
	StatusController
}

// Ensure both implementations satisfy Controller
var (
	_ Controller = (*HTTPController)(nil)
	_ Controller = (*SimController)(nil)
)
