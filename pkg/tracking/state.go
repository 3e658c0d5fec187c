package tracking

import (
	"time"

	"github.com/teslashibe/go-bullseye/pkg/tracking/detection"
)

// State is the externally visible tracking mode.
type State int

const (
	StateSearching State = iota
	StateAcquiring
	StateLocked
	StateCoasting
	StateRecovering
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateAcquiring:
		return "acquiring"
	case StateLocked:
		return "locked"
	case StateCoasting:
		return "coasting"
	case StateRecovering:
		return "recovering"
	default:
		return "unknown"
	}
}

// MarshalText lets State appear as a string in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TrackingState is the mutable per-session memory of the state machine.
// Zero times mean "unset".
type TrackingState struct {
	Locked          bool
	TargetBox       *detection.BoundingBox
	LastKnownCenter *detection.Point
	LastDetection   time.Time
	LostAt          time.Time
	RecoveryFired   bool
	LastMove        time.Time
}

// EventKind names a transition worth logging or journaling.
type EventKind string

const (
	EventLocked      EventKind = "locked"
	EventUnlocked    EventKind = "unlocked"
	EventLost        EventKind = "lost"
	EventCoasting    EventKind = "coasting"
	EventRecovered   EventKind = "recovered"
	EventTrackingOn  EventKind = "tracking_on"
	EventTrackingOff EventKind = "tracking_off"
)

// Event is a transition emitted by the state machine.
type Event struct {
	Kind EventKind
	At   time.Time
	Pose Pose
	Zoom float64
}

// Step is the result of one Tick.
type Step struct {
	State State

	// Command is the pose to transmit, nil when the actuator should not move.
	Command *Pose

	Converged  bool
	Zoom       float64
	ZoomChange ZoomChange

	// Target is the primary detection this frame, nil when absent.
	Target *detection.Detection

	Events []Event
}

// Moved reports whether the step produced an actuator command.
func (s Step) Moved() bool {
	return s.Command != nil
}
