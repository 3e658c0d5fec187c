package tracking

import (
	"time"

	"github.com/google/uuid"
)

// Session owns everything the control core mutates for one tracking run.
// It is not safe for concurrent use; a single loop goroutine drives it.
type Session struct {
	ID string

	config   Config
	clock    Clock
	position *PositionModel
	zoom     *ZoomRegulator
	deadZone DeadZone
	tracker  *ProportionalTracker

	state   TrackingState
	current State
}

// NewSession validates cfg and creates a session at the home pose.
// A nil clock means SystemClock.
func NewSession(cfg Config, clock Clock) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock{}
	}

	s := &Session{
		ID:       uuid.New().String(),
		config:   cfg,
		clock:    clock,
		position: NewPositionModel(cfg),
		zoom:     NewZoomRegulator(cfg),
		deadZone: NewDeadZone(cfg),
		tracker:  NewProportionalTracker(cfg),
		current:  StateSearching,
	}
	s.state.LastDetection = clock.Now()
	return s, nil
}

// Config returns the session's configuration.
func (s *Session) Config() Config { return s.config }

// Clock returns the session's time source.
func (s *Session) Clock() Clock { return s.clock }

// Position returns the session's position model.
func (s *Session) Position() *PositionModel { return s.position }

// Zoom returns the session's zoom regulator.
func (s *Session) Zoom() *ZoomRegulator { return s.zoom }

// DeadZone returns the lock circle.
func (s *Session) DeadZone() DeadZone { return s.deadZone }

// Tracker returns the proportional tracker.
func (s *Session) Tracker() *ProportionalTracker { return s.tracker }

// State returns the state reported by the last Tick.
func (s *Session) State() State { return s.current }

// Tracking returns a copy of the state machine memory.
func (s *Session) Tracking() TrackingState { return s.state }

// Home moves the local pose to home and clears target memory, the way an
// operator "center" does. The caller transmits the returned pose.
func (s *Session) Home(now time.Time) Pose {
	pose := s.position.SetPose(s.config.HomePan, s.config.HomeTilt)
	s.forget(now)
	s.current = StateSearching
	return pose
}

// forget clears everything tied to the last seen target and restarts the
// loss timer from now.
func (s *Session) forget(now time.Time) {
	s.state.Locked = false
	s.state.TargetBox = nil
	s.state.LastKnownCenter = nil
	s.state.LastDetection = now
	s.state.LostAt = time.Time{}
	s.state.RecoveryFired = false
}
