package tracking

import (
	"time"

	"github.com/teslashibe/go-bullseye/pkg/tracking/detection"
)

// Advance runs Tick at the session clock's current time.
func (s *Session) Advance(dets []detection.Detection) Step {
	return s.Tick(s.clock.Now(), dets)
}

// Tick advances the state machine by one frame.
// dets must already be filtered to the target class. Tick never blocks and
// performs no I/O; a pose to transmit is returned in Step.Command.
func (s *Session) Tick(now time.Time, dets []detection.Detection) Step {
	step := Step{}

	if target := detection.SelectPrimary(dets); target != nil {
		t := *target
		step.Target = &t
		s.present(now, t, &step)
	} else {
		s.absent(now, &step)
	}

	step.Zoom = s.zoom.Level()
	step.State = s.current
	return step
}

func (s *Session) present(now time.Time, target detection.Detection, step *Step) {
	s.state.LastDetection = now
	s.state.LostAt = time.Time{}
	s.state.RecoveryFired = false

	box := target.Box
	center := box.Center()
	s.state.TargetBox = &box
	s.state.LastKnownCenter = &center

	ratio := s.deadZone.SizeRatio(box)
	before := s.zoom.Level()
	if change := s.zoom.Update(ratio); s.zoom.Level() != before {
		step.ZoomChange = change
	}

	frameCenter := s.deadZone.Center
	step.Converged = s.tracker.Centered(center, frameCenter)

	if !s.state.Locked {
		if ratio <= s.config.ZoomInThreshold && s.deadZone.InsideTarget(box) {
			s.state.Locked = true
			s.emit(step, EventLocked, now)
		} else if now.Sub(s.state.LastMove) > s.config.MoveInterval {
			s.track(now, center, step)
		}
	} else {
		if !s.deadZone.InsideTarget(box) {
			s.state.Locked = false
			s.emit(step, EventUnlocked, now)
		} else {
			diff := center.Sub(frameCenter)
			tol := s.tracker.Tolerance
			if absInt(diff.X) > tol || absInt(diff.Y) > tol {
				if now.Sub(s.state.LastMove) > 2*s.config.MoveInterval {
					s.track(now, center, step)
				}
			}
		}
	}

	if s.state.Locked {
		s.current = StateLocked
	} else {
		s.current = StateAcquiring
	}
}

func (s *Session) absent(now time.Time, step *Step) {
	if s.state.LostAt.IsZero() {
		s.state.LostAt = now
		if s.state.LastKnownCenter != nil {
			s.emit(step, EventLost, now)
		}
	}

	if now.Sub(s.state.LostAt) < s.config.CoastDuration && s.state.LastKnownCenter != nil {
		if s.current != StateCoasting {
			s.emit(step, EventCoasting, now)
		}
		s.current = StateCoasting
		if now.Sub(s.state.LastMove) > s.config.MoveInterval {
			s.track(now, *s.state.LastKnownCenter, step)
		}
		return
	}

	if s.state.Locked {
		s.emit(step, EventUnlocked, now)
	}
	s.state.Locked = false
	s.state.TargetBox = nil
	s.current = StateSearching

	if now.Sub(s.state.LastDetection) > s.config.LossTimeout && !s.state.RecoveryFired {
		pose := s.recover(now)
		step.Command = &pose
		s.current = StateRecovering
		s.emit(step, EventRecovered, now)
	}
}

// recover performs the one-shot return to home.
func (s *Session) recover(now time.Time) Pose {
	pose := s.position.SetPose(s.config.HomePan, s.config.HomeTilt)
	s.forget(now)
	s.zoom.Reset()
	s.state.RecoveryFired = true
	return pose
}

func (s *Session) track(now time.Time, center detection.Point, step *Step) {
	pose, converged := s.tracker.Track(center, s.deadZone.Center, s.zoom.Level(), s.position)
	s.state.LastMove = now
	step.Command = &pose
	step.Converged = converged
}

func (s *Session) emit(step *Step, kind EventKind, now time.Time) {
	step.Events = append(step.Events, Event{
		Kind: kind,
		At:   now,
		Pose: s.position.Pose(),
		Zoom: s.zoom.Level(),
	})
}

// Reset clears the machine when tracking is switched on.
func (s *Session) Reset(now time.Time) Step {
	s.forget(now)
	s.zoom.Reset()
	s.current = StateSearching

	step := Step{State: s.current, Zoom: s.zoom.Level()}
	s.emit(&step, EventTrackingOn, now)
	return step
}

// Stop clears the machine when tracking is switched off.
// The pose is kept; zoom returns to 1.0.
func (s *Session) Stop(now time.Time) Step {
	s.forget(now)
	s.zoom.Reset()
	s.current = StateSearching

	step := Step{State: s.current, Zoom: s.zoom.Level()}
	s.emit(&step, EventTrackingOff, now)
	return step
}
