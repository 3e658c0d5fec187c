package tracking

import (
	"time"

	"github.com/teslashibe/go-bullseye/pkg/tracking/detection"
)

// Status is a read-only snapshot of a session for dashboards and logs.
type Status struct {
	SessionID       string                 `json:"session_id"`
	State           State                  `json:"state"`
	Locked          bool                   `json:"locked"`
	Pose            Pose                   `json:"pose"`
	Zoom            float64                `json:"zoom"`
	Target          *detection.BoundingBox `json:"target,omitempty"`
	LastKnownCenter *detection.Point       `json:"last_known_center,omitempty"`
	SinceDetection  float64                `json:"since_detection_s"`
	SinceLost       float64                `json:"since_lost_s,omitempty"`
	RecoveryFired   bool                   `json:"recovery_fired"`
}

// Status returns a snapshot at now. Pointers in the snapshot are copies.
func (s *Session) Status(now time.Time) Status {
	st := Status{
		SessionID:      s.ID,
		State:          s.current,
		Locked:         s.state.Locked,
		Pose:           s.position.Pose(),
		Zoom:           s.zoom.Level(),
		SinceDetection: now.Sub(s.state.LastDetection).Seconds(),
		RecoveryFired:  s.state.RecoveryFired,
	}
	if s.state.TargetBox != nil {
		box := *s.state.TargetBox
		st.Target = &box
	}
	if s.state.LastKnownCenter != nil {
		c := *s.state.LastKnownCenter
		st.LastKnownCenter = &c
	}
	if !s.state.LostAt.IsZero() {
		st.SinceLost = now.Sub(s.state.LostAt).Seconds()
	}
	return st
}
