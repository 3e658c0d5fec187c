package tracking

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Default smooth move parameters.
const (
	DefaultMoveDuration = 2 * time.Second
	DefaultMoveSteps    = 50
)

// Waypoint is one pose of an interpolated move.
type Waypoint struct {
	Pan, Tilt float64
	Fraction  float64 // Eased progress in [0, 1]
}

// Ease is the cosine ease-in-out profile 0.5·(1−cos(πt)).
func Ease(t float64) float64 {
	return 0.5 * (1 - math.Cos(math.Pi*t))
}

// Trajectory returns steps+1 eased waypoints from start to target.
// The first waypoint equals start and the last equals target exactly.
func Trajectory(startPan, startTilt, targetPan, targetTilt float64, steps int) []Waypoint {
	if steps < 1 {
		steps = 1
	}

	out := make([]Waypoint, steps+1)
	for i := 0; i <= steps; i++ {
		var f float64
		switch i {
		case 0:
			f = 0
		case steps:
			f = 1
		default:
			f = Ease(float64(i) / float64(steps))
		}
		out[i] = Waypoint{
			Pan:      lerp(startPan, targetPan, f),
			Tilt:     lerp(startTilt, targetTilt, f),
			Fraction: f,
		}
	}
	return out
}

// lerp is exact at both ends.
func lerp(a, b, f float64) float64 {
	return a*(1-f) + b*f
}

// SendFunc transmits one pose to the actuator.
type SendFunc func(ctx context.Context, pose Pose) error

// MotionInterpolator performs blocking point-to-point moves.
// It is never called from Tick.
type MotionInterpolator struct {
	Sleeper Sleeper
}

// NewMotionInterpolator creates an interpolator; a nil sleeper means SystemSleeper.
func NewMotionInterpolator(sleeper Sleeper) *MotionInterpolator {
	if sleeper == nil {
		sleeper = SystemSleeper{}
	}
	return &MotionInterpolator{Sleeper: sleeper}
}

// MoveTo walks pos to the target over duration in steps increments.
// Each waypoint is set on pos, passed to send, then followed by a sleep of
// duration/steps. It returns the poses that were set.
func (mi *MotionInterpolator) MoveTo(ctx context.Context, pos *PositionModel, targetPan, targetTilt float64, duration time.Duration, steps int, send SendFunc) ([]Pose, error) {
	if steps < 1 {
		steps = 1
	}
	start := pos.Pose()
	targetPan, targetTilt = pos.Clamp(targetPan, targetTilt)

	path := Trajectory(start.Pan, start.Tilt, targetPan, targetTilt, steps)
	delay := duration / time.Duration(steps)

	poses := make([]Pose, 0, len(path))
	for i, wp := range path {
		pose := pos.SetPose(wp.Pan, wp.Tilt)
		poses = append(poses, pose)

		if send != nil {
			if err := send(ctx, pose); err != nil {
				return poses, fmt.Errorf("smooth move step %d: %w", i, err)
			}
		}
		if err := mi.Sleeper.Sleep(ctx, delay); err != nil {
			return poses, err
		}
	}
	return poses, nil
}
