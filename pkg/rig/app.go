package rig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-bullseye/internal/log"
	"github.com/teslashibe/go-bullseye/pkg/journal"
	"github.com/teslashibe/go-bullseye/pkg/robot"
	"github.com/teslashibe/go-bullseye/pkg/tracking"
	"github.com/teslashibe/go-bullseye/pkg/tracking/detection"
)

var (
	// ErrTrackingActive is returned for directional nudges while tracking owns the actuator.
	ErrTrackingActive = errors.New("rig: manual moves are disabled while tracking")

	// ErrNoJournal is returned by Events and EventSummary when the journal is disabled.
	ErrNoJournal = errors.New("rig: journal disabled")
)

// Calibration sweep: every pulse is sent to both axes and held for CalibrationDwell.
var CalibrationPulses = []int{500, 1000, 1500, 2000, 2500}

const CalibrationDwell = 1500 * time.Millisecond

// Camera captures frames, runs detection and renders the annotated frame.
type Camera interface {
	// Capture reads the next frame and applies the software zoom.
	Capture(zoom float64) error
	// Detect runs the detector on the last captured frame.
	Detect(confidence float64) ([]detection.Detection, error)
	// Render draws the overlay and returns the frame as JPEG.
	Render(snap Snapshot) ([]byte, error)
	Close() error
}

// Journal records tracking events.
type Journal interface {
	Record(ctx context.Context, e journal.Event) (journal.Event, error)
	Recent(ctx context.Context, limit int) ([]journal.Event, error)
	CountByKind(ctx context.Context, sessionID string) (map[journal.Kind]int, error)
	Close() error
}

// Publisher receives the status and the annotated frame after every iteration.
type Publisher interface {
	PublishStatus(snap Snapshot)
	PublishFrame(jpeg []byte)
}

// Deps are the collaborators the rig drives.
type Deps struct {
	Robot     robot.Controller
	Camera    Camera
	Journal   Journal   // Optional
	Publisher Publisher // Optional, may also be set with SetPublisher
	Clock     tracking.Clock
	Sleeper   tracking.Sleeper
}

// Result is the outcome of one operator command.
type Result struct {
	Command string   `json:"command"`
	Message string   `json:"message"`
	Status  Snapshot `json:"status"`
}

type request struct {
	cmd   Command
	reply chan response
}

type response struct {
	res Result
	err error
}

// App is the rig orchestrator.
// A single goroutine (Run) owns the tracking session; everything else talks
// to it through Submit.
type App struct {
	config Config

	session   *tracking.Session
	robot     robot.Controller
	camera    Camera
	journal   Journal
	publisher Publisher
	mover     *tracking.MotionInterpolator
	sleeper   tracking.Sleeper
	filter    detection.ClassFilter
	log       *slog.Logger

	// Loop-owned operator state
	manual     Manual
	tracking   bool
	confidence float64
	quit       bool

	commands chan request

	snapMu sync.RWMutex
	snap   Snapshot
}

// New creates a rig from a validated configuration.
func New(cfg Config, deps Deps) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Robot == nil {
		return nil, &ConfigError{Field: "Robot", Message: "an actuator controller is required"}
	}
	if deps.Camera == nil {
		return nil, &ConfigError{Field: "Camera", Message: "a camera is required"}
	}
	if deps.Sleeper == nil {
		deps.Sleeper = tracking.SystemSleeper{}
	}

	session, err := tracking.NewSession(cfg.Tracking, deps.Clock)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:     cfg,
		session:    session,
		robot:      deps.Robot,
		camera:     deps.Camera,
		journal:    deps.Journal,
		publisher:  deps.Publisher,
		mover:      tracking.NewMotionInterpolator(deps.Sleeper),
		sleeper:    deps.Sleeper,
		filter:     detection.MatchClass(cfg.TargetClass),
		log:        log.With("component", "rig", "session", session.ID),
		manual:     NewManual(),
		confidence: cfg.Confidence,
		commands:   make(chan request, 8),
	}
	a.refresh()
	return a, nil
}

// SetPublisher attaches the dashboard. Call before Run.
func (a *App) SetPublisher(p Publisher) {
	a.publisher = p
}

// Session exposes the tracking session for inspection. It must not be
// mutated while Run is active.
func (a *App) Session() *tracking.Session {
	return a.session
}

// Init homes the actuator and applies the start-up tracking mode.
// Call this after New() and before Run().
func (a *App) Init(ctx context.Context) error {
	a.log.Info("bullseye rig starting",
		"esp32", a.config.ESP32IP,
		"dry_run", a.config.DryRun,
		"target", a.config.TargetClass,
		"confidence", a.config.Confidence)

	home := a.session.Position().Pose()
	if err := a.sendAngles(ctx, home); err != nil {
		a.log.Warn("could not home actuator", "error", err)
	} else {
		a.log.Info("actuator homed", "pose", home.String())
	}

	if a.config.TrackOnStart {
		a.setTracking(ctx, true)
	}
	a.refresh()
	return nil
}

// Run drives the camera loop until ctx is cancelled, a quit command arrives
// or the camera fails.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("rig running", "tracking", a.tracking)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := a.iterate(ctx); err != nil {
			return err
		}
		if a.quit {
			a.log.Info("quit requested")
			return nil
		}
	}
}

// Shutdown releases the camera and the journal.
func (a *App) Shutdown() {
	a.log.Info("rig shutting down")

	if err := a.camera.Close(); err != nil {
		a.log.Warn("camera close failed", "error", err)
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn("journal close failed", "error", err)
		}
	}
}

// Submit queues cmd for the loop and waits for its result.
func (a *App) Submit(ctx context.Context, cmd Command) (Result, error) {
	req := request{cmd: cmd, reply: make(chan response, 1)}

	select {
	case a.commands <- req:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp.res, resp.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Snapshot returns the status published after the last iteration.
func (a *App) Snapshot() Snapshot {
	a.snapMu.RLock()
	defer a.snapMu.RUnlock()
	return a.snap
}

// Events returns the most recent journal entries.
func (a *App) Events(ctx context.Context, limit int) ([]journal.Event, error) {
	if a.journal == nil {
		return nil, ErrNoJournal
	}
	return a.journal.Recent(ctx, limit)
}

// EventSummary tallies this run's journaled events by kind.
func (a *App) EventSummary(ctx context.Context) (map[journal.Kind]int, error) {
	if a.journal == nil {
		return nil, ErrNoJournal
	}
	return a.journal.CountByKind(ctx, a.session.ID)
}

func (a *App) iterate(ctx context.Context) error {
	if err := a.camera.Capture(a.session.Zoom().Level()); err != nil {
		return fmt.Errorf("rig: capture: %w", err)
	}

	if a.tracking {
		dets, err := a.camera.Detect(a.confidence)
		if err != nil {
			a.log.Warn("detection failed", "error", err)
		} else {
			a.Process(ctx, dets)
		}
	}

	snap := a.refresh()
	frame, err := a.camera.Render(snap)
	if err != nil {
		a.log.Debug("render failed", "error", err)
	}
	if a.publisher != nil {
		a.publisher.PublishStatus(snap)
		if len(frame) > 0 {
			a.publisher.PublishFrame(frame)
		}
	}

	select {
	case req := <-a.commands:
		res, err := a.Execute(ctx, req.cmd)
		req.reply <- response{res: res, err: err}
	default:
	}
	return nil
}

// Process runs one tracking step on raw detections and transmits the
// resulting command, if any.
func (a *App) Process(ctx context.Context, dets []detection.Detection) tracking.Step {
	step := a.session.Advance(detection.Filter(dets, a.filter))

	if step.Command != nil {
		// Failure is journaled by sendAngles; the local pose is not rolled back.
		_ = a.sendAngles(ctx, *step.Command)
	}
	if step.ZoomChange != tracking.ZoomHold {
		a.log.Debug("zoom", "change", step.ZoomChange, "level", step.Zoom)
	}
	a.record(ctx, step.Events)
	return step
}

// Execute applies one operator command. Only the loop goroutine may call it
// while Run is active.
func (a *App) Execute(ctx context.Context, cmd Command) (Result, error) {
	pos := a.session.Position()
	pose := pos.Pose()

	var msg string
	var err error

	switch cmd.Kind {
	case CmdStatus:
		msg = pose.String()

	case CmdMove:
		if a.tracking {
			err = ErrTrackingActive
			break
		}
		err = a.nudge(ctx, cmd.Direction)
		msg = fmt.Sprintf("%s: %s", cmd.Direction, pos.Pose())

	case CmdStep:
		a.manual.Adjust(cmd.Delta)
		msg = fmt.Sprintf("step %.1f deg / %d us", a.manual.StepDeg, a.manual.StepUS)

	case CmdToggleMode:
		msg = "mode " + a.manual.ToggleMode().String()

	case CmdTracking:
		on := !a.tracking
		if cmd.Enable != nil {
			on = *cmd.Enable
		}
		a.setTracking(ctx, on)
		msg = "tracking off"
		if a.tracking {
			msg = "tracking on"
		}

	case CmdZoom:
		z := a.session.Zoom()
		if cmd.Delta == 0 {
			z.Reset()
		} else {
			z.Nudge(cmd.Delta)
		}
		msg = fmt.Sprintf("zoom %.1fx", z.Level())

	case CmdCenter:
		err = a.center(ctx)
		msg = "centered: " + pos.Pose().String()

	case CmdCalibrate:
		err = a.calibrate(ctx)
		msg = "calibration complete"

	case CmdConfidence:
		a.confidence = NudgeConfidence(a.confidence, cmd.Delta)
		msg = fmt.Sprintf("confidence %.1f", a.confidence)

	case CmdPan:
		err = a.position(ctx, cmd.Pan, pose.Tilt)
		msg = pos.Pose().String()
	case CmdTilt:
		err = a.position(ctx, pose.Pan, cmd.Tilt)
		msg = pos.Pose().String()
	case CmdPosition:
		err = a.position(ctx, cmd.Pan, cmd.Tilt)
		msg = pos.Pose().String()

	case CmdPanPulse:
		err = a.pulse(ctx, cmd.PanUS, pose.TiltUS)
		msg = pos.Pose().String()
	case CmdTiltPulse:
		err = a.pulse(ctx, pose.PanUS, cmd.TiltUS)
		msg = pos.Pose().String()
	case CmdPulse:
		err = a.pulse(ctx, cmd.PanUS, cmd.TiltUS)
		msg = pos.Pose().String()

	case CmdSmooth:
		err = a.smooth(ctx, cmd.Pan, cmd.Tilt, cmd.Duration, cmd.Steps)
		msg = pos.Pose().String()

	case CmdQuit:
		a.quit = true
		msg = "bye"

	default:
		err = fmt.Errorf("%w: kind %d", ErrInvalidCommand, cmd.Kind)
	}

	res := Result{Command: cmd.Kind.String(), Message: msg, Status: a.refresh()}
	if err != nil {
		a.log.Warn("command failed", "command", cmd.Kind.String(), "error", err)
		return res, err
	}
	a.log.Info("command", "command", cmd.Kind.String(), "result", msg)
	return res, nil
}

func (a *App) nudge(ctx context.Context, dir Direction) error {
	pose := a.session.Position().Pose()
	if a.manual.Mode == StepMicros {
		panUS, tiltUS := a.manual.PulseTarget(pose, dir)
		return a.pulse(ctx, panUS, tiltUS)
	}
	pan, tilt := a.manual.DegreeTarget(pose, dir)
	return a.position(ctx, pan, tilt)
}

func (a *App) position(ctx context.Context, pan, tilt float64) error {
	return a.sendAngles(ctx, a.session.Position().SetPose(pan, tilt))
}

func (a *App) pulse(ctx context.Context, panUS, tiltUS int) error {
	pose := a.session.Position().SetPulse(panUS, tiltUS)
	return a.sendPulses(ctx, pose.PanUS, pose.TiltUS)
}

func (a *App) smooth(ctx context.Context, pan, tilt float64, duration time.Duration, steps int) error {
	if duration <= 0 {
		duration = tracking.DefaultMoveDuration
	}
	if steps <= 0 {
		steps = tracking.DefaultMoveSteps
	}
	_, err := a.mover.MoveTo(ctx, a.session.Position(), pan, tilt, duration, steps, a.sendAngles)
	return err
}

// center glides home and forgets the target, even when the glide fails.
func (a *App) center(ctx context.Context) error {
	cfg := a.session.Config()
	err := a.smooth(ctx, cfg.HomePan, cfg.HomeTilt, 0, 0)
	a.session.Home(a.session.Clock().Now())
	return err
}

// calibrate sweeps both servos through CalibrationPulses, then centers.
// Pulses bypass the axis limits; the transport still clamps them to the
// servo range, so 500 and 2500 go out as the range ends.
func (a *App) calibrate(ctx context.Context) error {
	for _, us := range CalibrationPulses {
		a.log.Info("calibration", "pulse_us", us)
		if err := a.sendPulses(ctx, us, us); err != nil {
			return fmt.Errorf("calibrate %dus: %w", us, err)
		}
		if err := a.sleeper.Sleep(ctx, CalibrationDwell); err != nil {
			return err
		}
	}
	return a.center(ctx)
}

func (a *App) setTracking(ctx context.Context, on bool) {
	if on == a.tracking {
		return
	}
	a.tracking = on

	now := a.session.Clock().Now()
	var step tracking.Step
	if on {
		step = a.session.Reset(now)
	} else {
		step = a.session.Stop(now)
	}
	a.record(ctx, step.Events)
}

// sendAngles transmits a degree pose. The local pose first adopts what the
// transport actually sent, then whatever the actuator reports.
func (a *App) sendAngles(ctx context.Context, pose tracking.Pose) error {
	reply, err := a.robot.SetAngles(ctx, pose.Pan, pose.Tilt)
	return a.adopt(ctx, reply, reply.SentAngles(), err)
}

func (a *App) sendPulses(ctx context.Context, panUS, tiltUS int) error {
	reply, err := a.robot.SetPulses(ctx, panUS, tiltUS)
	return a.adopt(ctx, reply, reply.SentPulses(), err)
}

func (a *App) adopt(ctx context.Context, reply robot.Reply, sent tracking.Reported, err error) error {
	pos := a.session.Position()
	pose := pos.Apply(sent)
	if err != nil {
		a.commandFailed(ctx, pose, err)
		return err
	}
	pos.Apply(reply.Reported)
	return nil
}

func (a *App) commandFailed(ctx context.Context, pose tracking.Pose, err error) {
	a.log.Warn("actuator command failed", "pose", pose.String(), "error", err)
	if a.journal == nil {
		return
	}
	e := journal.Event{
		SessionID: a.session.ID,
		Kind:      journal.KindCommandFailed,
		Pan:       pose.Pan,
		Tilt:      pose.Tilt,
		Zoom:      a.session.Zoom().Level(),
		Detail:    err.Error(),
		CreatedAt: a.session.Clock().Now(),
	}
	if _, jerr := a.journal.Record(ctx, e); jerr != nil {
		a.log.Warn("journal write failed", "error", jerr)
	}
}

func (a *App) record(ctx context.Context, events []tracking.Event) {
	for _, e := range events {
		a.log.Info("tracking event", "kind", e.Kind, "pose", e.Pose.String(), "zoom", e.Zoom)
		if a.journal == nil {
			continue
		}
		if _, err := a.journal.Record(ctx, journal.FromTracking(a.session.ID, e)); err != nil {
			a.log.Warn("journal write failed", "kind", e.Kind, "error", err)
		}
	}
}

// refresh recomputes the published snapshot.
func (a *App) refresh() Snapshot {
	st := a.session.Status(a.session.Clock().Now())
	snap := Snapshot{
		Status:     st,
		Tracking:   a.tracking,
		Mode:       a.manual.Mode,
		StepDeg:    a.manual.StepDeg,
		StepUS:     a.manual.StepUS,
		Confidence: a.confidence,
	}
	if st.State == tracking.StateCoasting {
		snap.CoastLeft = max(0, a.session.Config().CoastDuration.Seconds()-st.SinceLost)
	}

	a.snapMu.Lock()
	a.snap = snap
	a.snapMu.Unlock()
	return snap
}
