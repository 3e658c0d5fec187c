package web

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-bullseye/pkg/hub"
	"github.com/teslashibe/go-bullseye/pkg/rig"
	"github.com/teslashibe/go-bullseye/pkg/robot"
)

const defaultEventLimit = 50

// TrackingRequest turns tracking on or off. A missing flag toggles it.
type TrackingRequest struct {
	Enabled *bool `json:"enabled"`
}

// MoveRequest is a manual nudge in the current step mode.
type MoveRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down left right"`
}

// PositionRequest sets both axes in degrees.
type PositionRequest struct {
	Pan  *float64 `json:"pan" validate:"required"`
	Tilt *float64 `json:"tilt" validate:"required"`
}

// PulseRequest sets both axes as servo pulse widths.
type PulseRequest struct {
	PanUS  *int `json:"pan_us" validate:"required,gte=500,lte=2500"`
	TiltUS *int `json:"tilt_us" validate:"required,gte=500,lte=2500"`
}

// SmoothRequest interpolates to a pose. Zero duration or steps use the defaults.
type SmoothRequest struct {
	Pan        *float64 `json:"pan" validate:"required"`
	Tilt       *float64 `json:"tilt" validate:"required"`
	DurationMS int      `json:"duration_ms" validate:"gte=0,lte=60000"`
	Steps      int      `json:"steps" validate:"gte=0,lte=1000"`
}

// ZoomRequest nudges or resets the software zoom.
type ZoomRequest struct {
	Action string `json:"action" validate:"required,oneof=in out reset"`
}

// ConfidenceRequest nudges the detector threshold.
type ConfidenceRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// CommandRequest is a raw console line.
type CommandRequest struct {
	Line string `json:"line" validate:"required,max=64"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string      `json:"error"`
	Result *rig.Result `json:"result,omitempty"`
}

// handleStatus returns the status from the last loop iteration
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.operator.Snapshot())
}

// handleEvents returns the most recent journal entries, newest first
func (s *Server) handleEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultEventLimit)
	if err := s.validate.Var(limit, "gte=1,lte=500"); err != nil {
		return badRequest(c, "limit must be between 1 and 500")
	}

	events, err := s.operator.Events(c.UserContext(), limit)
	if errors.Is(err, rig.ErrNoJournal) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}
	if err != nil {
		s.log.Error("events query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "events unavailable"})
	}
	return c.JSON(fiber.Map{"events": events, "count": len(events)})
}

// handleEventSummary counts this run's journal entries by kind
func (s *Server) handleEventSummary(c *fiber.Ctx) error {
	counts, err := s.operator.EventSummary(c.UserContext())
	if errors.Is(err, rig.ErrNoJournal) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}
	if err != nil {
		s.log.Error("event summary failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "events unavailable"})
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return c.JSON(fiber.Map{"counts": counts, "total": total})
}

func (s *Server) handleTracking(c *fiber.Ctx) error {
	var req TrackingRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	return s.submit(c, rig.Command{Kind: rig.CmdTracking, Enable: req.Enabled})
}

func (s *Server) handleMove(c *fiber.Ctx) error {
	var req MoveRequest
	if err := s.parse(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	dir, _ := rig.ParseDirection(req.Direction)
	return s.submit(c, rig.Move(dir))
}

func (s *Server) handlePosition(c *fiber.Ctx) error {
	var req PositionRequest
	if err := s.parse(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	return s.submit(c, rig.Command{Kind: rig.CmdPosition, Pan: *req.Pan, Tilt: *req.Tilt})
}

func (s *Server) handlePulse(c *fiber.Ctx) error {
	var req PulseRequest
	if err := s.parse(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	return s.submit(c, rig.Command{Kind: rig.CmdPulse, PanUS: *req.PanUS, TiltUS: *req.TiltUS})
}

func (s *Server) handleSmooth(c *fiber.Ctx) error {
	var req SmoothRequest
	if err := s.parse(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	return s.submit(c, rig.Command{
		Kind:     rig.CmdSmooth,
		Pan:      *req.Pan,
		Tilt:     *req.Tilt,
		Duration: time.Duration(req.DurationMS) * time.Millisecond,
		Steps:    req.Steps,
	})
}

func (s *Server) handleZoom(c *fiber.Ctx) error {
	var req ZoomRequest
	if err := s.parse(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	cmd := rig.Command{Kind: rig.CmdZoom}
	switch req.Action {
	case "in":
		cmd.Delta = 1
	case "out":
		cmd.Delta = -1
	}
	return s.submit(c, cmd)
}

func (s *Server) handleConfidence(c *fiber.Ctx) error {
	var req ConfidenceRequest
	if err := s.parse(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	cmd := rig.Command{Kind: rig.CmdConfidence, Delta: 1}
	if req.Direction == "down" {
		cmd.Delta = -1
	}
	return s.submit(c, cmd)
}

// handleSimple submits a command that takes no arguments.
func (s *Server) handleSimple(kind rig.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return s.submit(c, rig.Command{Kind: kind})
	}
}

// handleCommand accepts the same lines as the console, except quit.
func (s *Server) handleCommand(c *fiber.Ctx) error {
	var req CommandRequest
	if err := s.parse(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	cmd, err := s.parseLine(req.Line)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return s.submit(c, cmd)
}

// parse decodes and validates a JSON body.
func (s *Server) parse(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return errors.New("invalid request body")
	}
	return s.validate.Struct(req)
}

func (s *Server) parseLine(line string) (rig.Command, error) {
	cmd, err := rig.ParseCommand(line)
	if err != nil {
		return rig.Command{}, err
	}
	if cmd.Kind == rig.CmdQuit {
		return rig.Command{}, errors.New("quit is only available on the console")
	}
	return cmd, nil
}

func (s *Server) submit(c *fiber.Ctx, cmd rig.Command) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), s.commandTimeout)
	defer cancel()

	res, err := s.operator.Submit(ctx, cmd)
	if err != nil {
		status := statusFor(err)
		if status >= fiber.StatusInternalServerError || status == fiber.StatusUnprocessableEntity {
			s.log.Warn("command failed", "command", cmd.Kind.String(), "error", err)
		}
		body := ErrorResponse{Error: err.Error()}
		if res.Command != "" {
			body.Result = &res
		}
		return c.Status(status).JSON(body)
	}
	return c.JSON(res)
}

// statusFor maps rig and actuator errors onto HTTP status codes.
// An actuator that rejects a command (4xx) is 422; its own faults are 502.
func statusFor(err error) int {
	var se *robot.StatusError
	switch {
	case errors.Is(err, rig.ErrInvalidCommand):
		return fiber.StatusBadRequest
	case errors.Is(err, rig.ErrTrackingActive):
		return fiber.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.As(err, &se) && !se.IsServerError():
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, robot.ErrUnreachable),
		errors.Is(err, robot.ErrBadReply),
		se != nil:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// handleStatusWS streams the status and accepts console lines.
// Each line is answered to the sending client only.
func (s *Server) handleStatusWS(conn *websocket.Conn) {
	s.log.Debug("status client connected", "remote", conn.RemoteAddr().String())
	hub.NewClient(s.statusHub, conn, s.handleConsoleMessage).Run()
}

// handleCameraWS streams annotated JPEG frames.
func (s *Server) handleCameraWS(conn *websocket.Conn) {
	s.log.Debug("camera client connected", "remote", conn.RemoteAddr().String())
	hub.NewClient(s.cameraHub, conn, nil).Run()
}

// ConsoleReply answers a console line sent over /ws/status.
type ConsoleReply struct {
	Type   string      `json:"type"`
	Error  string      `json:"error,omitempty"`
	Result *rig.Result `json:"result,omitempty"`
}

func (s *Server) handleConsoleMessage(c *hub.Client, data []byte) {
	reply := ConsoleReply{Type: "result"}

	cmd, err := s.parseLine(strings.TrimSpace(string(data)))
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.commandTimeout)
		var res rig.Result
		res, err = s.operator.Submit(ctx, cmd)
		cancel()
		if err == nil {
			reply.Result = &res
		}
	}
	if err != nil {
		reply.Error = err.Error()
	}

	msg, err := hub.Encode(reply)
	if err != nil {
		s.log.Warn("console reply encode failed", "error", err)
		return
	}
	if !c.Reply(msg) {
		s.log.Debug("console reply dropped")
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
}
