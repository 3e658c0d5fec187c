// Package web provides the operator dashboard API for the rig
package web

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/teslashibe/go-bullseye/internal/log"
	"github.com/teslashibe/go-bullseye/pkg/hub"
	"github.com/teslashibe/go-bullseye/pkg/journal"
	"github.com/teslashibe/go-bullseye/pkg/rig"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Defaults for the operator API.
const (
	DefaultCommandTimeout = 15 * time.Second
	DefaultRateLimit      = rate.Limit(20)
	DefaultBurst          = 40
)

// Operator is the rig as seen by the dashboard. Handlers never touch the
// tracking session directly; every change goes through Submit.
type Operator interface {
	Submit(ctx context.Context, cmd rig.Command) (rig.Result, error)
	Snapshot() rig.Snapshot
	Events(ctx context.Context, limit int) ([]journal.Event, error)
	EventSummary(ctx context.Context) (map[journal.Kind]int, error)
}

// Server is the web dashboard server
type Server struct {
	app  *fiber.App
	port string
	log  *slog.Logger

	operator Operator
	validate *validator.Validate
	limiter  *rateLimiter

	commandTimeout time.Duration

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	cameraHub *hub.Hub
}

var _ rig.Publisher = (*Server)(nil)

// Option configures a Server.
type Option func(*Server)

// WithCommandTimeout bounds how long a request waits for the rig loop.
func WithCommandTimeout(d time.Duration) Option {
	return func(s *Server) { s.commandTimeout = d }
}

// WithRateLimit sets the per-client request rate for control endpoints.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(s *Server) { s.limiter = newRateLimiter(r, burst) }
}

// NewServer creates a new web dashboard server
func NewServer(port string, op Operator, opts ...Option) *Server {
	s := &Server{
		port:           port,
		log:            log.With("component", "web"),
		operator:       op,
		validate:       validator.New(),
		limiter:        newRateLimiter(DefaultRateLimit, DefaultBurst),
		commandTimeout: DefaultCommandTimeout,
		statusHub:      hub.New("status"),
		cameraHub:      hub.New("camera"),
	}
	for _, opt := range opts {
		opt(s)
	}

	app := fiber.New(fiber.Config{
		AppName:               "Bullseye Rig",
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	// CORS for local development
	app.Use(cors.New())

	// Serve the dashboard
	app.Static("/", "./web")

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/events", s.handleEvents)
	api.Get("/events/summary", s.handleEventSummary)

	api.Post("/tracking", s.rateLimit, s.handleTracking)
	api.Post("/move", s.rateLimit, s.handleMove)
	api.Post("/position", s.rateLimit, s.handlePosition)
	api.Post("/pulse", s.rateLimit, s.handlePulse)
	api.Post("/smooth", s.rateLimit, s.handleSmooth)
	api.Post("/zoom", s.rateLimit, s.handleZoom)
	api.Post("/center", s.rateLimit, s.handleSimple(rig.CmdCenter))
	api.Post("/calibrate", s.rateLimit, s.handleSimple(rig.CmdCalibrate))
	api.Post("/confidence", s.rateLimit, s.handleConfidence)
	api.Post("/command", s.rateLimit, s.handleCommand)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start runs the hubs and serves until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("web dashboard listening", "url", "http://localhost:"+s.port)
	s.runHubs(ctx)
	return s.app.Listen(":" + s.port)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.runHubs(ctx)
	return s.app.Listener(ln)
}

func (s *Server) runHubs(ctx context.Context) {
	go s.statusHub.Run(ctx)
	go s.cameraHub.Run(ctx)
}

// PublishStatus broadcasts the rig status to /ws/status clients.
func (s *Server) PublishStatus(snap rig.Snapshot) {
	if err := s.statusHub.BroadcastJSON(snap); err != nil {
		s.log.Warn("status encode failed", "error", err)
	}
}

// PublishFrame broadcasts an annotated JPEG to /ws/camera clients.
func (s *Server) PublishFrame(jpeg []byte) {
	s.cameraHub.BroadcastBinary(jpeg)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
