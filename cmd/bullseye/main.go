// Bullseye - pan/tilt rig that keeps a detected target centred in the frame
// Drives an ESP32 servo controller from a USB camera and a YOLO model
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/teslashibe/go-bullseye/internal/config"
	"github.com/teslashibe/go-bullseye/internal/log"
	"github.com/teslashibe/go-bullseye/pkg/camera"
	"github.com/teslashibe/go-bullseye/pkg/journal"
	"github.com/teslashibe/go-bullseye/pkg/rig"
	"github.com/teslashibe/go-bullseye/pkg/robot"
	"github.com/teslashibe/go-bullseye/pkg/tracking"
	"github.com/teslashibe/go-bullseye/pkg/vision"
	"github.com/teslashibe/go-bullseye/pkg/web"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ .env: %v\n", err)
	}

	cfg, opts := parseFlags()
	cfg.LoadEnvConfig()
	camCfg, err := applyProfile(&cfg, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(2)
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	log.InitWithOptions(log.Options{Level: level, File: cfg.LogFile})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, camCfg); err != nil {
		log.Error("rig stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg rig.Config, camCfg camera.Config) error {
	deps := rig.Deps{
		Robot: newRobot(cfg),
		Clock: tracking.SystemClock{},
	}

	if cfg.JournalPath != "" {
		store, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return err
		}
		deps.Journal = store
	}

	cam, err := newCamera(cfg, camCfg)
	if err != nil {
		if deps.Journal != nil {
			deps.Journal.Close()
		}
		return err
	}
	deps.Camera = cam

	app, err := rig.New(cfg, deps)
	if err != nil {
		cam.Close()
		if deps.Journal != nil {
			deps.Journal.Close()
		}
		return err
	}
	defer app.Shutdown()

	srv := web.NewServer(cfg.WebPort, app)
	app.SetPublisher(srv)
	go func() {
		if err := srv.Start(ctx); err != nil {
			log.Error("web server stopped", "error", err)
		}
	}()
	defer srv.Shutdown()

	if err := app.Init(ctx); err != nil {
		return err
	}

	go console(ctx, app)

	printHelp()
	return app.Run(ctx)
}

func newRobot(cfg rig.Config) robot.Controller {
	limits := robot.LimitsFromConfig(cfg.Tracking)
	if cfg.DryRun {
		home := tracking.NewPositionModel(cfg.Tracking).Pose()
		log.Info("dry run, using simulated actuator")
		return robot.NewSimController(limits, home)
	}
	return robot.NewHTTPController(config.ESP32URL(cfg.ESP32IP), limits)
}

func newCamera(cfg rig.Config, camCfg camera.Config) (*vision.Pipeline, error) {
	camCfg.Index = cfg.CameraIndex
	camCfg.Quality = cfg.JPEGQuality

	src, err := camera.Open(camCfg)
	if err != nil {
		return nil, err
	}

	yoloCfg := vision.DefaultYOLOConfig()
	yoloCfg.ModelPath = cfg.ModelPath
	yoloCfg.Labels = []string{cfg.TargetClass}
	det, err := vision.NewYOLO(yoloCfg)
	if err != nil {
		src.Close()
		return nil, err
	}

	return vision.NewPipeline(src, det, tracking.NewDeadZone(cfg.Tracking), cfg.JPEGQuality), nil
}

// console reads keyboard commands from stdin until EOF or shutdown.
func console(ctx context.Context, app *rig.App) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "h" || line == "help" {
			printHelp()
			continue
		}

		cmd, err := rig.ParseCommand(line)
		if err != nil {
			fmt.Printf("⚠️  %v\n", err)
			continue
		}

		res, err := app.Submit(ctx, cmd)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			fmt.Printf("⚠️  %v\n", err)
		case res.Message != "":
			fmt.Println(res.Message)
		}
		if cmd.Kind == rig.CmdQuit {
			return
		}
	}
}

func printHelp() {
	fmt.Println(`Controls:
  w/a/s/d     nudge tilt/pan (tracking off)
  [ ]         step size down/up
  m           toggle degrees/micros step mode
  track       toggle tracking (track on|off)
  + - r       zoom in/out/reset
  t g         confidence up/down
  c           smooth move to center
  k           calibration sweep
  p           print status
  pan <deg>   tilt <deg>   pus <us>   tus <us>
  smooth <pan> <tilt>
  q           quit`)
}

// profile holds flags that select whole groups of settings.
type profile struct {
	Preset string
	Slow   bool
}

// applyProfile resolves the camera preset and tracking profile into cfg and
// returns the camera config to open. The frame size follows the preset.
func applyProfile(cfg *rig.Config, p profile) (camera.Config, error) {
	preset := camera.GetPreset(p.Preset)
	if preset == nil {
		names := make([]string, 0, len(camera.Presets()))
		for name := range camera.Presets() {
			names = append(names, name)
		}
		sort.Strings(names)
		return camera.Config{}, fmt.Errorf("unknown camera preset %q (have %s)", p.Preset, strings.Join(names, ", "))
	}

	if p.Slow {
		cfg.Tracking = tracking.SlowConfig()
	}
	cfg.Tracking.FrameWidth = preset.Width
	cfg.Tracking.FrameHeight = preset.Height
	if cfg.JPEGQuality == rig.DefaultJPEGQuality {
		cfg.JPEGQuality = preset.Quality
	}
	return *preset, nil
}

// parseFlags parses command line flags and returns configuration.
func parseFlags() (rig.Config, profile) {
	cfg := rig.DefaultConfig()
	var p profile

	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")
	flag.BoolVar(&cfg.DryRun, "dry-run", false, "Simulate the actuator instead of calling the ESP32")
	flag.StringVar(&cfg.ESP32IP, "esp32-ip", cfg.ESP32IP, "ESP32 servo controller address (ESP32_IP)")
	flag.IntVar(&cfg.CameraIndex, "camera", cfg.CameraIndex, "Camera device index (CAMERA_INDEX)")
	flag.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "YOLO ONNX model path (MODEL_PATH)")
	flag.StringVar(&cfg.TargetClass, "class", cfg.TargetClass, "Detector class to track (TARGET_CLASS)")
	flag.Float64Var(&cfg.Confidence, "confidence", cfg.Confidence, "Initial detection confidence (CONFIDENCE)")
	flag.BoolVar(&cfg.TrackOnStart, "track", false, "Start with tracking enabled")
	flag.StringVar(&cfg.WebPort, "port", cfg.WebPort, "Dashboard port (WEB_PORT)")
	flag.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "SQLite event journal, empty to disable (JOURNAL_PATH)")
	flag.StringVar(&cfg.LogFile, "log-file", "", "Rotating log file (LOG_FILE)")
	flag.StringVar(&p.Preset, "preset", camera.PresetDefault, "Camera preset: default, 480p, 720p, 1080p")
	flag.BoolVar(&p.Slow, "slow", false, "Gentler acquisition: slower moves, lower gain")
	flag.Parse()

	return cfg, p
}
