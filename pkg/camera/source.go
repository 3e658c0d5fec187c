package camera

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-bullseye/internal/log"
)

// ErrNoFrame is returned when the device stops producing frames.
var ErrNoFrame = errors.New("camera: no frame")

// Source wraps a capture device.
type Source struct {
	cfg Config
	cap *gocv.VideoCapture

	mu     sync.Mutex
	closed bool
}

// Open starts capturing from the configured device.
func Open(cfg Config) (*Source, error) {
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", problems)
	}

	vc, err := gocv.VideoCaptureDevice(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("camera: open device %d: %w", cfg.Index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera: device %d not opened", cfg.Index)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	if cfg.Framerate > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}
	vc.Set(gocv.VideoCaptureBufferSize, 1)

	log.Info("camera opened", "index", cfg.Index, "width", cfg.Width, "height", cfg.Height)

	return &Source{cfg: cfg, cap: vc}, nil
}

// Config returns the capture configuration.
func (s *Source) Config() Config {
	return s.cfg
}

// Read blocks until the next frame is available and decodes it into frame.
func (s *Source) Read(frame *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNoFrame
	}
	if ok := s.cap.Read(frame); !ok || frame.Empty() {
		return ErrNoFrame
	}
	return nil
}

// Close releases the device.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.cap.Close()
}
