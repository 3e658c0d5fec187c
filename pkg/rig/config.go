// Package rig runs the bullseye tracking rig: camera loop, tracking session,
// actuator commands and operator controls.
package rig

import (
	"fmt"
	"strconv"

	"github.com/teslashibe/go-bullseye/internal/config"
	"github.com/teslashibe/go-bullseye/pkg/tracking"
)

// Default configuration values.
const (
	DefaultConfidence  = 0.5
	DefaultJPEGQuality = 80
	MinConfidence      = 0.1
	MaxConfidence      = 0.9
)

// Config holds all configuration for the rig.
// Flag parsing is done in cmd/bullseye/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// ESP32IP is the address of the servo controller.
	ESP32IP string

	// DryRun replaces the ESP32 with an in-memory actuator.
	DryRun bool

	// Camera and detector.
	CameraIndex int
	ModelPath   string
	TargetClass string
	Confidence  float64
	JPEGQuality int

	// TrackOnStart enables automatic tracking as soon as the loop starts.
	TrackOnStart bool

	// Operator surfaces and storage.
	WebPort     string
	JournalPath string // Empty disables the journal
	LogLevel    string
	LogFile     string

	// Tracking holds every controller constant.
	Tracking tracking.Config
}

// DefaultConfig returns the rig's stock configuration.
func DefaultConfig() Config {
	return Config{
		ESP32IP:     config.DefaultESP32IP,
		CameraIndex: config.DefaultCameraIndex,
		ModelPath:   config.DefaultModelPath,
		TargetClass: config.DefaultTargetClass,
		Confidence:  DefaultConfidence,
		JPEGQuality: DefaultJPEGQuality,
		WebPort:     config.DefaultWebPort,
		JournalPath: config.DefaultJournalPath,
		LogLevel:    config.DefaultLogLevel,
		Tracking:    tracking.DefaultConfig(),
	}
}

// LoadEnvConfig applies environment values to fields still at their defaults.
// Call this after flag parsing so explicit flags win.
func (c *Config) LoadEnvConfig() {
	def := DefaultConfig()

	if c.ESP32IP == def.ESP32IP {
		c.ESP32IP = config.ESP32IP()
	}
	if c.CameraIndex == def.CameraIndex {
		c.CameraIndex = config.CameraIndex()
	}
	if c.ModelPath == def.ModelPath {
		c.ModelPath = config.ModelPath()
	}
	if c.TargetClass == def.TargetClass {
		c.TargetClass = config.TargetClass()
	}
	if c.Confidence == def.Confidence {
		c.Confidence = config.Float("CONFIDENCE", def.Confidence)
	}
	if c.WebPort == def.WebPort {
		c.WebPort = config.WebPort()
	}
	if c.JournalPath == def.JournalPath {
		c.JournalPath = config.JournalPath()
	}
	if c.LogLevel == def.LogLevel {
		c.LogLevel = config.LogLevel()
	}
	if c.LogFile == "" {
		c.LogFile = config.LogFile()
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ESP32IP == "" && !c.DryRun {
		return &ConfigError{Field: "ESP32IP", Message: "ESP32_IP is required unless running dry"}
	}
	if c.CameraIndex < 0 {
		return &ConfigError{Field: "CameraIndex", Message: fmt.Sprintf("camera index must be >= 0, got %d", c.CameraIndex)}
	}
	if c.ModelPath == "" {
		return &ConfigError{Field: "ModelPath", Message: "MODEL_PATH is required"}
	}
	if c.TargetClass == "" {
		return &ConfigError{Field: "TargetClass", Message: "target class must not be empty"}
	}
	if c.Confidence < MinConfidence || c.Confidence > MaxConfidence {
		return &ConfigError{Field: "Confidence", Message: fmt.Sprintf("confidence must be within [%.1f, %.1f], got %.2f", MinConfidence, MaxConfidence, c.Confidence)}
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return &ConfigError{Field: "JPEGQuality", Message: fmt.Sprintf("jpeg quality must be within [1, 100], got %d", c.JPEGQuality)}
	}
	if c.WebPort != "" {
		if p, err := strconv.Atoi(c.WebPort); err != nil || p < 1 || p > 65535 {
			return &ConfigError{Field: "WebPort", Message: fmt.Sprintf("invalid web port %q", c.WebPort)}
		}
	}
	if err := c.Tracking.Validate(); err != nil {
		return &ConfigError{Field: "Tracking", Message: err.Error()}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
