// Package config provides environment configuration helpers for go-bullseye commands.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults used when the environment does not override them.
const (
	DefaultESP32IP     = "192.168.4.1"
	DefaultCameraIndex = 1
	DefaultModelPath   = "models/bullseye.onnx"
	DefaultWebPort     = "8080"
	DefaultJournalPath = "bullseye.db"
	DefaultLogLevel    = "info"
	DefaultTargetClass = "bullseye"
)

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given). A missing file is not an error; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// String returns the env var or def when unset.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the env var parsed as int, or def when unset or malformed.
func Int(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Float returns the env var parsed as float64, or def when unset or malformed.
func Float(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// Duration returns the env var parsed with time.ParseDuration, or def.
func Duration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// ESP32IP returns the actuator address from ESP32_IP.
func ESP32IP() string { return String("ESP32_IP", DefaultESP32IP) }

// ESP32URL returns the actuator base URL.
func ESP32URL(ip string) string {
	return fmt.Sprintf("http://%s", ip)
}

// CameraIndex returns the capture device from CAMERA_INDEX.
func CameraIndex() int { return Int("CAMERA_INDEX", DefaultCameraIndex) }

// ModelPath returns the ONNX model path from MODEL_PATH.
func ModelPath() string { return String("MODEL_PATH", DefaultModelPath) }

// TargetClass returns the tracked class name from TARGET_CLASS.
func TargetClass() string { return String("TARGET_CLASS", DefaultTargetClass) }

// LogLevel returns LOG_LEVEL.
func LogLevel() string { return String("LOG_LEVEL", DefaultLogLevel) }

// LogFile returns LOG_FILE; empty disables file logging.
func LogFile() string { return os.Getenv("LOG_FILE") }

// WebPort returns the dashboard port from WEB_PORT.
func WebPort() string { return String("WEB_PORT", DefaultWebPort) }

// JournalPath returns the SQLite journal path from JOURNAL_PATH.
func JournalPath() string { return String("JOURNAL_PATH", DefaultJournalPath) }
