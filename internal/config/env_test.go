package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestString(t *testing.T) {
	t.Setenv("BULLSEYE_TEST_STR", "x")
	if got := String("BULLSEYE_TEST_STR", "def"); got != "x" {
		t.Errorf("Expected x, got %q", got)
	}
	if got := String("BULLSEYE_TEST_UNSET", "def"); got != "def" {
		t.Errorf("Expected default, got %q", got)
	}
}

func TestNumericFallbacks(t *testing.T) {
	t.Setenv("BULLSEYE_TEST_INT", "7")
	t.Setenv("BULLSEYE_TEST_BAD", "seven")
	t.Setenv("BULLSEYE_TEST_FLOAT", "0.25")
	t.Setenv("BULLSEYE_TEST_DUR", "150ms")

	if got := Int("BULLSEYE_TEST_INT", 1); got != 7 {
		t.Errorf("Expected 7, got %d", got)
	}
	if got := Int("BULLSEYE_TEST_BAD", 1); got != 1 {
		t.Errorf("Expected fallback for malformed int, got %d", got)
	}
	if got := Float("BULLSEYE_TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("Expected 0.25, got %v", got)
	}
	if got := Duration("BULLSEYE_TEST_DUR", time.Second); got != 150*time.Millisecond {
		t.Errorf("Expected 150ms, got %v", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("BULLSEYE_DOTENV_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("BULLSEYE_DOTENV_VALUE") })

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("BULLSEYE_DOTENV_VALUE"); got != "from-file" {
		t.Errorf("Expected value from file, got %q", got)
	}
}

func TestESP32URL(t *testing.T) {
	if got := ESP32URL("10.0.0.5"); got != "http://10.0.0.5" {
		t.Errorf("Expected http://10.0.0.5, got %q", got)
	}
}
