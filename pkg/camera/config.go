// Package camera opens the USB camera and applies the software zoom.
package camera

// Config holds the capture parameters.
type Config struct {
	Index     int `json:"index"`     // Device index passed to the capture backend
	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Requested FPS (0 = device default)
	Quality   int `json:"quality"`   // JPEG quality 1-100 for streamed frames
}

// Capture limits accepted by Validate.
const (
	MaxWidth  = 3840
	MaxHeight = 2160
)

// DefaultConfig returns the 1280x720 configuration the tracker is tuned for.
func DefaultConfig() Config {
	return Config{
		Index:     1,
		Width:     1280,
		Height:    720,
		Framerate: 30,
		Quality:   80,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Index < 0 {
		errors = append(errors, "index must not be negative")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 0 || c.Framerate > 120 {
		errors = append(errors, "framerate must be between 0 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}
