// Runtime configuration for the edge-detection video loop
package config

import (
	"fmt"
	"time"
)

// Parameter bounds shared with the slider controls
const (
	MaxBlurRadius = 20
	MaxThreshold  = 255
)

const (
	DefaultCameraIndex = 0
	DefaultCodec       = "PIM1"
	DefaultOutputFPS   = 20.0
	DefaultBlurRadius  = 5
	DefaultThreshold   = 125
	DefaultKeyWait     = 10 * time.Millisecond
	EscapeKey          = 27
)

// Config holds everything the processing loop needs to start.
// An empty InputPath selects the camera at CameraIndex; an empty
// OutputPath runs the loop in display-only mode.
type Config struct {
	// === Source ===
	InputPath   string
	CameraIndex int

	// === Sink ===
	OutputPath string
	Codec      string  // four-character code handed to the video writer
	OutputFPS  float64 // forced rate, independent of the source rate

	// === Live parameters (initial slider positions) ===
	BlurRadius int
	Threshold  int

	// === Loop timing ===
	KeyWait time.Duration
	ExitKey int

	// === Optional frame statistics store ===
	StatsPath string

	Debug bool
}

// DefaultConfig returns the camera-in, display-only configuration.
func DefaultConfig() Config {
	return Config{
		CameraIndex: DefaultCameraIndex,
		Codec:       DefaultCodec,
		OutputFPS:   DefaultOutputFPS,
		BlurRadius:  DefaultBlurRadius,
		Threshold:   DefaultThreshold,
		KeyWait:     DefaultKeyWait,
		ExitKey:     EscapeKey,
	}
}

// UseCamera reports whether the source is a capture device rather than a file.
func (c *Config) UseCamera() bool {
	return c.InputPath == ""
}

// WriteOutput reports whether a sink was requested.
func (c *Config) WriteOutput() bool {
	return c.OutputPath != ""
}

// SourceName is the human readable name of the requested source.
func (c *Config) SourceName() string {
	if c.UseCamera() {
		return fmt.Sprintf("camera:%d", c.CameraIndex)
	}
	return c.InputPath
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.CameraIndex < 0 {
		errors = append(errors, "camera index must not be negative")
	}
	if len(c.Codec) != 4 {
		errors = append(errors, "codec must be a four-character code")
	}
	if c.OutputFPS <= 0 {
		errors = append(errors, "output fps must be positive")
	}
	if c.BlurRadius < 0 || c.BlurRadius > MaxBlurRadius {
		errors = append(errors, fmt.Sprintf("blur radius must be between 0 and %d", MaxBlurRadius))
	}
	if c.Threshold < 0 || c.Threshold > MaxThreshold {
		errors = append(errors, fmt.Sprintf("threshold must be between 0 and %d", MaxThreshold))
	}
	if c.KeyWait <= 0 {
		errors = append(errors, "key wait must be positive")
	}

	return errors
}
