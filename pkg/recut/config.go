package recut

import (
	"errors"
	"time"

	"github.com/bft-labs/recut/pkg/render"
	"github.com/bft-labs/recut/pkg/timeline"
)

// Config holds the settings of a Recut instance.
type Config struct {
	// ProjectPath is the project file to load. Required.
	ProjectPath string

	// OutputDir receives the packet log when no writer is configured with
	// WithWriter or WithWriterFactory.
	OutputDir string

	// From and To select the part of every track to render, in Whence
	// units. A To of zero or less renders to the end of each track.
	From   float64
	To     float64
	Whence timeline.Whence

	// ShutdownTimeout bounds how long Stop waits for a render to wind down.
	// Default: 30 seconds
	ShutdownTimeout time.Duration

	// ProgressEvery emits a progress event every n packets.
	// Default: 25
	ProgressEvery int
}

// SetDefaults fills zero-valued fields with defaults.
func (c *Config) SetDefaults() {
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = render.ShutdownTimeout
	}
	if c.ProgressEvery <= 0 {
		c.ProgressEvery = 25
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ProjectPath == "" {
		return errors.New("recut: project path is required")
	}
	if c.From < 0 {
		return errors.New("recut: from must not be negative")
	}
	if c.To > 0 && c.To <= c.From {
		return errors.New("recut: to must be after from")
	}
	return nil
}

// rangeEnd maps the configured end to ResolveRange's "to the end" marker.
func (c Config) rangeEnd() float64 {
	if c.To <= 0 {
		return -1
	}
	return c.To
}
