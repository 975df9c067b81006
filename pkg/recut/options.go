package recut

import (
	"github.com/bft-labs/recut/internal/adapters/synth"
	"github.com/bft-labs/recut/pkg/encode"
	"github.com/bft-labs/recut/pkg/log"
	"github.com/bft-labs/recut/pkg/project"
	"github.com/bft-labs/recut/pkg/render"
)

// EncoderFactory creates the encoder a track's spec names. It is called once
// per track and render.
type EncoderFactory func(project.EncoderSpec) (encode.Encoder, error)

// WriterFactory creates the container writer of one render.
type WriterFactory func() (render.Writer, error)

// Option configures optional behavior of Recut.
type Option func(*options)

type options struct {
	logger       log.Logger
	eventHandler EventHandler
	plugins      []Plugin
	sources      project.SourceFactory
	encoders     EncoderFactory
	writers      WriterFactory
}

func defaultOptions() options {
	return options{
		logger:   log.NewNoopLogger(),
		sources:  synth.Open,
		encoders: synth.NewEncoder,
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.OrNoop(logger)
	}
}

// WithEventHandler sets a handler for Recut events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when Recut starts.
// Plugins are initialized in registration order and shutdown in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithSourceFactory sets how project sources are opened. The default
// generates synthetic frames.
func WithSourceFactory(f project.SourceFactory) Option {
	return func(o *options) {
		o.sources = f
	}
}

// WithEncoderFactory sets how track encoders are created. The default copies
// frame payloads into packets.
func WithEncoderFactory(f EncoderFactory) Option {
	return func(o *options) {
		o.encoders = f
	}
}

// WithWriterFactory sets how each render's container writer is created.
// The default writes a packet log into Config.OutputDir.
func WithWriterFactory(f WriterFactory) Option {
	return func(o *options) {
		o.writers = f
	}
}

// WithWriter renders into w. w is closed at the end of the render, so it
// serves a single Start.
func WithWriter(w render.Writer) Option {
	return WithWriterFactory(func() (render.Writer, error) { return w, nil })
}
