// Package recut edits and re-renders timelines of decoded media frames.
//
// Example usage:
//
//	r, err := recut.New(recut.Config{
//	    ProjectPath: "/path/to/edit.toml",
//	    OutputDir:   "/path/to/out",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := recut.Render(context.Background(), r); err != nil {
//	    log.Fatal(err)
//	}
//
// The engine itself lives in github.com/bft-labs/recut/pkg/recut; this
// package re-exports the common entry points.
package recut

import (
	"context"
	"errors"

	engine "github.com/bft-labs/recut/pkg/recut"
	"github.com/bft-labs/recut/pkg/render"
)

// Config holds the settings of a Recut instance.
type Config = engine.Config

// Option configures optional behavior of Recut.
type Option = engine.Option

// Recut is a render engine for one project.
type Recut = engine.Recut

// New loads and builds the project named by cfg.
func New(cfg Config, opts ...Option) (*Recut, error) {
	return engine.New(cfg, opts...)
}

// Render starts a render and blocks until it ends or ctx is done, then
// shuts the instance's plugins down.
func Render(ctx context.Context, r *Recut) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	err := r.Wait(ctx)
	stopErr := r.Stop()
	if errors.Is(stopErr, render.ErrNotRunning) {
		stopErr = nil
	}
	return errors.Join(err, stopErr)
}
