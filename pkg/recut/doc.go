// Package recut provides an embeddable render engine for edited media
// timelines.
//
// A project file names the decodable sources, the output tracks built from
// them and the zones edited into every track. Recut loads the project, builds
// one timeline per track and renders all tracks into a single container, in
// presentation order, on a background worker.
//
// # Basic Usage
//
//	cfg := recut.Config{
//	    ProjectPath: "/path/to/edit.toml",
//	    OutputDir:   "/path/to/out",
//	}
//
//	r, err := recut.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := r.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	if err := r.Wait(context.Background()); err != nil {
//	    log.Printf("render failed: %v", err)
//	}
//
// # Editing
//
// [Recut.Tracks] exposes the built timelines. Edits made through them are
// picked up by the next [Recut.Start] and persisted by [Recut.Save]. A render
// in progress reads from a snapshot and is never affected by later edits.
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler] for no-op defaults)
// and pass it via [WithEventHandler] to receive state changes, progress and
// project reloads. Events are called synchronously from the render goroutines.
//
// # Plugins
//
// Plugins are initialized by Start in registration order and shut down by
// Stop in reverse order:
//
//	import "github.com/bft-labs/recut/plugins/projectwatcher"
//
//	r, err := recut.New(cfg, projectwatcher.WithProjectWatcher(projectwatcher.DefaultConfig()))
package recut
