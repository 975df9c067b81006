package recut

import (
	"github.com/bft-labs/recut/pkg/render"
)

// State is the lifecycle state of the current render.
type State = render.State

const (
	StateStopped  = render.StateStopped
	StateStarting = render.StateStarting
	StateRunning  = render.StateRunning
	StatePaused   = render.StatePaused
	StateStopping = render.StateStopping
	StateCrashed  = render.StateCrashed
)

// StateChangeEvent is emitted on every render state transition.
type StateChangeEvent struct {
	JobID    string
	Previous State
	Current  State
	Reason   string
}

// ProgressEvent reports packets written so far.
type ProgressEvent = render.Progress

// ReloadEvent is emitted after a project reload attempt. Err is nil when the
// new project was accepted.
type ReloadEvent struct {
	Path   string
	Tracks int
	Err    error
}

// EventHandler receives Recut events.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnProgress(event ProgressEvent)
	OnReload(event ReloadEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnProgress(ProgressEvent)       {}
func (BaseEventHandler) OnReload(ReloadEvent)           {}

// eventEmitterWrapper adapts EventHandler to render.EventHandler.
type eventEmitterWrapper struct {
	handler EventHandler
	jobID   string
}

func (e *eventEmitterWrapper) OnStateChange(previous, current render.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		JobID:    e.jobID,
		Previous: previous,
		Current:  current,
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnProgress(p render.Progress) {
	if e.handler == nil {
		return
	}
	e.handler.OnProgress(p)
}
