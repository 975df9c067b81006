package mux

// State is the gate state of a Multiplexer.
type State int

const (
	// StateRunning pulls packets normally.
	StateRunning State = iota
	// StatePaused blocks the next pull until Resume or Cancel.
	StatePaused
	// StateCancelled stops pulling; pending and drained packets are still emitted.
	StateCancelled
	// StateStopped is reached once every packet has been emitted.
	StateStopped
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCancelled:
		return "cancelled"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
