package render

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/recut/pkg/log"
)

type mockEmitter struct {
	mu     sync.Mutex
	events []State
}

func (m *mockEmitter) OnStateChange(_, current State, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, current)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StatePaused, "Paused"},
		{StateStopping, "Stopping"},
		{StateCrashed, "Crashed"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []State
		next    State
		wantErr error
	}{
		{"start", nil, StateStarting, nil},
		{"stopped cannot run", nil, StateRunning, ErrNotRunning},
		{"pause running", []State{StateStarting, StateRunning}, StatePaused, nil},
		{"resume paused", []State{StateStarting, StateRunning, StatePaused}, StateRunning, nil},
		{"resume running", []State{StateStarting, StateRunning}, StateRunning, ErrNotPaused},
		{"stop paused", []State{StateStarting, StateRunning, StatePaused}, StateStopping, nil},
		{"starting twice", []State{StateStarting}, StateStarting, ErrAlreadyRunning},
		{"crash while stopping", []State{StateStarting, StateRunning, StateStopping}, StateCrashed, nil},
		{"restart after crash", []State{StateStarting, StateCrashed}, StateStarting, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(log.NewNoopLogger(), nil)
			for _, s := range tt.path {
				if err := l.TransitionTo(s, "setup"); err != nil {
					t.Fatalf("setup transition to %v: %v", s, err)
				}
			}
			err := l.TransitionTo(tt.next, "test")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("TransitionTo(%v) = %v, want %v", tt.next, err, tt.wantErr)
			}
		})
	}
}

func TestLifecycle_EmitsEvents(t *testing.T) {
	em := &mockEmitter{}
	l := NewLifecycle(nil, em)
	for _, s := range []State{StateStarting, StateRunning, StateStopping, StateStopped} {
		if err := l.TransitionTo(s, "test"); err != nil {
			t.Fatal(err)
		}
	}
	if len(em.events) != 4 || em.events[3] != StateStopped {
		t.Errorf("events = %v", em.events)
	}
	if !l.CanStart() || l.CanStop() {
		t.Error("stopped lifecycle should be startable and not stoppable")
	}
}

func TestLifecycle_BeginStop(t *testing.T) {
	tests := []struct {
		name      string
		path      []State
		wantBegan bool
		wantErr   error
	}{
		{"running", []State{StateStarting, StateRunning}, true, nil},
		{"paused", []State{StateStarting, StateRunning, StatePaused}, true, nil},
		{"already stopping", []State{StateStarting, StateRunning, StateStopping}, false, nil},
		{"stopped", nil, false, ErrNotRunning},
		{"crashed", []State{StateStarting, StateCrashed}, false, ErrNotRunning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(nil, nil)
			for _, s := range tt.path {
				if err := l.TransitionTo(s, "setup"); err != nil {
					t.Fatalf("setup transition to %v: %v", s, err)
				}
			}
			began, err := l.BeginStop("test")
			if began != tt.wantBegan || !errors.Is(err, tt.wantErr) {
				t.Errorf("BeginStop() = %v, %v, want %v, %v", began, err, tt.wantBegan, tt.wantErr)
			}
			if tt.wantErr == nil && l.State() != StateStopping {
				t.Errorf("State() = %v, want Stopping", l.State())
			}
		})
	}
}

func TestLifecycle_WaitWithTimeout(t *testing.T) {
	l := NewLifecycle(nil, nil)
	l.AddWorker()
	if err := l.WaitWithTimeout(10 * time.Millisecond); !errors.Is(err, ErrShutdownTimeout) {
		t.Errorf("WaitWithTimeout() = %v, want ErrShutdownTimeout", err)
	}
	l.WorkerDone()
	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout() = %v, want nil", err)
	}
}
