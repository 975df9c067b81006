package render

import (
	"errors"
	"fmt"
	"strings"
)

// Lifecycle errors. They can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start is called on a running job.
	ErrAlreadyRunning = errors.New("render: already running")

	// ErrNotRunning is returned when Stop, Pause or Resume is called on a
	// job that is not running.
	ErrNotRunning = errors.New("render: not running")

	// ErrNotPaused is returned by Resume when the job is not paused.
	ErrNotPaused = errors.New("render: not paused")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("render: shutdown timeout")

	// ErrNoTracks is reported by validation for a job without tracks.
	ErrNoTracks = errors.New("render: no tracks")
)

// ValidationError lists every problem found before a render was attempted.
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("render: %d validation problem(s): %s", len(e.Errs), strings.Join(msgs, "; "))
}

// Unwrap exposes every problem to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error { return e.Errs }

// Error is a failure during a render. Track is -1 when the failure is not
// tied to one track.
type Error struct {
	Track int
	Err   error
	Stack []byte
}

func (e *Error) Error() string {
	if e.Track < 0 {
		return fmt.Sprintf("render: %v", e.Err)
	}
	return fmt.Sprintf("render: track %d: %v", e.Track, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
