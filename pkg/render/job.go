package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/recut/pkg/encode"
	"github.com/bft-labs/recut/pkg/log"
	"github.com/bft-labs/recut/pkg/media"
	"github.com/bft-labs/recut/pkg/mux"
	"github.com/bft-labs/recut/pkg/timeline"
)

// Writer is the container write capability. Packets arrive in output order
// and carry the index of the track they belong to.
type Writer interface {
	WritePacket(p media.Packet) error
	Close() error
}

// Validator is implemented by sources that can report problems up front,
// such as a concatenation of incompatible segments.
type Validator interface {
	Validate() []error
}

// Track is one output track: a frame source and the encoder for it.
type Track struct {
	Name    string
	Source  timeline.Source
	Encoder encode.Encoder

	// Start and End select output frames [Start, End) of Source. An End of
	// 0 selects through the last frame.
	Start int
	End   int
}

func (t Track) bounds() (int, int) {
	end := t.End
	if end == 0 {
		end = t.Source.FrameCount()
	}
	return t.Start, end
}

// Progress reports how far a render has come.
type Progress struct {
	JobID   string
	Packets int
	Track   int
	PTS     int64
	Seconds float64
}

// EventHandler receives job events. Calls come from the job's goroutines.
type EventHandler interface {
	OnStateChange(previous, current State, reason string)
	OnProgress(p Progress)
}

// Option configures a Job.
type Option func(*Job)

// WithLogger sets the job's logger.
func WithLogger(l log.Logger) Option {
	return func(j *Job) { j.logger = log.OrNoop(l) }
}

// WithEventHandler sets the receiver of state and progress events.
func WithEventHandler(h EventHandler) Option {
	return func(j *Job) { j.handler = h }
}

// WithShutdownTimeout bounds how long Stop waits.
func WithShutdownTimeout(d time.Duration) Option {
	return func(j *Job) { j.shutdownTimeout = d }
}

// WithProgressEvery emits a progress event every n packets.
func WithProgressEvery(n int) Option {
	return func(j *Job) {
		if n > 0 {
			j.progressEvery = n
		}
	}
}

// WithID overrides the generated job id.
func WithID(id string) Option {
	return func(j *Job) { j.id = id }
}

// Job renders a set of tracks into one Writer.
type Job struct {
	id              string
	tracks          []Track
	writer          Writer
	logger          log.Logger
	handler         EventHandler
	lifecycle       *Lifecycle
	shutdownTimeout time.Duration
	progressEvery   int

	mu      sync.Mutex
	mux     *mux.Multiplexer
	done    chan struct{}
	err     error
	packets int
}

// NewJob creates a job in StateStopped.
func NewJob(tracks []Track, w Writer, opts ...Option) *Job {
	j := &Job{
		id:              uuid.New().String(),
		tracks:          tracks,
		writer:          w,
		logger:          log.NewNoopLogger(),
		shutdownTimeout: ShutdownTimeout,
		progressEvery:   25,
	}
	for _, opt := range opts {
		opt(j)
	}
	j.logger = withJob(j.logger, j.id)
	j.lifecycle = NewLifecycle(j.logger, emitter{j: j})
	return j
}

// withJob tags every entry with the job id when the logger supports it.
func withJob(l log.Logger, id string) log.Logger {
	if z, ok := l.(*log.ZerologAdapter); ok {
		return z.With(log.String("job", id))
	}
	return l
}

type emitter struct{ j *Job }

func (e emitter) OnStateChange(previous, current State, reason string) {
	if e.j.handler != nil {
		e.j.handler.OnStateChange(previous, current, reason)
	}
}

// ID returns the job's unique id.
func (j *Job) ID() string { return j.id }

// State returns the current lifecycle state.
func (j *Job) State() State { return j.lifecycle.State() }

// Validate checks every track without starting anything. It returns a
// *ValidationError listing all problems, or nil.
func (j *Job) Validate() error {
	var errs []error
	if len(j.tracks) == 0 {
		errs = append(errs, ErrNoTracks)
	}
	for i, t := range j.tracks {
		if t.Source == nil {
			errs = append(errs, fmt.Errorf("track %d: no source", i))
			continue
		}
		if t.Encoder == nil {
			errs = append(errs, fmt.Errorf("track %d: no encoder", i))
		}
		if v, ok := t.Source.(Validator); ok {
			for _, err := range v.Validate() {
				errs = append(errs, fmt.Errorf("track %d: %w", i, err))
			}
		}
		if !t.Source.TimeBase().Valid() {
			errs = append(errs, fmt.Errorf("track %d: invalid time base %s", i, t.Source.TimeBase()))
		}
		start, end := t.bounds()
		if err := timeline.CheckRange(start, end, t.Source.FrameCount()); err != nil {
			errs = append(errs, fmt.Errorf("track %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Errs: errs}
	}
	return nil
}

// Start validates the job and begins rendering in the background. Each
// track's frames are read from a snapshot taken here, so later timeline
// edits do not affect this render.
func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}
	if err := j.Validate(); err != nil {
		j.logger.Warn("render blocked by validation", log.Err(err))
		return err
	}
	if err := j.lifecycle.TransitionTo(StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	j.lifecycle.SetCancel(cancel)

	iters := make([]media.PacketIterator, 0, len(j.tracks))
	for i, t := range j.tracks {
		start, end := t.bounds()
		frames, err := t.Source.Frames(runCtx, start, end)
		if err != nil {
			cancel()
			m := mux.New(iters)
			closeErr := m.Close()
			for _, rest := range j.tracks[i:] {
				closeErr = errors.Join(closeErr, rest.Encoder.Close())
			}
			rerr := &Error{Track: i, Err: errors.Join(err, closeErr), Stack: debug.Stack()}
			_ = j.lifecycle.TransitionTo(StateCrashed, rerr.Error())
			return rerr
		}
		iters = append(iters, encode.NewAdapter(i, frames, t.Encoder, encode.WithLogger(j.logger)))
	}
	j.mux = mux.New(iters, mux.WithLogger(j.logger))
	j.done = make(chan struct{})
	j.err = nil
	j.packets = 0

	if err := j.lifecycle.TransitionTo(StateRunning, "tracks opened"); err != nil {
		cancel()
		return err
	}

	j.lifecycle.AddWorker()
	go j.run(runCtx, j.mux, j.done)
	return nil
}

// run drives the multiplexer and the writer until the merge ends or one of
// them fails.
func (j *Job) run(ctx context.Context, m *mux.Multiplexer, done chan struct{}) {
	defer j.lifecycle.WorkerDone()
	defer close(done)

	started := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	out := make(chan media.Packet, 1)

	g.Go(func() error {
		defer close(out)
		for {
			p, err := m.Next(gctx)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return wrap(err)
			}
			select {
			case out <- p:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		for p := range out {
			if err := j.writer.WritePacket(p); err != nil {
				return &Error{Track: p.Track, Err: fmt.Errorf("write: %w", err), Stack: debug.Stack()}
			}
			j.progress(p)
		}
		return nil
	})

	err := g.Wait()
	// Encoders are closed whatever happened above.
	if cerr := m.Close(); cerr != nil {
		err = errors.Join(err, wrap(cerr))
	}
	if werr := j.writer.Close(); werr != nil {
		err = errors.Join(err, &Error{Track: -1, Err: fmt.Errorf("close writer: %w", werr), Stack: debug.Stack()})
	}
	j.lifecycle.Cancel()

	j.mu.Lock()
	j.err = err
	packets := j.packets
	j.mu.Unlock()

	if err != nil {
		j.logger.Error("render failed",
			log.Err(err),
			log.Int("packets", packets))
		_ = j.lifecycle.TransitionTo(StateCrashed, err.Error())
		return
	}

	j.logger.Info("render finished",
		log.Int("packets", packets),
		log.Duration("elapsed", time.Since(started)))
	if st := j.lifecycle.State(); st == StateRunning || st == StatePaused {
		_ = j.lifecycle.TransitionTo(StateStopping, "render complete")
	}
	_ = j.lifecycle.TransitionTo(StateStopped, "render complete")
}

// wrap turns an error from the merge into a render Error.
func wrap(err error) error {
	var re *Error
	if errors.As(err, &re) {
		return err
	}
	track := -1
	var te *mux.TrackError
	if errors.As(err, &te) {
		track = te.Track
	}
	return &Error{Track: track, Err: err, Stack: debug.Stack()}
}

func (j *Job) progress(p media.Packet) {
	j.mu.Lock()
	j.packets++
	n := j.packets
	j.mu.Unlock()

	if j.handler == nil || n%j.progressEvery != 0 {
		return
	}
	j.handler.OnProgress(Progress{
		JobID:   j.id,
		Packets: n,
		Track:   p.Track,
		PTS:     p.PTS,
		Seconds: p.Seconds(),
	})
}

// Packets returns the number of packets written so far.
func (j *Job) Packets() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.packets
}

// Pause blocks the render at the multiplexer's next pull.
func (j *Job) Pause() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.lifecycle.State() != StateRunning {
		return ErrNotRunning
	}
	if err := j.lifecycle.TransitionTo(StatePaused, "Pause() called"); err != nil {
		return err
	}
	j.mux.Pause()
	return nil
}

// Resume continues a paused render from where it stopped.
func (j *Job) Resume() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.lifecycle.TransitionTo(StateRunning, "Resume() called"); err != nil {
		return err
	}
	j.mux.Resume()
	return nil
}

// Stop ends the render cooperatively: no new frames are encoded, but
// packets already produced and every encoder's flush are written before
// the writer is closed. If that takes longer than the shutdown timeout the
// render is aborted and ErrShutdownTimeout returned. Stopping a render that
// is already completing waits for it and returns its result.
func (j *Job) Stop() error {
	j.mu.Lock()
	began, err := j.lifecycle.BeginStop("Stop() called")
	if err != nil {
		j.mu.Unlock()
		return err
	}
	if began {
		j.mux.Cancel()
	}
	j.mu.Unlock()

	if err := j.lifecycle.WaitWithTimeout(j.shutdownTimeout); err != nil {
		j.lifecycle.Cancel()
		_ = j.lifecycle.TransitionTo(StateCrashed, "shutdown timeout")
		return err
	}
	return j.Err()
}

// Wait blocks until the render ends and returns its error.
func (j *Job) Wait(ctx context.Context) error {
	j.mu.Lock()
	done := j.done
	j.mu.Unlock()
	if done == nil {
		return ErrNotRunning
	}
	select {
	case <-done:
		return j.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the error of the last finished render, or nil.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}
