package mux

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bft-labs/recut/pkg/log"
	"github.com/bft-labs/recut/pkg/media"
)

// Drainer is implemented by tracks that can hand over everything they have
// already produced, including an encoder flush, without producing more.
type Drainer interface {
	Drain(ctx context.Context) ([]media.Packet, error)
}

// TrackError attributes a failure to the track it came from.
type TrackError struct {
	Track int
	Op    string
	Err   error
}

func (e *TrackError) Error() string {
	return fmt.Sprintf("mux: track %d: %s: %v", e.Track, e.Op, e.Err)
}

func (e *TrackError) Unwrap() error { return e.Err }

// Option configures a Multiplexer.
type Option func(*Multiplexer)

// WithLogger sets the multiplexer's logger.
func WithLogger(l log.Logger) Option {
	return func(m *Multiplexer) {
		m.logger = log.OrNoop(l)
	}
}

// Multiplexer is a lazy k-way merge of packet iterators. Next must be called
// from a single goroutine; Pause, Resume, Cancel and State may be called
// from any goroutine.
type Multiplexer struct {
	tracks []media.PacketIterator
	logger log.Logger

	mu    sync.Mutex
	state State
	wake  chan struct{}

	pending  packetHeap
	live     []bool
	seq      uint64
	started  bool
	refill   int
	drained  bool
	err      error
	drainErr error
	emitted  int
}

// New returns a multiplexer over tracks. Track i of the merge is tracks[i];
// ties in presentation time are emitted in track order.
func New(tracks []media.PacketIterator, opts ...Option) *Multiplexer {
	m := &Multiplexer{
		tracks: tracks,
		logger: log.NewNoopLogger(),
		wake:   make(chan struct{}, 1),
		live:   make([]bool, len(tracks)),
		refill: -1,
	}
	for i := range m.live {
		m.live[i] = true
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current gate state.
func (m *Multiplexer) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Pause blocks the merge at its next pull. It reports whether the state changed.
func (m *Multiplexer) Pause() bool {
	return m.transition(StatePaused, StateRunning)
}

// Resume continues a paused merge from where it stopped.
func (m *Multiplexer) Resume() bool {
	return m.transition(StateRunning, StatePaused)
}

// Cancel stops pulling new packets. Packets already pending, and packets the
// tracks have already produced, are still emitted before io.EOF.
func (m *Multiplexer) Cancel() bool {
	return m.transition(StateCancelled, StateRunning, StatePaused)
}

func (m *Multiplexer) transition(to State, from ...State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range from {
		if m.state == f {
			m.logger.Debug("mux state changed",
				log.String("from", m.state.String()),
				log.String("to", to.String()))
			m.state = to
			select {
			case m.wake <- struct{}{}:
			default:
			}
			return true
		}
	}
	return false
}

// gate is the suspension point in front of every pull.
func (m *Multiplexer) gate(ctx context.Context) (State, error) {
	for {
		st := m.State()
		if st != StatePaused {
			return st, nil
		}
		select {
		case <-m.wake:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// pull refills the pending slot of track i.
func (m *Multiplexer) pull(ctx context.Context, i int) error {
	if !m.live[i] {
		return nil
	}
	st, err := m.gate(ctx)
	if err != nil {
		return err
	}
	if st != StateRunning {
		return nil
	}
	p, err := m.tracks[i].Next(ctx)
	if err == io.EOF {
		m.live[i] = false
		return nil
	}
	if err != nil {
		m.live[i] = false
		return &TrackError{Track: i, Op: "next", Err: err}
	}
	m.push(p, i)
	return nil
}

func (m *Multiplexer) push(p media.Packet, track int) {
	heap.Push(&m.pending, item{pkt: p, track: track, seq: m.seq})
	m.seq++
}

// drain collects what every live track has already produced.
func (m *Multiplexer) drain(ctx context.Context) {
	m.drained = true
	var errs []error
	for i, t := range m.tracks {
		if !m.live[i] {
			continue
		}
		m.live[i] = false
		d, ok := t.(Drainer)
		if !ok {
			continue
		}
		pkts, err := d.Drain(ctx)
		for _, p := range pkts {
			m.push(p, i)
		}
		if err != nil {
			errs = append(errs, &TrackError{Track: i, Op: "drain", Err: err})
		}
	}
	m.drainErr = errors.Join(errs...)
	m.logger.Info("mux cancelled; drained tracks",
		log.Int("pending", m.pending.Len()),
		log.Int("emitted", m.emitted))
}

// Next returns the pending packet with the smallest presentation time.
// It returns io.EOF once every track is exhausted, or once a cancelled
// merge has emitted its remaining packets.
func (m *Multiplexer) Next(ctx context.Context) (media.Packet, error) {
	if m.err != nil {
		return media.Packet{}, m.err
	}
	if !m.started {
		m.started = true
		for i := range m.tracks {
			if err := m.pull(ctx, i); err != nil {
				m.err = err
				return media.Packet{}, err
			}
		}
	}
	if i := m.refill; i >= 0 {
		m.refill = -1
		if err := m.pull(ctx, i); err != nil {
			m.err = err
			return media.Packet{}, err
		}
	}
	if m.State() == StateCancelled && !m.drained {
		m.drain(ctx)
	}
	if m.pending.Len() == 0 {
		m.mu.Lock()
		m.state = StateStopped
		m.mu.Unlock()
		if m.drainErr != nil {
			m.err = m.drainErr
			return media.Packet{}, m.err
		}
		return media.Packet{}, io.EOF
	}
	it := heap.Pop(&m.pending).(item)
	m.refill = it.track
	m.emitted++
	return it.pkt, nil
}

// Emitted returns the number of packets returned so far.
func (m *Multiplexer) Emitted() int { return m.emitted }

// Close closes every track that implements io.Closer, even if some fail.
func (m *Multiplexer) Close() error {
	var errs []error
	for i, t := range m.tracks {
		if c, ok := t.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, &TrackError{Track: i, Op: "close", Err: err})
			}
		}
	}
	return errors.Join(errs...)
}
