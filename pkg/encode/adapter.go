package encode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bft-labs/recut/pkg/log"
	"github.com/bft-labs/recut/pkg/media"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("encode: adapter closed")

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(l log.Logger) Option {
	return func(a *Adapter) {
		a.logger = log.OrNoop(l)
	}
}

// slot is the timestamp grid position of one frame handed to the encoder.
type slot struct {
	pts, dur int64
	tb       media.Rational
}

// Adapter is the packet stream of one output track.
type Adapter struct {
	track  int
	frames media.FrameIterator
	enc    Encoder
	logger log.Logger

	pending []media.Packet
	grid    []slot

	last    int64
	lastDur int64
	started bool

	flushed bool
	closed  bool

	closeOnce sync.Once
	closeErr  error

	framesIn   int
	packetsOut int
}

// NewAdapter returns the packet stream produced by encoding frames with enc.
// Packets are stamped with track.
func NewAdapter(track int, frames media.FrameIterator, enc Encoder, opts ...Option) *Adapter {
	a := &Adapter{
		track:  track,
		frames: frames,
		enc:    enc,
		logger: log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Track returns the track index stamped on packets.
func (a *Adapter) Track() int { return a.track }

// Next returns the next repaired packet. Once frames are exhausted the
// encoder is flushed; io.EOF follows the last flushed packet.
func (a *Adapter) Next(ctx context.Context) (media.Packet, error) {
	if a.closed {
		return media.Packet{}, ErrClosed
	}
	for len(a.pending) == 0 {
		if a.flushed {
			return media.Packet{}, io.EOF
		}
		f, err := a.frames.Next(ctx)
		if err == io.EOF {
			if err := a.flush(ctx); err != nil {
				return media.Packet{}, err
			}
			continue
		}
		if err != nil {
			return media.Packet{}, fmt.Errorf("track %d: read frame: %w", a.track, err)
		}
		if err := a.encode(ctx, f); err != nil {
			return media.Packet{}, err
		}
	}
	p := a.pending[0]
	a.pending = a.pending[1:]
	return a.repair(p), nil
}

// Drain stops pulling frames and returns every packet the encoder has
// produced or still holds, flushing it if that has not happened yet.
func (a *Adapter) Drain(ctx context.Context) ([]media.Packet, error) {
	if a.closed {
		return nil, ErrClosed
	}
	var err error
	if !a.flushed {
		err = a.flush(ctx)
	}
	out := make([]media.Packet, 0, len(a.pending))
	for _, p := range a.pending {
		out = append(out, a.repair(p))
	}
	a.pending = nil
	return out, err
}

// Close closes the frame source and the encoder. Only the first call has
// any effect; later calls return the first result.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		a.closed = true
		a.closeErr = errors.Join(a.frames.Close(), a.enc.Close())
		a.logger.Debug("encoder closed",
			log.Int("track", a.track),
			log.Int("frames", a.framesIn),
			log.Int("packets", a.packetsOut))
	})
	return a.closeErr
}

func (a *Adapter) encode(ctx context.Context, f media.Frame) error {
	a.grid = append(a.grid, slot{pts: f.PTS, dur: f.Duration, tb: f.TimeBase})
	a.framesIn++
	pkts, err := a.enc.Encode(ctx, f)
	if err != nil {
		return fmt.Errorf("track %d: encode frame %d: %w", a.track, f.SourceIndex, err)
	}
	a.pending = append(a.pending, pkts...)
	return nil
}

func (a *Adapter) flush(ctx context.Context) error {
	a.flushed = true
	pkts, err := a.enc.Flush(ctx)
	a.pending = append(a.pending, pkts...)
	if err != nil {
		return fmt.Errorf("track %d: flush: %w", a.track, err)
	}
	return nil
}

// repair fills in what the encoder left unset: time base and duration from
// the frame grid, a missing pts from the previous packet, and a pts that
// does not advance is moved one tick past the previous one.
func (a *Adapter) repair(p media.Packet) media.Packet {
	var s slot
	haveSlot := len(a.grid) > 0
	if haveSlot {
		s = a.grid[0]
		a.grid = a.grid[1:]
	}
	if !p.TimeBase.Valid() {
		p.TimeBase = s.tb
	}
	if p.Duration <= 0 {
		switch {
		case haveSlot && s.tb.Valid():
			p.Duration = media.Rescale(s.dur, s.tb, p.TimeBase)
		default:
			p.Duration = a.lastDur
		}
	}
	if p.PTS == media.NoPTS {
		switch {
		case a.started:
			p.PTS = a.last + a.lastDur
		case haveSlot && s.tb.Valid():
			p.PTS = media.Rescale(s.pts, s.tb, p.TimeBase)
		default:
			p.PTS = 0
		}
	}
	if a.started && p.PTS <= a.last {
		a.logger.Debug("clamping non-monotonic pts",
			log.Int("track", a.track),
			log.Int64("pts", p.PTS),
			log.Int64("previous", a.last))
		p.PTS = a.last + 1
	}
	p.Track = a.track
	a.last, a.lastDur, a.started = p.PTS, p.Duration, true
	a.packetsOut++
	return p
}
