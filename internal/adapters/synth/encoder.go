package synth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/recut/pkg/encode"
	"github.com/bft-labs/recut/pkg/media"
	"github.com/bft-labs/recut/pkg/project"
)

// ErrEncoderClosed is returned by Encode after Close.
var ErrEncoderClosed = errors.New("synth: encoder closed")

// RawEncoder copies frame payloads into packets. It holds back up to
// Lookahead frames before emitting, the way a real encoder with look-ahead
// delays its output. With a bitrate set, each payload is cut to the bytes
// that rate allows for the frame's duration.
type RawEncoder struct {
	lookahead int
	bitrate   int64

	mu      sync.Mutex
	pending []media.Frame
	closed  bool
}

// NewEncoder builds the encoder an EncoderSpec names.
func NewEncoder(spec project.EncoderSpec) (encode.Encoder, error) {
	switch spec.Name {
	case "", "raw":
		e := NewRawEncoder(spec.Lookahead)
		e.bitrate = spec.Bitrate
		return e, nil
	}
	return nil, fmt.Errorf("synth: unknown encoder %q", spec.Name)
}

// NewRawEncoder creates a raw encoder with the given look-ahead depth.
func NewRawEncoder(lookahead int) *RawEncoder {
	return &RawEncoder{lookahead: max(lookahead, 0)}
}

func (e *RawEncoder) Encode(ctx context.Context, f media.Frame) ([]media.Packet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEncoderClosed
	}
	e.pending = append(e.pending, f)
	if len(e.pending) <= e.lookahead {
		return nil, nil
	}
	out := e.packet(e.pending[0])
	e.pending = e.pending[1:]
	return []media.Packet{out}, nil
}

func (e *RawEncoder) Flush(ctx context.Context) ([]media.Packet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]media.Packet, 0, len(e.pending))
	for _, f := range e.pending {
		out = append(out, e.packet(f))
	}
	e.pending = nil
	return out, nil
}

func (e *RawEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.pending = nil
	return nil
}

func (e *RawEncoder) packet(f media.Frame) media.Packet {
	data := f.Payload
	if e.bitrate > 0 && f.TimeBase.Valid() {
		n := e.bitrate * f.Duration * f.TimeBase.Num / (8 * f.TimeBase.Den)
		data = data[:min(max(int(n), 1), len(data))]
	}
	return media.Packet{
		Data:     append([]byte(nil), data...),
		PTS:      f.PTS,
		Duration: f.Duration,
		TimeBase: f.TimeBase,
		Keyframe: f.Keyframe,
	}
}
