package media

import (
	"context"
	"io"
)

// FrameIterator yields frames in presentation order.
// Next returns io.EOF when no frames remain.
type FrameIterator interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// PacketIterator yields encoded packets of a single track, or of several
// tracks once multiplexed. Next returns io.EOF when no packets remain.
type PacketIterator interface {
	Next(ctx context.Context) (Packet, error)
}

// SliceFrames is a FrameIterator over an in-memory slice.
type SliceFrames struct {
	frames []Frame
	pos    int
}

// NewSliceFrames returns an iterator over frames.
func NewSliceFrames(frames []Frame) *SliceFrames {
	return &SliceFrames{frames: frames}
}

// Next returns the next frame or io.EOF.
func (s *SliceFrames) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.pos >= len(s.frames) {
		return Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

// Close is a no-op.
func (s *SliceFrames) Close() error { return nil }

// SlicePackets is a PacketIterator over an in-memory slice.
type SlicePackets struct {
	packets []Packet
	pos     int
}

// NewSlicePackets returns an iterator over packets.
func NewSlicePackets(packets []Packet) *SlicePackets {
	return &SlicePackets{packets: packets}
}

// Next returns the next packet or io.EOF.
func (s *SlicePackets) Next(ctx context.Context) (Packet, error) {
	if err := ctx.Err(); err != nil {
		return Packet{}, err
	}
	if s.pos >= len(s.packets) {
		return Packet{}, io.EOF
	}
	p := s.packets[s.pos]
	s.pos++
	return p, nil
}

// CollectFrames drains it and closes it.
func CollectFrames(ctx context.Context, it FrameIterator) ([]Frame, error) {
	defer it.Close()
	var out []Frame
	for {
		f, err := it.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
}

// CollectPackets drains it.
func CollectPackets(ctx context.Context, it PacketIterator) ([]Packet, error) {
	var out []Packet
	for {
		p, err := it.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}
}
