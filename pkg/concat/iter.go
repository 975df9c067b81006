package concat

import (
	"context"
	"fmt"
	"io"

	"github.com/bft-labs/recut/pkg/media"
	"github.com/bft-labs/recut/pkg/timeline"
)

// span of global frames [lo, hi) that falls in one segment.
type piece struct {
	seg    int
	lo, hi int // segment-local
	base   int // global index of local frame 0
}

func (c *Concat) pieces(start, end int) ([]piece, error) {
	l := c.layout()
	if err := timeline.CheckRange(start, end, l.frameStarts[len(c.segs)]); err != nil {
		return nil, err
	}
	var out []piece
	for i := range c.segs {
		s, e := l.frameStarts[i], l.frameStarts[i+1]
		lo, hi := max(start, s), min(end, e)
		if lo >= hi {
			continue
		}
		if _, err := c.segment(i); err != nil {
			return nil, err
		}
		out = append(out, piece{seg: i, lo: lo - s, hi: hi - s, base: s})
	}
	return out, nil
}

// Frames implements timeline.Source. The returned iterator chains across
// segment boundaries.
func (c *Concat) Frames(_ context.Context, start, end int) (media.FrameIterator, error) {
	ps, err := c.pieces(start, end)
	if err != nil {
		return nil, err
	}
	return &frameChain{c: c, pieces: ps, pts: c.PTS(), durations: c.Durations()}, nil
}

// IterFrames returns frames in [start, end) addressed by whence over the
// global timestamps.
func (c *Concat) IterFrames(ctx context.Context, start, end float64, whence timeline.Whence) (media.FrameIterator, error) {
	lo, hi, err := timeline.ResolveRange(c.PTS(), c.tb, start, end, whence)
	if err != nil {
		return nil, err
	}
	return c.Frames(ctx, lo, hi)
}

// Packets returns encoded packets for frames [start, end). Every segment in
// the range must implement PacketSource.
func (c *Concat) Packets(_ context.Context, start, end int) (media.PacketIterator, error) {
	ps, err := c.pieces(start, end)
	if err != nil {
		return nil, err
	}
	for _, p := range ps {
		src, _ := c.segment(p.seg)
		if _, ok := src.(PacketSource); !ok {
			return nil, fmt.Errorf("concat: segment %d cannot produce packets", p.seg)
		}
	}
	return &packetChain{c: c, pieces: ps}, nil
}

// IterPackets is Packets addressed by whence.
func (c *Concat) IterPackets(ctx context.Context, start, end float64, whence timeline.Whence) (media.PacketIterator, error) {
	lo, hi, err := timeline.ResolveRange(c.PTS(), c.tb, start, end, whence)
	if err != nil {
		return nil, err
	}
	return c.Packets(ctx, lo, hi)
}

type frameChain struct {
	c         *Concat
	pieces    []piece
	pts       []int64
	durations []int64
	cur       media.FrameIterator
	next      int // global index of the next frame
}

func (it *frameChain) Next(ctx context.Context) (media.Frame, error) {
	for {
		if it.cur == nil {
			if len(it.pieces) == 0 {
				return media.Frame{}, io.EOF
			}
			p := it.pieces[0]
			src, err := it.c.segment(p.seg)
			if err != nil {
				return media.Frame{}, err
			}
			cur, err := src.Frames(ctx, p.lo, p.hi)
			if err != nil {
				return media.Frame{}, fmt.Errorf("concat: segment %d: %w", p.seg, err)
			}
			it.cur, it.next = cur, p.base+p.lo
		}
		f, err := it.cur.Next(ctx)
		if err == io.EOF {
			if cerr := it.cur.Close(); cerr != nil {
				return media.Frame{}, cerr
			}
			it.cur = nil
			it.pieces = it.pieces[1:]
			continue
		}
		if err != nil {
			return media.Frame{}, err
		}
		f.PTS = it.pts[it.next]
		f.Duration = it.durations[it.next]
		f.TimeBase = it.c.tb
		f.SourceIndex = it.next
		f.Info.TimeBase = it.c.tb
		it.next++
		return f, nil
	}
}

func (it *frameChain) Close() error {
	if it.cur == nil {
		return nil
	}
	err := it.cur.Close()
	it.cur = nil
	it.pieces = nil
	return err
}

type packetChain struct {
	c      *Concat
	pieces []piece
	cur    media.PacketIterator
	src    timeline.Source
}

func (it *packetChain) Next(ctx context.Context) (media.Packet, error) {
	for {
		if it.cur == nil {
			if len(it.pieces) == 0 {
				return media.Packet{}, io.EOF
			}
			p := it.pieces[0]
			src, err := it.c.segment(p.seg)
			if err != nil {
				return media.Packet{}, err
			}
			cur, err := src.(PacketSource).Packets(ctx, p.lo, p.hi)
			if err != nil {
				return media.Packet{}, fmt.Errorf("concat: segment %d: %w", p.seg, err)
			}
			it.cur, it.src = cur, src
		}
		pkt, err := it.cur.Next(ctx)
		if err == io.EOF {
			if cl, ok := it.cur.(io.Closer); ok {
				if cerr := cl.Close(); cerr != nil {
					return media.Packet{}, cerr
				}
			}
			it.cur = nil
			it.pieces = it.pieces[1:]
			continue
		}
		if err != nil {
			return media.Packet{}, err
		}
		seg := it.pieces[0].seg
		if !pkt.TimeBase.Valid() {
			pkt.TimeBase = it.src.TimeBase()
		}
		if pkt.PTS != media.NoPTS {
			pkt.PTS = it.c.rebase(seg, it.src, pkt.PTS, pkt.TimeBase)
		}
		pkt.Duration = media.Rescale(pkt.Duration, pkt.TimeBase, it.c.tb)
		pkt.TimeBase = it.c.tb
		return pkt, nil
	}
}

// Close releases the current segment iterator.
func (it *packetChain) Close() error {
	if it.cur == nil {
		return nil
	}
	var err error
	if cl, ok := it.cur.(io.Closer); ok {
		err = cl.Close()
	}
	it.cur = nil
	it.pieces = nil
	return err
}
