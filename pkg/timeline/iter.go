package timeline

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/bft-labs/recut/pkg/indexmap"
	"github.com/bft-labs/recut/pkg/media"
)

// Whence selects the unit of a frame range request.
type Whence int

const (
	// WhenceFrame addresses output frame numbers.
	WhenceFrame Whence = iota
	// WhencePTS addresses timestamps in the sequence's time base.
	WhencePTS
	// WhenceSeconds addresses presentation time in seconds.
	WhenceSeconds
)

func (w Whence) String() string {
	switch w {
	case WhenceFrame:
		return "frame"
	case WhencePTS:
		return "pts"
	case WhenceSeconds:
		return "seconds"
	default:
		return fmt.Sprintf("whence(%d)", int(w))
	}
}

// ParseWhence accepts "frame", "pts" or "seconds".
func ParseWhence(s string) (Whence, error) {
	switch s {
	case "frame", "framenumber":
		return WhenceFrame, nil
	case "pts":
		return WhencePTS, nil
	case "seconds", "s":
		return WhenceSeconds, nil
	}
	return 0, fmt.Errorf("timeline: unknown whence %q", s)
}

// ResolveRange converts [start, end) in whence units to frame indices of a
// sequence with the given timestamps. A timestamp range selects the frames
// whose pts lies in it. A negative or infinite end means "to the end".
func ResolveRange(pts []int64, tb media.Rational, start, end float64, whence Whence) (int, int, error) {
	n := len(pts)
	toEnd := end < 0 || math.IsInf(end, 1)
	switch whence {
	case WhenceFrame:
		lo, hi := int(start), n
		if !toEnd {
			hi = int(end)
		}
		if err := checkRange(SpaceOutput, lo, hi, n); err != nil {
			return 0, 0, err
		}
		return lo, hi, nil
	case WhencePTS, WhenceSeconds:
		s, e := int64(start), int64(end)
		if whence == WhenceSeconds {
			s = tb.Ticks(start)
			if !toEnd {
				e = tb.Ticks(end)
			}
		}
		lo := firstAtOrAfter(pts, s)
		hi := n
		if !toEnd {
			hi = firstAtOrAfter(pts, e)
		}
		if hi < lo {
			hi = lo
		}
		return lo, hi, nil
	}
	return 0, 0, fmt.Errorf("timeline: unknown whence %d", int(whence))
}

func firstAtOrAfter(pts []int64, v int64) int {
	i, err := indexmap.Search(pts, v, indexmap.After)
	if err != nil {
		return len(pts)
	}
	return i
}

// frameSource is the part of Source a snapshot reads frames through.
type frameSource interface {
	Frames(ctx context.Context, start, end int) (media.FrameIterator, error)
}

type zoneSnap struct {
	id        ZoneID
	kind      Kind
	prevStart int
	destStart int
	reverse   []int
	forced    bool
}

func (z *zoneSnap) destEnd() int { return z.destStart + len(z.reverse) }

// Snapshot is an immutable view of a timeline's zone structure. Iterators
// created from it are unaffected by later edits to the timeline.
type Snapshot struct {
	prev      frameSource
	tb        media.Rational
	info      media.StreamInfo
	zones     []zoneSnap
	pts       []int64
	durations []int64
}

// Snapshot captures the current zone structure. A timeline predecessor is
// captured as well.
func (t *Timeline) Snapshot() *Snapshot {
	c := t.ensureAll()
	prev := t.predecessor()
	s := &Snapshot{
		prev:      prev,
		tb:        prev.TimeBase(),
		info:      prev.Info(),
		zones:     make([]zoneSnap, len(t.order)),
		pts:       c.pts,
		durations: c.durations,
	}
	if up, ok := prev.(*Timeline); ok {
		s.prev = up.Snapshot()
	}
	for pos := range t.order {
		z := t.at(pos)
		s.zones[pos] = zoneSnap{
			id:        z.id,
			kind:      z.kind,
			prevStart: t.starts[pos],
			destStart: c.destStarts[pos],
			reverse:   t.zoneReverse(pos),
			forced:    z.kind.ForcesKeyframe(),
		}
	}
	return s
}

// FrameCount returns the number of output frames.
func (s *Snapshot) FrameCount() int { return len(s.pts) }

// PTS returns the output timestamps.
func (s *Snapshot) PTS() []int64 { return s.pts }

// IterFrames returns output frames in [start, end) addressed by whence.
func (s *Snapshot) IterFrames(ctx context.Context, start, end float64, whence Whence) (media.FrameIterator, error) {
	lo, hi, err := ResolveRange(s.pts, s.tb, start, end, whence)
	if err != nil {
		return nil, err
	}
	return s.Frames(ctx, lo, hi)
}

// Frames returns output frames [start, end).
func (s *Snapshot) Frames(_ context.Context, start, end int) (media.FrameIterator, error) {
	if err := checkRange(SpaceOutput, start, end, len(s.pts)); err != nil {
		return nil, err
	}
	return &frameIter{s: s, next: start, end: end}, nil
}

// frameIter walks the zones intersecting its range, one zone stage at a time.
type frameIter struct {
	s     *Snapshot
	pos   int
	next  int
	end   int
	stage *zoneStage
}

func (it *frameIter) Next(ctx context.Context) (media.Frame, error) {
	if err := ctx.Err(); err != nil {
		return media.Frame{}, err
	}
	if it.next >= it.end {
		return media.Frame{}, io.EOF
	}
	for it.pos < len(it.s.zones) && it.s.zones[it.pos].destEnd() <= it.next {
		it.pos++
		if it.stage != nil {
			if err := it.stage.close(); err != nil {
				return media.Frame{}, err
			}
			it.stage = nil
		}
	}
	z := &it.s.zones[it.pos]
	if it.stage == nil {
		m0 := it.next - z.destStart
		m1 := min(it.end, z.destEnd()) - z.destStart
		st, err := openStage(ctx, it.s.prev, z, m0, m1)
		if err != nil {
			return media.Frame{}, err
		}
		it.stage = st
	}

	g := it.next
	f, err := it.stage.produce(ctx, g-z.destStart)
	if err != nil {
		return media.Frame{}, err
	}
	f.PTS = it.s.pts[g]
	f.Duration = it.s.durations[g]
	f.TimeBase = it.s.tb
	f.Info = it.s.info
	f.SourceIndex = g
	it.next++
	return f, nil
}

func (it *frameIter) Close() error {
	if it.stage == nil {
		return nil
	}
	err := it.stage.close()
	it.stage = nil
	return err
}

// zoneStage runs one zone's kind over a window of its predecessor frames.
// It holds only the frames that outputs still to come can reference.
type zoneStage struct {
	z    *zoneSnap
	src  media.FrameIterator
	read int // zone-local index of the next frame src yields
	base int // zone-local index of buf[0]
	buf  []media.Frame
}

// openStage requests the predecessor slice that outputs [m0, m1) need. The
// slice never leaves [prevStart, prevEnd) of the zone.
func openStage(ctx context.Context, prev frameSource, z *zoneSnap, m0, m1 int) (*zoneStage, error) {
	lo, hi := math.MaxInt, 0
	for m := m0; m < m1; m++ {
		for _, i := range z.kind.Inputs(m, z.reverse) {
			lo = min(lo, i)
			hi = max(hi, i+1)
		}
	}
	if lo > hi {
		lo, hi = 0, 0
	}
	src, err := prev.Frames(ctx, z.prevStart+lo, z.prevStart+hi)
	if err != nil {
		return nil, fmt.Errorf("zone %d: %w", z.id, err)
	}
	return &zoneStage{z: z, src: src, read: lo, base: lo}, nil
}

func (st *zoneStage) produce(ctx context.Context, m int) (media.Frame, error) {
	inputs := st.z.kind.Inputs(m, st.z.reverse)

	// Release frames below the smallest input; later outputs never need them.
	if drop := inputs[0] - st.base; drop > 0 {
		drop = min(drop, len(st.buf))
		st.buf = st.buf[drop:]
		st.base += drop
		if len(st.buf) == 0 {
			st.base = max(st.base, inputs[0])
		}
	}

	in := make([]media.Frame, len(inputs))
	for i, want := range inputs {
		for st.read <= want {
			f, err := st.src.Next(ctx)
			if err == io.EOF {
				return media.Frame{}, fmt.Errorf("zone %d: predecessor ended at local frame %d", st.z.id, st.read)
			}
			if err != nil {
				return media.Frame{}, err
			}
			if st.read >= st.base {
				st.buf = append(st.buf, f)
			}
			st.read++
		}
		in[i] = st.buf[want-st.base]
	}

	f, err := st.z.kind.Apply(FrameContext{
		Zone:   st.z.id,
		Output: m,
		Count:  len(st.z.reverse),
		Inputs: inputs,
	}, in)
	if err != nil {
		return media.Frame{}, fmt.Errorf("zone %d (%s): %w", st.z.id, st.z.kind.Name(), err)
	}
	if m == 0 && st.z.forced {
		f.Keyframe = true
	}
	return f, nil
}

func (st *zoneStage) close() error {
	return st.src.Close()
}
