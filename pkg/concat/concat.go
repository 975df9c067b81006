package concat

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bft-labs/recut/pkg/indexmap"
	"github.com/bft-labs/recut/pkg/log"
	"github.com/bft-labs/recut/pkg/media"
	"github.com/bft-labs/recut/pkg/timeline"
)

// PacketSource is a segment that can also yield already encoded packets,
// one per frame, in frame order.
type PacketSource interface {
	timeline.Source
	Packets(ctx context.Context, start, end int) (media.PacketIterator, error)
}

type cacheField uint8

const (
	fieldLayout cacheField = 1 << iota
	fieldPTS
	fieldDurations

	fieldAll = fieldLayout | fieldPTS | fieldDurations
)

type concatCache struct {
	have cacheField

	// frameStarts[i] is the global index of segment i's first frame and
	// offsets[i] its global pts; both have one entry per segment plus a total.
	frameStarts []int
	offsets     []int64

	pts       []int64
	durations []int64
}

func (c *concatCache) invalidate(fields cacheField) {
	c.have &^= fields
	if fields&fieldLayout != 0 {
		c.frameStarts, c.offsets = nil, nil
	}
	if fields&fieldPTS != 0 {
		c.pts = nil
	}
	if fields&fieldDurations != 0 {
		c.durations = nil
	}
}

// Concat is an ordered list of segments presented as one sequence in a
// shared time base.
type Concat struct {
	reg    *timeline.Registry
	id     timeline.NodeID
	tb     media.Rational
	segs   []timeline.NodeID
	logger log.Logger
	cache  concatCache
}

var (
	_ timeline.Source      = (*Concat)(nil)
	_ timeline.Invalidator = (*Concat)(nil)
)

// New creates a concatenation of the given registered segments, registers it
// in reg and subscribes it to changes of every segment.
func New(reg *timeline.Registry, tb media.Rational, segments ...timeline.NodeID) *Concat {
	c := &Concat{
		reg:    reg,
		tb:     tb,
		logger: log.NewNoopLogger(),
	}
	c.id = reg.Register(c)
	for _, s := range segments {
		c.Append(s)
	}
	return c
}

// SetLogger sets the logger used for reference problems.
func (c *Concat) SetLogger(l log.Logger) { c.logger = log.OrNoop(l) }

// ID returns the concatenation's registry id.
func (c *Concat) ID() timeline.NodeID { return c.id }

// Segments returns the segment ids in order.
func (c *Concat) Segments() []timeline.NodeID {
	return append([]timeline.NodeID(nil), c.segs...)
}

// Append adds a segment at the end.
func (c *Concat) Append(id timeline.NodeID) {
	c.segs = append(c.segs, id)
	c.reg.AddDependent(id, c.id)
	c.changed()
}

// Remove deletes the segment at position i.
func (c *Concat) Remove(i int) error {
	if i < 0 || i >= len(c.segs) {
		return &timeline.RangeError{Space: "segment", Index: i, Len: len(c.segs)}
	}
	id := c.segs[i]
	c.segs = append(c.segs[:i], c.segs[i+1:]...)
	if !c.refers(id) {
		c.reg.RemoveDependent(id, c.id)
	}
	c.changed()
	return nil
}

// Release removes the concatenation from its registry.
func (c *Concat) Release() {
	for _, id := range c.segs {
		c.reg.RemoveDependent(id, c.id)
	}
	c.reg.Unregister(c.id)
}

func (c *Concat) refers(id timeline.NodeID) bool {
	for _, s := range c.segs {
		if s == id {
			return true
		}
	}
	return false
}

func (c *Concat) changed() {
	c.cache.invalidate(fieldAll)
	c.reg.Changed(c.id)
}

// SourceChanged implements timeline.Invalidator.
func (c *Concat) SourceChanged(timeline.NodeID) {
	c.cache.invalidate(fieldAll)
}

// segment resolves the weak reference at position i.
func (c *Concat) segment(i int) (timeline.Source, error) {
	src, ok := c.reg.Lookup(c.segs[i])
	if !ok {
		return nil, &BrokenReferenceError{Index: i, ID: c.segs[i]}
	}
	return src, nil
}

func (c *Concat) layout() *concatCache {
	if c.cache.have&fieldLayout != 0 {
		return &c.cache
	}
	starts := make([]int, len(c.segs)+1)
	offsets := make([]int64, len(c.segs)+1)
	for i := range c.segs {
		starts[i+1], offsets[i+1] = starts[i], offsets[i]
		src, err := c.segment(i)
		if err != nil {
			c.logger.Warn("skipping segment", log.Err(err))
			continue
		}
		starts[i+1] += src.FrameCount()
		offsets[i+1] += media.Rescale(span(src), src.TimeBase(), c.tb)
	}
	c.cache.frameStarts, c.cache.offsets = starts, offsets
	c.cache.have |= fieldLayout
	return &c.cache
}

// span is a segment's length measured from its first timestamp.
func span(src timeline.Source) int64 {
	pts := src.PTS()
	if len(pts) == 0 {
		return src.Duration()
	}
	return src.Duration() - pts[0]
}

// rebase maps a segment timestamp to the shared time base.
func (c *Concat) rebase(i int, src timeline.Source, pts int64, tb media.Rational) int64 {
	var first int64
	if p := src.PTS(); len(p) > 0 {
		first = media.Rescale(p[0], src.TimeBase(), c.tb)
	}
	return media.Rescale(pts, tb, c.tb) - first + c.layout().offsets[i]
}

// FrameCount implements timeline.Source.
func (c *Concat) FrameCount() int {
	l := c.layout()
	return l.frameStarts[len(c.segs)]
}

// Duration implements timeline.Source.
func (c *Concat) Duration() int64 {
	l := c.layout()
	return l.offsets[len(c.segs)]
}

// TimeBase implements timeline.Source.
func (c *Concat) TimeBase() media.Rational { return c.tb }

// Info implements timeline.Source. It describes the first live segment.
func (c *Concat) Info() media.StreamInfo {
	for i := range c.segs {
		if src, err := c.segment(i); err == nil {
			info := src.Info()
			info.TimeBase = c.tb
			return info
		}
	}
	return media.StreamInfo{TimeBase: c.tb}
}

// PTS implements timeline.Source. Every segment's timestamps are rebased by
// the rescaled durations of the segments before it.
func (c *Concat) PTS() []int64 {
	if c.cache.have&fieldPTS != 0 {
		return c.cache.pts
	}
	l := c.layout()
	pts := make([]int64, 0, l.frameStarts[len(c.segs)])
	for i := range c.segs {
		src, err := c.segment(i)
		if err != nil {
			continue
		}
		for _, p := range src.PTS() {
			pts = append(pts, c.rebase(i, src, p, src.TimeBase()))
		}
	}
	c.cache.pts = pts
	c.cache.have |= fieldPTS
	return pts
}

// Durations implements timeline.Source.
func (c *Concat) Durations() []int64 {
	if c.cache.have&fieldDurations != 0 {
		return c.cache.durations
	}
	d := timeline.DurationsFromPTS(c.PTS(), c.Duration())
	c.cache.durations = d
	c.cache.have |= fieldDurations
	return d
}

// SegmentAt returns the segment position owning global frame index and the
// frame's index within that segment.
func (c *Concat) SegmentAt(index int) (seg, local int, err error) {
	l := c.layout()
	n := l.frameStarts[len(c.segs)]
	if index < 0 || index >= n {
		return 0, 0, &timeline.RangeError{Space: timeline.SpaceOutput, Index: index, Len: n}
	}
	// Empty segments share a start with their successor; Before picks the last.
	seg, err = indexmap.Search(l.frameStarts[:len(c.segs)], index, indexmap.Before)
	if err != nil {
		return 0, 0, err
	}
	return seg, index - l.frameStarts[seg], nil
}

// Validate reports every problem that would prevent rendering: broken
// segment references and shape mismatches between neighbouring segments.
// It does not stop at the first problem.
func (c *Concat) Validate() []error {
	var errs []error
	var prev *media.StreamInfo
	for i := range c.segs {
		src, err := c.segment(i)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		info := src.Info()
		if prev != nil {
			errs = append(errs, compare(i, *prev, info)...)
		}
		prev = &info
	}
	return errs
}

func compare(i int, want, got media.StreamInfo) []error {
	if want.Type != got.Type {
		return []error{&IncompatibleError{Index: i, Field: "type", Want: want.Type.String(), Got: got.Type.String()}}
	}
	var errs []error
	switch got.Type {
	case media.TypeVideo:
		if want.Width != got.Width || want.Height != got.Height {
			errs = append(errs, &IncompatibleError{
				Index: i, Field: "dimensions",
				Want: fmt.Sprintf("%dx%d", want.Width, want.Height),
				Got:  fmt.Sprintf("%dx%d", got.Width, got.Height),
			})
		}
		if wa, ga := want.PixelAspect(), got.PixelAspect(); wa.Num*ga.Den != ga.Num*wa.Den {
			errs = append(errs, &IncompatibleError{
				Index: i, Field: "sample_aspect",
				Want: wa.String(), Got: ga.String(),
			})
		}
	case media.TypeAudio:
		if want.SampleRate != got.SampleRate {
			errs = append(errs, &IncompatibleError{
				Index: i, Field: "sample_rate",
				Want: strconv.Itoa(want.SampleRate), Got: strconv.Itoa(got.SampleRate),
			})
		}
		if want.Channels != got.Channels {
			errs = append(errs, &IncompatibleError{
				Index: i, Field: "channels",
				Want: strconv.Itoa(want.Channels), Got: strconv.Itoa(got.Channels),
			})
		}
	}
	return errs
}
