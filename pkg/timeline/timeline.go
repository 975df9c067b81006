package timeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/bft-labs/recut/pkg/indexmap"
	"github.com/bft-labs/recut/pkg/log"
	"github.com/bft-labs/recut/pkg/media"
)

// ErrDroppedUpstream is returned by ZoneAt when the source frame is dropped
// by an earlier timeline of the chain and so belongs to no zone here.
var ErrDroppedUpstream = errors.New("timeline: source frame dropped upstream")

// Option configures a Timeline.
type Option func(*Timeline)

// WithLogger sets the logger used for edit and invalidation events.
func WithLogger(l log.Logger) Option {
	return func(t *Timeline) {
		t.logger = log.OrNoop(l)
	}
}

// WithKind sets the kind of the initial zone. The default is Passthrough.
func WithKind(k Kind) Option {
	return func(t *Timeline) {
		if k != nil {
			t.arena[0].kind = k
		}
	}
}

// Timeline is an ordered, contiguous set of zones covering a predecessor
// sequence. It always holds at least one zone, and the first zone starts at
// predecessor index 0.
type Timeline struct {
	reg    *Registry
	id     NodeID
	prevID NodeID
	logger log.Logger

	// arena is indexed by ZoneID; removed zones leave a nil slot.
	arena []*zone
	// order lists zone ids in timeline order; starts[i] is the start of order[i].
	order  []ZoneID
	starts []int

	composed composedCache
}

var (
	_ Source      = (*Timeline)(nil)
	_ Invalidator = (*Timeline)(nil)
	_ Validator   = (*Timeline)(nil)
)

// New creates a timeline over the sequence registered as prev, with a single
// zone spanning all of it. The timeline registers itself in reg and as a
// dependent of prev.
func New(reg *Registry, prev NodeID, opts ...Option) (*Timeline, error) {
	if _, ok := reg.Lookup(prev); !ok {
		return nil, fmt.Errorf("timeline: predecessor %d: %w", prev, media.ErrBrokenReference)
	}
	t := &Timeline{
		reg:    reg,
		prevID: prev,
		logger: log.NewNoopLogger(),
		arena:  []*zone{{id: 0, kind: Passthrough{}}},
		order:  []ZoneID{0},
		starts: []int{0},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.composed.reset()
	t.id = reg.Register(t)
	reg.AddDependent(prev, t.id)
	return t, nil
}

// ID returns the timeline's registry id.
func (t *Timeline) ID() NodeID { return t.id }

// Predecessor returns the registry id of the sequence the timeline is built on.
func (t *Timeline) Predecessor() NodeID { return t.prevID }

// predecessor resolves the sequence the timeline is built on through the
// registry. A released predecessor reads as an empty, broken sequence.
func (t *Timeline) predecessor() Source {
	if src, ok := t.reg.Lookup(t.prevID); ok {
		return src
	}
	return brokenSource{id: t.prevID}
}

// Validate reports what would keep the timeline from rendering: a released
// predecessor, or the problems the predecessor reports itself.
func (t *Timeline) Validate() []error {
	src, ok := t.reg.Lookup(t.prevID)
	if !ok {
		return []error{fmt.Errorf("timeline %d: predecessor %d: %w", t.id, t.prevID, media.ErrBrokenReference)}
	}
	if v, ok := src.(Validator); ok {
		return v.Validate()
	}
	return nil
}

// Release removes the timeline from its registry. Dependents see a broken
// reference afterwards.
func (t *Timeline) Release() {
	t.reg.RemoveDependent(t.prevID, t.id)
	t.reg.Unregister(t.id)
}

// SourceChanged implements Invalidator. Every zone is rebuilt from the
// predecessor; zones starting at or past its new end are removed.
func (t *Timeline) SourceChanged(upstream NodeID) {
	if upstream != t.prevID {
		return
	}
	n := t.predecessor().FrameCount()
	keep := len(t.starts)
	for keep > 1 && t.starts[keep-1] >= n {
		keep--
	}
	if keep < len(t.starts) {
		for _, id := range t.order[keep:] {
			t.arena[id] = nil
		}
		t.logger.Warn("predecessor shrank; zones removed",
			log.Int("removed", len(t.starts)-keep),
			log.Int("frames", n))
		t.order = t.order[:keep]
		t.starts = t.starts[:keep]
	}
	for _, id := range t.order {
		t.arena[id].cache.invalidate(fieldAll)
	}
	t.composed.reset()
}

func (t *Timeline) at(pos int) *zone { return t.arena[t.order[pos]] }

// end returns the predecessor index one past zone pos.
func (t *Timeline) end(pos int) int {
	if pos+1 < len(t.starts) {
		return t.starts[pos+1]
	}
	return t.predecessor().FrameCount()
}

func (t *Timeline) position(id ZoneID) (int, error) {
	if id < 0 || int(id) >= len(t.arena) || t.arena[id] == nil {
		return 0, fmt.Errorf("%w: %d", ErrUnknownZone, id)
	}
	i, err := indexmap.Search(t.starts, t.arena[id].start, indexmap.Before)
	if err != nil {
		return 0, err
	}
	return i, nil
}

func (t *Timeline) handle(pos int) Zone { return Zone{t: t, id: t.order[pos]} }

// ensure extends the composed cache to cover the first n zones.
func (t *Timeline) ensure(n int) {
	c := &t.composed
	for c.zones < n {
		pos := c.zones
		z := t.at(pos)
		start := t.starts[pos]
		out := c.destStarts[pos]
		base := c.ptsStarts[pos]

		for _, v := range t.zoneIndexMap(pos) {
			if v == Dropped {
				c.indexMap = append(c.indexMap, Dropped)
			} else {
				c.indexMap = append(c.indexMap, out+v)
			}
		}
		rev := t.zoneReverse(pos)
		for _, v := range rev {
			c.reverse = append(c.reverse, start+v)
		}
		for _, p := range t.zonePTS(pos) {
			c.pts = append(c.pts, base+p)
		}
		var total int64
		for _, d := range t.zoneDurations(pos) {
			c.durations = append(c.durations, d)
			total += d
		}
		if z.kind.ForcesKeyframe() && len(rev) > 0 {
			c.keyframes = append(c.keyframes, out)
		}
		c.destStarts = append(c.destStarts, out+len(rev))
		c.ptsStarts = append(c.ptsStarts, base+total)
		c.zones++
	}
}

func (t *Timeline) ensureAll() *composedCache {
	t.ensure(len(t.order))
	return &t.composed
}

// changed drops derived state from zone pos onwards and notifies dependents.
func (t *Timeline) changed(pos int) {
	t.composed.truncate(pos, t.starts[pos])
	t.reg.Changed(t.id)
}

// Zones returns a summary of every zone in order.
func (t *Timeline) Zones() []ZoneInfo {
	out := make([]ZoneInfo, len(t.order))
	for i := range t.order {
		out[i] = t.handle(i).Info()
	}
	return out
}

// ZoneCount returns the number of zones.
func (t *Timeline) ZoneCount() int { return len(t.order) }

// Zone returns the zone with the given id.
func (t *Timeline) Zone(id ZoneID) (Zone, error) {
	if _, err := t.position(id); err != nil {
		return Zone{}, err
	}
	return Zone{t: t, id: id}, nil
}

// ZoneAtPredecessorIndex returns the zone owning predecessor frame index.
func (t *Timeline) ZoneAtPredecessorIndex(index int) (Zone, error) {
	n := t.predecessor().FrameCount()
	if index < 0 || index >= n {
		return Zone{}, &RangeError{Space: SpacePredecessor, Index: index, Len: n}
	}
	pos, err := indexmap.Search(t.starts, index, indexmap.Before)
	if err != nil {
		return Zone{}, err
	}
	return t.handle(pos), nil
}

// ZoneAtOutput returns the zone producing output frame index.
func (t *Timeline) ZoneAtOutput(index int) (Zone, error) {
	c := t.ensureAll()
	n := c.destStarts[c.zones]
	if index < 0 || index >= n {
		return Zone{}, &RangeError{Space: SpaceOutput, Index: index, Len: n}
	}
	// Among zones sharing a dest start, only the last one is non-empty.
	pos, err := indexmap.Search(c.destStarts[:c.zones], index, indexmap.Before)
	if err != nil {
		return Zone{}, err
	}
	return t.handle(pos), nil
}

// ZoneAt returns the zone owning root source frame index. For a timeline
// built on another timeline, the index is first mapped through the chain.
func (t *Timeline) ZoneAt(sourceIndex int) (Zone, error) {
	p, err := t.predecessorFromRoot(sourceIndex)
	if err != nil {
		return Zone{}, err
	}
	return t.ZoneAtPredecessorIndex(p)
}

// RootFrameCount returns the frame count of the chain's root sequence.
func (t *Timeline) RootFrameCount() int {
	prev := t.predecessor()
	if up, ok := prev.(*Timeline); ok {
		return up.RootFrameCount()
	}
	return prev.FrameCount()
}

func (t *Timeline) predecessorFromRoot(s int) (int, error) {
	prev := t.predecessor()
	up, ok := prev.(*Timeline)
	if !ok {
		n := prev.FrameCount()
		if s < 0 || s >= n {
			return 0, &RangeError{Space: SpaceSource, Index: s, Len: n}
		}
		return s, nil
	}
	p, err := up.predecessorFromRoot(s)
	if err != nil {
		return 0, err
	}
	out := up.IndexMap()[p]
	if out == Dropped {
		return 0, fmt.Errorf("%w: %d", ErrDroppedUpstream, s)
	}
	return out, nil
}

// InsertZoneAt splits the zone containing predecessor index prevIndex so
// that a new zone of kind k starts there. The left part keeps its kind.
// Inserting at 0 fails with ErrFirstZonePinned and inserting at an existing
// boundary with ErrBoundaryExists; neither changes the timeline.
func (t *Timeline) InsertZoneAt(prevIndex int, k Kind) (*Edit, error) {
	if prevIndex == 0 {
		return nil, ErrFirstZonePinned
	}
	owner, err := t.ZoneAtPredecessorIndex(prevIndex)
	if err != nil {
		return nil, err
	}
	if indexmap.Contains(t.starts, prevIndex) {
		return nil, fmt.Errorf("%w: %d", ErrBoundaryExists, prevIndex)
	}
	if k == nil {
		k = Passthrough{}
	}
	pos, _ := t.position(owner.id)

	id := ZoneID(len(t.arena))
	t.arena = append(t.arena, &zone{id: id, kind: k, start: prevIndex})
	t.order = append(t.order, 0)
	copy(t.order[pos+2:], t.order[pos+1:])
	t.order[pos+1] = id
	t.starts = indexmap.Insert(t.starts, prevIndex)

	t.at(pos).cache.invalidate(fieldAll)
	t.changed(pos)

	t.logger.Debug("zone inserted",
		log.Int("zone", int(id)),
		log.Int("prev_start", prevIndex),
		log.String("kind", k.Name()))

	t.ensure(pos + 2)
	return &Edit{
		Zone:      id,
		PrevStart: t.starts[pos],
		PrevEnd:   t.end(pos + 1),
		DestStart: t.composed.destStarts[pos],
		DestEnd:   t.composed.destStarts[pos+2],
	}, nil
}

// RemoveZoneAt merges the zone starting at predecessor index prevIndex into
// the zone before it, which keeps its kind. The first zone cannot be removed.
func (t *Timeline) RemoveZoneAt(prevIndex int) (*Edit, error) {
	if prevIndex == 0 {
		return nil, ErrFirstZonePinned
	}
	pos, err := indexmap.Search(t.starts, prevIndex, indexmap.After)
	if err != nil || t.starts[pos] != prevIndex {
		return nil, fmt.Errorf("%w: %d", ErrNoBoundary, prevIndex)
	}
	removed := t.order[pos]
	t.arena[removed] = nil
	t.order = append(t.order[:pos], t.order[pos+1:]...)
	t.starts = append(t.starts[:pos], t.starts[pos+1:]...)

	left := pos - 1
	t.at(left).cache.invalidate(fieldAll)
	t.changed(left)

	t.logger.Debug("zone removed",
		log.Int("zone", int(removed)),
		log.Int("prev_start", prevIndex))

	t.ensure(left + 1)
	return &Edit{
		Zone:      t.order[left],
		PrevStart: t.starts[left],
		PrevEnd:   t.end(left),
		DestStart: t.composed.destStarts[left],
		DestEnd:   t.composed.destStarts[left+1],
	}, nil
}

// SetBoundary moves the start of zone id to prevStart. The previous zone
// grows or shrinks to stay contiguous. The first zone's start cannot move,
// and the new start must lie strictly between the previous zone's start and
// the zone's own end.
func (t *Timeline) SetBoundary(id ZoneID, prevStart int) (*Edit, error) {
	pos, err := t.position(id)
	if err != nil {
		return nil, err
	}
	if pos == 0 {
		return nil, ErrFirstZonePinned
	}
	lo, hi := t.starts[pos-1], t.end(pos)
	if prevStart <= lo || prevStart >= hi {
		return nil, &RangeError{Space: SpacePredecessor, Index: prevStart, Len: hi}
	}
	if prevStart != t.starts[pos] {
		t.starts[pos] = prevStart
		t.arena[id].start = prevStart
		t.at(pos - 1).cache.invalidate(fieldAll)
		t.at(pos).cache.invalidate(fieldAll)
		t.changed(pos - 1)
		t.logger.Debug("zone boundary moved",
			log.Int("zone", int(id)),
			log.Int("prev_start", prevStart))
	}
	t.ensure(pos + 1)
	return &Edit{
		Zone:      id,
		PrevStart: lo,
		PrevEnd:   hi,
		DestStart: t.composed.destStarts[pos-1],
		DestEnd:   t.composed.destStarts[pos+1],
	}, nil
}

// SetKind replaces the edit kind of zone id.
func (t *Timeline) SetKind(id ZoneID, k Kind) (*Edit, error) {
	pos, err := t.position(id)
	if err != nil {
		return nil, err
	}
	if k == nil {
		k = Passthrough{}
	}
	z := t.at(pos)
	z.kind = k
	z.cache.invalidate(fieldAll)
	t.changed(pos)

	t.ensure(pos + 1)
	return &Edit{
		Zone:      id,
		PrevStart: t.starts[pos],
		PrevEnd:   t.end(pos),
		DestStart: t.composed.destStarts[pos],
		DestEnd:   t.composed.destStarts[pos+1],
	}, nil
}

// Boundaries returns the predecessor start of every zone, ascending.
func (t *Timeline) Boundaries() []int {
	return append([]int(nil), t.starts...)
}

// IndexMap maps each predecessor frame to its output index, or Dropped.
func (t *Timeline) IndexMap() []int { return t.ensureAll().indexMap }

// ReverseIndexMap maps each output frame to the predecessor frame it derives from.
func (t *Timeline) ReverseIndexMap() []int { return t.ensureAll().reverse }

// Keyframes returns the output indices of forced synchronization points.
func (t *Timeline) Keyframes() []int { return t.ensureAll().keyframes }

// FrameCount implements Source.
func (t *Timeline) FrameCount() int {
	c := t.ensureAll()
	return c.destStarts[c.zones]
}

// PTS implements Source. Output timestamps start at 0.
func (t *Timeline) PTS() []int64 { return t.ensureAll().pts }

// Durations implements Source.
func (t *Timeline) Durations() []int64 { return t.ensureAll().durations }

// Duration implements Source.
func (t *Timeline) Duration() int64 {
	c := t.ensureAll()
	return c.ptsStarts[c.zones]
}

// TimeBase implements Source.
func (t *Timeline) TimeBase() media.Rational { return t.predecessor().TimeBase() }

// Info implements Source.
func (t *Timeline) Info() media.StreamInfo { return t.predecessor().Info() }

// Frames implements Source.
func (t *Timeline) Frames(ctx context.Context, start, end int) (media.FrameIterator, error) {
	return t.Snapshot().Frames(ctx, start, end)
}

// IterFrames returns output frames in [start, end) addressed by whence.
func (t *Timeline) IterFrames(ctx context.Context, start, end float64, whence Whence) (media.FrameIterator, error) {
	return t.Snapshot().IterFrames(ctx, start, end, whence)
}
