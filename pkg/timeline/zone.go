package timeline

// ZoneID identifies a zone for the lifetime of its timeline. IDs are never
// reused, so a stale ID reports ErrUnknownZone instead of addressing another
// zone.
type ZoneID int

// zone is an arena slot. Its end is implied by the next zone's start.
type zone struct {
	id    ZoneID
	kind  Kind
	start int
	cache zoneCache
}

// Zone is a handle to one zone of a Timeline.
type Zone struct {
	t  *Timeline
	id ZoneID
}

// ID returns the zone's stable identifier.
func (z Zone) ID() ZoneID { return z.id }

// Timeline returns the owning timeline.
func (z Zone) Timeline() *Timeline { return z.t }

func (z Zone) pos() (int, error) {
	return z.t.position(z.id)
}

// Kind returns the zone's edit kind.
func (z Zone) Kind() Kind {
	pos, err := z.pos()
	if err != nil {
		return nil
	}
	return z.t.at(pos).kind
}

// PrevStart returns the predecessor index of the zone's first frame.
func (z Zone) PrevStart() int {
	pos, err := z.pos()
	if err != nil {
		return 0
	}
	return z.t.starts[pos]
}

// PrevEnd returns the predecessor index one past the zone's last frame.
func (z Zone) PrevEnd() int {
	pos, err := z.pos()
	if err != nil {
		return 0
	}
	return z.t.end(pos)
}

// DestStart returns the output index of the zone's first frame.
func (z Zone) DestStart() int {
	pos, err := z.pos()
	if err != nil {
		return 0
	}
	z.t.ensure(pos + 1)
	return z.t.composed.destStarts[pos]
}

// DestEnd returns the output index one past the zone's last frame. It always
// equals the next zone's DestStart.
func (z Zone) DestEnd() int {
	pos, err := z.pos()
	if err != nil {
		return 0
	}
	z.t.ensure(pos + 1)
	return z.t.composed.destStarts[pos+1]
}

// FrameCount returns the number of output frames the zone produces.
func (z Zone) FrameCount() int {
	return len(z.ReverseIndexMap())
}

// IndexMap maps each zone-local predecessor frame to its zone-local output
// index, or Dropped.
func (z Zone) IndexMap() []int {
	pos, err := z.pos()
	if err != nil {
		return nil
	}
	return z.t.zoneIndexMap(pos)
}

// ReverseIndexMap maps each zone-local output frame to the zone-local
// predecessor frame it derives from.
func (z Zone) ReverseIndexMap() []int {
	pos, err := z.pos()
	if err != nil {
		return nil
	}
	return z.t.zoneReverse(pos)
}

// PTS returns zone-local output timestamps, starting at 0.
func (z Zone) PTS() []int64 {
	pos, err := z.pos()
	if err != nil {
		return nil
	}
	return z.t.zonePTS(pos)
}

// Durations returns the duration of every output frame of the zone.
func (z Zone) Durations() []int64 {
	pos, err := z.pos()
	if err != nil {
		return nil
	}
	return z.t.zoneDurations(pos)
}

// SetBoundary moves the zone's start to prevStart. See Timeline.SetBoundary.
func (z Zone) SetBoundary(prevStart int) (*Edit, error) {
	return z.t.SetBoundary(z.id, prevStart)
}

// SetKind replaces the zone's edit kind. See Timeline.SetKind.
func (z Zone) SetKind(k Kind) (*Edit, error) {
	return z.t.SetKind(z.id, k)
}

// Info returns a value summary of the zone.
func (z Zone) Info() ZoneInfo {
	return ZoneInfo{
		ID:        z.id,
		Kind:      z.Kind(),
		PrevStart: z.PrevStart(),
		PrevEnd:   z.PrevEnd(),
		DestStart: z.DestStart(),
		DestEnd:   z.DestEnd(),
	}
}

// ZoneInfo is a point-in-time summary of a zone.
type ZoneInfo struct {
	ID        ZoneID
	Kind      Kind
	PrevStart int
	PrevEnd   int
	DestStart int
	DestEnd   int
}

// FrameCount returns DestEnd - DestStart.
func (i ZoneInfo) FrameCount() int { return i.DestEnd - i.DestStart }

// Edit describes what an edit touched, so a caller can redraw only that
// range. Ranges are given after the edit; outputs after DestEnd shift by
// the change in frame count.
type Edit struct {
	// Zone is the zone created or resized by the edit.
	Zone ZoneID

	PrevStart int
	PrevEnd   int
	DestStart int
	DestEnd   int
}

// zone-local derivations; pos is the zone's position in timeline order.

func (t *Timeline) zoneReverse(pos int) []int {
	z := t.at(pos)
	if z.cache.have&fieldReverse == 0 {
		n := t.end(pos) - t.starts[pos]
		plan := z.kind.Plan(n)
		checkPlan(z.kind, plan, n)
		z.cache.reverse = plan
		z.cache.have |= fieldReverse
	}
	return z.cache.reverse
}

func (t *Timeline) zoneIndexMap(pos int) []int {
	z := t.at(pos)
	if z.cache.have&fieldIndexMap == 0 {
		n := t.end(pos) - t.starts[pos]
		idx := make([]int, n)
		for i := range idx {
			idx[i] = Dropped
		}
		for m, s := range t.zoneReverse(pos) {
			if idx[s] == Dropped {
				idx[s] = m
			}
		}
		z.cache.indexMap = idx
		z.cache.have |= fieldIndexMap
	}
	return z.cache.indexMap
}

// zoneDurations gives every output frame its source frame's duration.
// Repeated frames split it evenly, the remainder going to the last copy.
func (t *Timeline) zoneDurations(pos int) []int64 {
	z := t.at(pos)
	if z.cache.have&fieldDurations == 0 {
		start := t.starts[pos]
		src := t.predecessor().Durations()
		rev := t.zoneReverse(pos)
		d := make([]int64, len(rev))
		for m := 0; m < len(rev); {
			s := rev[m]
			run := 1
			for m+run < len(rev) && rev[m+run] == s {
				run++
			}
			total := src[start+s]
			each := total / int64(run)
			for c := 0; c < run; c++ {
				d[m+c] = each
			}
			d[m+run-1] = total - each*int64(run-1)
			m += run
		}
		z.cache.durations = d
		z.cache.have |= fieldDurations
	}
	return z.cache.durations
}

func (t *Timeline) zonePTS(pos int) []int64 {
	z := t.at(pos)
	if z.cache.have&fieldPTS == 0 {
		d := t.zoneDurations(pos)
		pts := make([]int64, len(d))
		var acc int64
		for i, v := range d {
			pts[i] = acc
			acc += v
		}
		z.cache.pts = pts
		z.cache.have |= fieldPTS
	}
	return z.cache.pts
}
