package timeline

// cacheField names one memoized array of a node cache.
type cacheField uint8

const (
	fieldReverse cacheField = 1 << iota
	fieldIndexMap
	fieldDurations
	fieldPTS

	fieldAll = fieldReverse | fieldIndexMap | fieldDurations | fieldPTS
)

// zoneCache holds a zone's derived arrays in zone-local coordinates.
// A field is either absent from have or consistent with the zone.
type zoneCache struct {
	have      cacheField
	reverse   []int
	indexMap  []int
	durations []int64
	pts       []int64
}

func (c *zoneCache) invalidate(fields cacheField) {
	c.have &^= fields
	if fields&fieldReverse != 0 {
		c.reverse = nil
	}
	if fields&fieldIndexMap != 0 {
		c.indexMap = nil
	}
	if fields&fieldDurations != 0 {
		c.durations = nil
	}
	if fields&fieldPTS != 0 {
		c.pts = nil
	}
}

// composedCache holds the timeline's composed arrays for its first zones
// leading zones. Arrays are only ever extended or truncated, and truncation
// allocates fresh backing storage so slices handed out earlier stay intact.
type composedCache struct {
	zones int

	// destStarts[i] is the output index of zone i; len(destStarts) == zones+1.
	destStarts []int
	// ptsStarts[i] is the output pts of zone i; len(ptsStarts) == zones+1.
	ptsStarts []int64

	indexMap  []int
	reverse   []int
	pts       []int64
	durations []int64
	keyframes []int
}

func (c *composedCache) reset() {
	*c = composedCache{destStarts: []int{0}, ptsStarts: []int64{0}}
}

// truncate keeps the first pos zones. prevStart is the predecessor index
// where zone pos begins.
func (c *composedCache) truncate(pos, prevStart int) {
	if pos >= c.zones {
		return
	}
	out := c.destStarts[pos]
	c.zones = pos
	c.destStarts = cloneInts(c.destStarts[:pos+1])
	c.ptsStarts = cloneInt64s(c.ptsStarts[:pos+1])
	c.indexMap = cloneInts(c.indexMap[:prevStart])
	c.reverse = cloneInts(c.reverse[:out])
	c.pts = cloneInt64s(c.pts[:out])
	c.durations = cloneInt64s(c.durations[:out])
	kf := c.keyframes[:0:0]
	for _, k := range c.keyframes {
		if k < out {
			kf = append(kf, k)
		}
	}
	c.keyframes = kf
}

func cloneInts(s []int) []int {
	return append(make([]int, 0, len(s)), s...)
}

func cloneInt64s(s []int64) []int64 {
	return append(make([]int64, 0, len(s)), s...)
}
