package timeline

import (
	"context"
	"fmt"

	"github.com/bft-labs/recut/pkg/media"
)

// Source is a finite, restartable sequence of frames: the decode capability
// a timeline consumes, and the capability a timeline itself provides.
type Source interface {
	// FrameCount returns the number of frames.
	FrameCount() int

	// PTS returns the ascending presentation timestamps, one per frame.
	// Callers must not modify the returned slice.
	PTS() []int64

	// Durations returns the duration of every frame in TimeBase ticks.
	// Callers must not modify the returned slice.
	Durations() []int64

	// Duration returns the total duration in TimeBase ticks.
	Duration() int64

	TimeBase() media.Rational
	Info() media.StreamInfo

	// Frames returns frames [start, end). It fails with a range error if the
	// range is not within [0, FrameCount()].
	Frames(ctx context.Context, start, end int) (media.FrameIterator, error)
}

// DurationsFromPTS derives per-frame durations from ascending timestamps.
// The last frame lasts until total.
func DurationsFromPTS(pts []int64, total int64) []int64 {
	d := make([]int64, len(pts))
	for i := range pts {
		if i+1 < len(pts) {
			d[i] = pts[i+1] - pts[i]
		} else {
			d[i] = total - pts[i]
		}
	}
	return d
}

// checkRange validates a frame request against a sequence of n frames.
func checkRange(space string, start, end, n int) error {
	if start < 0 || start > n {
		return &RangeError{Space: space, Index: start, Len: n}
	}
	if end < start || end > n {
		return &RangeError{Space: space, Index: end, Len: n}
	}
	return nil
}

// CheckRange is the exported form of the [start, end) validation every
// Source applies.
func CheckRange(start, end, n int) error {
	return checkRange(SpaceOutput, start, end, n)
}

// Validator is implemented by sequences that can report problems before a
// render starts, such as a concatenation of incompatible segments.
type Validator interface {
	Validate() []error
}

// brokenSource stands in for a released node: it has no frames and fails
// every frame request.
type brokenSource struct{ id NodeID }

func (brokenSource) FrameCount() int          { return 0 }
func (brokenSource) PTS() []int64             { return nil }
func (brokenSource) Durations() []int64       { return nil }
func (brokenSource) Duration() int64          { return 0 }
func (brokenSource) TimeBase() media.Rational { return media.Rational{} }
func (brokenSource) Info() media.StreamInfo   { return media.StreamInfo{} }

func (b brokenSource) Frames(context.Context, int, int) (media.FrameIterator, error) {
	return nil, fmt.Errorf("timeline: node %d: %w", b.id, media.ErrBrokenReference)
}
