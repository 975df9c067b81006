package timeline

import (
	"fmt"
	"sort"

	"github.com/bft-labs/recut/pkg/media"
)

// Dropped marks a predecessor frame that produces no output frame.
const Dropped = -1

// FrameContext describes the output frame a Kind is asked to produce.
type FrameContext struct {
	Zone ZoneID

	// Output is the zone-local output index.
	Output int

	// Count is the zone's output frame count.
	Count int

	// Inputs are the zone-local predecessor indices of the frames passed to
	// Apply, in the same order.
	Inputs []int
}

// Kind is the edit a zone applies to its frames.
//
// Plan returns the zone's reverse index map for n predecessor frames: for
// every output frame, the zone-local predecessor index it derives from. The
// plan must be non-decreasing with values in [0, n); the forward map is
// derived from it, so both directions always agree.
//
// Inputs lists the zone-local frames output m needs, ascending. The minimum
// of Inputs(m) must be non-decreasing in m so frames can be released once
// passed. Apply builds the output frame from those inputs; timestamps are
// overwritten by the timeline afterwards.
type Kind interface {
	Name() string
	Plan(n int) []int
	Inputs(m int, plan []int) []int
	Apply(fc FrameContext, in []media.Frame) (media.Frame, error)

	// ForcesKeyframe reports whether the zone's first output frame is a
	// synchronization point.
	ForcesKeyframe() bool
}

// direct supplies the one-input-per-output behaviour most kinds share.
type direct struct{}

func (direct) Inputs(m int, plan []int) []int { return []int{plan[m]} }

func (direct) Apply(_ FrameContext, in []media.Frame) (media.Frame, error) {
	return in[0], nil
}

func (direct) ForcesKeyframe() bool { return false }

func identity(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// Passthrough keeps every frame unchanged.
type Passthrough struct{ direct }

func (Passthrough) Name() string      { return "passthrough" }
func (Passthrough) Plan(n int) []int { return identity(n) }

// Trim drops Head frames from the start and Tail frames from the end of the zone.
type Trim struct {
	direct
	Head int
	Tail int
}

func (Trim) Name() string { return "trim" }

func (k Trim) Plan(n int) []int {
	lo, hi := max(k.Head, 0), n-max(k.Tail, 0)
	if lo >= hi {
		return []int{}
	}
	p := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		p = append(p, i)
	}
	return p
}

// Drop removes the listed zone-local frames. Indices outside the zone are ignored.
type Drop struct {
	direct
	Frames []int
}

func (Drop) Name() string { return "drop" }

func (k Drop) Plan(n int) []int {
	drop := make(map[int]bool, len(k.Frames))
	for _, f := range k.Frames {
		drop[f] = true
	}
	p := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !drop[i] {
			p = append(p, i)
		}
	}
	return p
}

// Freeze inserts Count extra copies after each listed zone-local frame.
// The copies share the original frame's duration.
type Freeze struct {
	direct
	At    []int
	Count int
}

func (Freeze) Name() string { return "freeze" }

func (k Freeze) Plan(n int) []int {
	at := make(map[int]bool, len(k.At))
	for _, f := range k.At {
		at[f] = true
	}
	extra := max(k.Count, 0)
	p := make([]int, 0, n+len(k.At)*extra)
	for i := 0; i < n; i++ {
		p = append(p, i)
		if at[i] {
			for c := 0; c < extra; c++ {
				p = append(p, i)
			}
		}
	}
	return p
}

// Scene starts a new scene: its first frame is a forced keyframe. A positive
// Limit truncates the zone to its first Limit frames.
type Scene struct {
	direct
	Limit int
}

func (Scene) Name() string         { return "scene" }
func (Scene) ForcesKeyframe() bool { return true }

func (k Scene) Plan(n int) []int {
	if k.Limit > 0 && k.Limit < n {
		return identity(k.Limit)
	}
	return identity(n)
}

// Crossfade dissolves the zone's first Frames frames into the following
// Frames frames, shortening the zone by Frames. When the zone holds fewer
// than twice Frames, the fade length is reduced to half the zone.
type Crossfade struct {
	Frames int
}

func (Crossfade) Name() string         { return "crossfade" }
func (Crossfade) ForcesKeyframe() bool { return false }

func (k Crossfade) overlap(n int) int {
	return min(max(k.Frames, 0), n/2)
}

func (k Crossfade) Plan(n int) []int {
	o := k.overlap(n)
	p := make([]int, n-o)
	for i := range p {
		p[i] = i + o
	}
	return p
}

func (k Crossfade) Inputs(m int, plan []int) []int {
	o := plan[0]
	if m < o {
		return []int{m, plan[m]}
	}
	return []int{plan[m]}
}

func (k Crossfade) Apply(fc FrameContext, in []media.Frame) (media.Frame, error) {
	if len(in) == 1 {
		return in[0], nil
	}
	o := fc.Inputs[1] - fc.Inputs[0]
	w := float64(fc.Output+1) / float64(o+1)
	out := in[1]
	out.Payload = media.Blend(in[0].Payload, in[1].Payload, w)
	return out, nil
}

// checkPlan panics on a plan that breaks the Kind contract.
func checkPlan(k Kind, plan []int, n int) {
	if !sort.IntsAreSorted(plan) {
		panic(fmt.Sprintf("timeline: %s plan is not non-decreasing", k.Name()))
	}
	if len(plan) > 0 && (plan[0] < 0 || plan[len(plan)-1] >= n) {
		panic(fmt.Sprintf("timeline: %s plan references frames outside [0, %d)", k.Name(), n))
	}
}
