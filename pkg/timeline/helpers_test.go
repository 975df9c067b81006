package timeline

import (
	"context"

	"github.com/bft-labs/recut/pkg/media"
)

// stubSource is an in-memory Source of n frames spaced step ticks apart.
// Frame i carries the payload byte i*10 and every Frames call is recorded.
type stubSource struct {
	n        int
	step     int64
	tb       media.Rational
	requests [][2]int
}

func newStub(n int) *stubSource {
	return &stubSource{n: n, step: 1, tb: media.NewRational(1, 25)}
}

func (s *stubSource) FrameCount() int { return s.n }

func (s *stubSource) PTS() []int64 {
	pts := make([]int64, s.n)
	for i := range pts {
		pts[i] = int64(i) * s.step
	}
	return pts
}

func (s *stubSource) Durations() []int64 { return DurationsFromPTS(s.PTS(), s.Duration()) }
func (s *stubSource) Duration() int64    { return int64(s.n) * s.step }
func (s *stubSource) TimeBase() media.Rational {
	return s.tb
}

func (s *stubSource) Info() media.StreamInfo {
	return media.StreamInfo{Type: media.TypeVideo, Width: 4, Height: 4, TimeBase: s.tb}
}

func (s *stubSource) Frames(_ context.Context, start, end int) (media.FrameIterator, error) {
	if err := CheckRange(start, end, s.n); err != nil {
		return nil, err
	}
	s.requests = append(s.requests, [2]int{start, end})
	frames := make([]media.Frame, 0, end-start)
	for i := start; i < end; i++ {
		frames = append(frames, media.Frame{
			PTS:         int64(i) * s.step,
			Duration:    s.step,
			TimeBase:    s.tb,
			SourceIndex: i,
			Info:        s.Info(),
			Payload:     []byte{byte(i * 10)},
		})
	}
	return media.NewSliceFrames(frames), nil
}

// newTimeline registers src and builds a timeline on it.
func newTimeline(src Source, opts ...Option) (*Registry, *Timeline) {
	reg := NewRegistry()
	id := reg.Register(src)
	tl, err := New(reg, id, opts...)
	if err != nil {
		panic(err)
	}
	return reg, tl
}

func seq(lo, hi int) []int {
	out := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}

func seq64(lo, hi int) []int64 {
	out := make([]int64, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, int64(i))
	}
	return out
}

func payloads(frames []media.Frame) []byte {
	out := make([]byte, len(frames))
	for i, f := range frames {
		out[i] = f.Payload[0]
	}
	return out
}
