// Package synth provides deterministic stand-ins for the decode and encode
// capabilities: generated frame sources and a raw pass-through encoder.
package synth

import (
	"context"
	"fmt"
	"io"

	"github.com/bft-labs/recut/pkg/media"
	"github.com/bft-labs/recut/pkg/project"
	"github.com/bft-labs/recut/pkg/timeline"
)

// GOP is the keyframe interval of generated sources.
const GOP = 12

// maxPayload caps the generated payload size per frame.
const maxPayload = 4096

// Source is a generated sequence of frames, one tick apart in the inverse of
// its frame rate.
type Source struct {
	spec    project.SourceSpec
	info    media.StreamInfo
	silence bool
}

// Open builds the source a SourceSpec describes. It matches
// project.SourceFactory.
func Open(spec project.SourceSpec) (timeline.Source, error) {
	return New(spec)
}

// New builds a generated source.
func New(spec project.SourceSpec) (*Source, error) {
	rate, err := media.ParseRational(spec.Rate)
	if err != nil {
		return nil, fmt.Errorf("synth: %w", err)
	}
	if spec.Frames < 0 {
		return nil, fmt.Errorf("synth: negative frame count %d", spec.Frames)
	}
	s := &Source{spec: spec}
	switch spec.Generator {
	case "", "pattern":
	case "silence":
		s.silence = true
	default:
		return nil, fmt.Errorf("synth: unknown generator %q", spec.Generator)
	}
	s.info = media.StreamInfo{
		Type:       spec.MediaType(),
		Width:      spec.Width,
		Height:     spec.Height,
		SampleRate: spec.SampleRate,
		Channels:   spec.Channels,
		TimeBase:   rate.Inverse(),
	}
	if spec.SampleAspect != "" {
		if s.info.SampleAspect, err = media.ParseRational(spec.SampleAspect); err != nil {
			return nil, fmt.Errorf("synth: sample aspect: %w", err)
		}
	}
	return s, nil
}

func (s *Source) FrameCount() int { return s.spec.Frames }

func (s *Source) PTS() []int64 {
	pts := make([]int64, s.spec.Frames)
	for i := range pts {
		pts[i] = int64(i)
	}
	return pts
}

func (s *Source) Durations() []int64 {
	d := make([]int64, s.spec.Frames)
	for i := range d {
		d[i] = 1
	}
	return d
}

func (s *Source) Duration() int64          { return int64(s.spec.Frames) }
func (s *Source) TimeBase() media.Rational { return s.info.TimeBase }
func (s *Source) Info() media.StreamInfo   { return s.info }

// Frames generates frames [start, end) lazily.
func (s *Source) Frames(ctx context.Context, start, end int) (media.FrameIterator, error) {
	if err := timeline.CheckRange(start, end, s.spec.Frames); err != nil {
		return nil, err
	}
	return &frames{src: s, next: start, end: end}, nil
}

// payload fills frame i's bytes from the seed and index.
func (s *Source) payload(i int) []byte {
	n := s.payloadSize()
	b := make([]byte, n)
	if s.silence {
		return b
	}
	v := uint32(s.spec.Seed) ^ uint32(i)*2654435761
	for j := range b {
		v = v*1664525 + 1013904223
		b[j] = byte(v >> 24)
	}
	return b
}

func (s *Source) payloadSize() int {
	var n int
	switch s.info.Type {
	case media.TypeVideo:
		n = s.spec.Width * s.spec.Height
	case media.TypeAudio:
		n = s.spec.Channels * 2 * 64
	}
	if n <= 0 {
		n = 16
	}
	return min(n, maxPayload)
}

type frames struct {
	src  *Source
	next int
	end  int
}

func (f *frames) Next(ctx context.Context) (media.Frame, error) {
	if err := ctx.Err(); err != nil {
		return media.Frame{}, err
	}
	if f.next >= f.end {
		return media.Frame{}, io.EOF
	}
	i := f.next
	f.next++
	return media.Frame{
		PTS:         int64(i),
		Duration:    1,
		TimeBase:    f.src.info.TimeBase,
		Keyframe:    i%GOP == 0,
		SourceIndex: i,
		Info:        f.src.info,
		Payload:     f.src.payload(i),
	}, nil
}

func (f *frames) Close() error { return nil }
