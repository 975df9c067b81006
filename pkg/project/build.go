package project

import (
	"fmt"

	"github.com/bft-labs/recut/pkg/concat"
	"github.com/bft-labs/recut/pkg/media"
	"github.com/bft-labs/recut/pkg/timeline"
)

// SourceFactory opens the decodable input a SourceSpec describes.
type SourceFactory func(SourceSpec) (timeline.Source, error)

// Track is a built track: its spec and the timeline that renders it.
type Track struct {
	Spec     TrackSpec
	Timeline *timeline.Timeline

	// Concat is set when the track joins more than one source.
	Concat *concat.Concat
}

// Build opens every source through open, registers it in reg and builds one
// timeline per track with the saved zones applied.
func Build(reg *timeline.Registry, p *Project, open SourceFactory) ([]Track, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	ids := make(map[string]timeline.NodeID, len(p.Sources))
	for _, spec := range p.Sources {
		src, err := open(spec)
		if err != nil {
			return nil, fmt.Errorf("project: source %q: %w", spec.ID, err)
		}
		ids[spec.ID] = reg.Register(src)
	}

	tracks := make([]Track, 0, len(p.Tracks))
	for i, spec := range p.Tracks {
		t := Track{Spec: spec}
		pred := ids[spec.Sources[0]]
		if len(spec.Sources) > 1 {
			segs := make([]timeline.NodeID, len(spec.Sources))
			for j, id := range spec.Sources {
				segs[j] = ids[id]
			}
			tb, err := trackTimeBase(reg, spec, segs[0])
			if err != nil {
				return nil, fmt.Errorf("project: track %d: %w", i, err)
			}
			t.Concat = concat.New(reg, tb, segs...)
			pred = t.Concat.ID()
		}
		tl, err := timeline.New(reg, pred)
		if err != nil {
			return nil, fmt.Errorf("project: track %d: %w", i, err)
		}
		if err := ApplyZones(tl, spec.Zones); err != nil {
			return nil, fmt.Errorf("project: track %d: %w", i, err)
		}
		t.Timeline = tl
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// trackTimeBase is the track's configured time base, or its first
// segment's.
func trackTimeBase(reg *timeline.Registry, spec TrackSpec, first timeline.NodeID) (media.Rational, error) {
	if spec.TimeBase != "" {
		return media.ParseRational(spec.TimeBase)
	}
	src, ok := reg.Lookup(first)
	if !ok {
		return media.Rational{}, media.ErrBrokenReference
	}
	return src.TimeBase(), nil
}

// Capture updates the zones of every track in p from the built tracks.
func Capture(p *Project, tracks []Track) error {
	for i := range tracks {
		if i >= len(p.Tracks) {
			break
		}
		zones, err := FromTimeline(tracks[i].Timeline)
		if err != nil {
			return fmt.Errorf("project: track %d: %w", i, err)
		}
		p.Tracks[i].Zones = zones
	}
	return nil
}
