package project

import (
	"fmt"
	"slices"

	"github.com/bft-labs/recut/pkg/timeline"
)

// KindFromSpec builds the zone kind a spec describes.
func KindFromSpec(z ZoneSpec) (timeline.Kind, error) {
	switch z.Kind {
	case "", "passthrough":
		return timeline.Passthrough{}, nil
	case "trim":
		return timeline.Trim{Head: z.Head, Tail: z.Tail}, nil
	case "drop":
		return timeline.Drop{Frames: slices.Clone(z.Frames)}, nil
	case "freeze":
		return timeline.Freeze{At: slices.Clone(z.At), Count: z.Count}, nil
	case "scene":
		return timeline.Scene{Limit: z.Limit}, nil
	case "crossfade":
		return timeline.Crossfade{Frames: z.Overlap}, nil
	}
	return nil, fmt.Errorf("unknown zone kind %q", z.Kind)
}

// SpecFromKind describes a zone of kind k starting at start.
func SpecFromKind(start int, k timeline.Kind) (ZoneSpec, error) {
	z := ZoneSpec{Start: start, Kind: k.Name()}
	switch k := k.(type) {
	case timeline.Passthrough:
	case timeline.Trim:
		z.Head, z.Tail = k.Head, k.Tail
	case timeline.Drop:
		z.Frames = slices.Clone(k.Frames)
	case timeline.Freeze:
		z.At, z.Count = slices.Clone(k.At), k.Count
	case timeline.Scene:
		z.Limit = k.Limit
	case timeline.Crossfade:
		z.Overlap = k.Frames
	default:
		return ZoneSpec{}, fmt.Errorf("zone kind %q cannot be saved", k.Name())
	}
	return z, nil
}

// FromTimeline describes every zone of tl.
func FromTimeline(tl *timeline.Timeline) ([]ZoneSpec, error) {
	zones := tl.Zones()
	out := make([]ZoneSpec, 0, len(zones))
	for _, info := range zones {
		z, err := SpecFromKind(info.PrevStart, info.Kind)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, nil
}

// ApplyZones rebuilds tl's zone structure from specs. tl must still have
// its single initial zone.
func ApplyZones(tl *timeline.Timeline, specs []ZoneSpec) error {
	if tl.ZoneCount() != 1 {
		return fmt.Errorf("project: timeline already has %d zones", tl.ZoneCount())
	}
	for i, spec := range specs {
		k, err := KindFromSpec(spec)
		if err != nil {
			return fmt.Errorf("zone %d: %w", i, err)
		}
		if i == 0 {
			if spec.Start != 0 {
				return fmt.Errorf("zone 0: %w", timeline.ErrFirstZonePinned)
			}
			if _, err := tl.SetKind(tl.Zones()[0].ID, k); err != nil {
				return err
			}
			continue
		}
		if _, err := tl.InsertZoneAt(spec.Start, k); err != nil {
			return fmt.Errorf("zone %d: %w", i, err)
		}
	}
	return nil
}
