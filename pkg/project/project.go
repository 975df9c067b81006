package project

import (
	"errors"
	"fmt"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/recut/pkg/media"
)

// FormatVersion is the project file version written by this package.
const FormatVersion = 1

// Project is the persisted form of an edit.
type Project struct {
	Version int          `toml:"version"`
	Name    string       `toml:"name"`
	Sources []SourceSpec `toml:"sources"`
	Tracks  []TrackSpec  `toml:"tracks"`
}

// SourceSpec describes a decodable input.
type SourceSpec struct {
	ID           string `toml:"id"`
	Generator    string `toml:"generator"`
	Type         string `toml:"type"`
	Frames       int    `toml:"frames"`
	Rate         string `toml:"rate"`
	Width        int    `toml:"width,omitempty"`
	Height       int    `toml:"height,omitempty"`
	SampleAspect string `toml:"sample_aspect,omitempty"`
	SampleRate   int    `toml:"sample_rate,omitempty"`
	Channels     int    `toml:"channels,omitempty"`
	Seed         int64  `toml:"seed,omitempty"`
}

// MediaType returns the parsed stream type.
func (s SourceSpec) MediaType() media.MediaType { return media.ParseMediaType(s.Type) }

// TrackSpec is one output track: a timeline over one source, or over the
// concatenation of several.
type TrackSpec struct {
	Name     string      `toml:"name"`
	Sources  []string    `toml:"sources"`
	TimeBase string      `toml:"time_base,omitempty"`
	Encoder  EncoderSpec `toml:"encoder"`
	Zones    []ZoneSpec  `toml:"zones"`
}

// EncoderSpec selects and parameterises a track's encoder. A non-zero
// TargetSize, in bytes, overrides Bitrate with the rate that makes the
// rendered range come out at that size.
type EncoderSpec struct {
	Name         string  `toml:"name"`
	Lookahead    int     `toml:"lookahead,omitempty"`
	Bitrate      int64   `toml:"bitrate,omitempty"`
	TargetSize   int64   `toml:"target_size,omitempty"`
	AudioBitrate int64   `toml:"audio_bitrate,omitempty"`
	Overhead     float64 `toml:"overhead,omitempty"`
}

// ZoneSpec is one zone: where it starts in the predecessor and its kind.
type ZoneSpec struct {
	Start   int    `toml:"start"`
	Kind    string `toml:"kind"`
	Head    int    `toml:"head,omitempty"`
	Tail    int    `toml:"tail,omitempty"`
	Frames  []int  `toml:"frames,omitempty"`
	At      []int  `toml:"at,omitempty"`
	Count   int    `toml:"count,omitempty"`
	Limit   int    `toml:"limit,omitempty"`
	Overlap int    `toml:"overlap,omitempty"`
}

// Source returns the source with the given id.
func (p *Project) Source(id string) (SourceSpec, bool) {
	for _, s := range p.Sources {
		if s.ID == id {
			return s, true
		}
	}
	return SourceSpec{}, false
}

// Validate reports every structural problem in the project.
func (p *Project) Validate() error {
	var errs []error
	if p.Version > FormatVersion {
		errs = append(errs, fmt.Errorf("version %d is newer than supported %d", p.Version, FormatVersion))
	}
	seen := make(map[string]bool, len(p.Sources))
	for i, s := range p.Sources {
		switch {
		case s.ID == "":
			errs = append(errs, fmt.Errorf("source %d: missing id", i))
		case seen[s.ID]:
			errs = append(errs, fmt.Errorf("source %d: duplicate id %q", i, s.ID))
		}
		seen[s.ID] = true
		if _, err := media.ParseRational(s.Rate); err != nil {
			errs = append(errs, fmt.Errorf("source %q: %w", s.ID, err))
		}
		if s.Frames < 0 {
			errs = append(errs, fmt.Errorf("source %q: negative frame count", s.ID))
		}
		if s.SampleAspect != "" {
			if _, err := media.ParseRational(s.SampleAspect); err != nil {
				errs = append(errs, fmt.Errorf("source %q: sample aspect: %w", s.ID, err))
			}
		}
	}
	if len(p.Tracks) == 0 {
		errs = append(errs, errors.New("no tracks"))
	}
	for i, t := range p.Tracks {
		if len(t.Sources) == 0 {
			errs = append(errs, fmt.Errorf("track %d: no sources", i))
		}
		for _, id := range t.Sources {
			if !seen[id] {
				errs = append(errs, fmt.Errorf("track %d: source %q: %w", i, id, media.ErrBrokenReference))
			}
		}
		if t.TimeBase != "" {
			if _, err := media.ParseRational(t.TimeBase); err != nil {
				errs = append(errs, fmt.Errorf("track %d: %w", i, err))
			}
		}
		if err := t.Encoder.validate(); err != nil {
			errs = append(errs, fmt.Errorf("track %d: encoder: %w", i, err))
		}
		for z, spec := range t.Zones {
			if z == 0 && spec.Start != 0 {
				errs = append(errs, fmt.Errorf("track %d: first zone starts at %d, not 0", i, spec.Start))
			}
			if z > 0 && spec.Start <= t.Zones[z-1].Start {
				errs = append(errs, fmt.Errorf("track %d: zone %d start %d is not after %d", i, z, spec.Start, t.Zones[z-1].Start))
			}
			if _, err := KindFromSpec(spec); err != nil {
				errs = append(errs, fmt.Errorf("track %d: zone %d: %w", i, z, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (e EncoderSpec) validate() error {
	switch {
	case e.Lookahead < 0:
		return fmt.Errorf("negative lookahead %d", e.Lookahead)
	case e.Bitrate < 0:
		return fmt.Errorf("negative bitrate %d", e.Bitrate)
	case e.TargetSize < 0:
		return fmt.Errorf("negative target size %d", e.TargetSize)
	case e.AudioBitrate < 0:
		return fmt.Errorf("negative audio bitrate %d", e.AudioBitrate)
	case e.Overhead < 0 || e.Overhead >= 1:
		return fmt.Errorf("overhead %g outside [0, 1)", e.Overhead)
	}
	return nil
}

// Marshal encodes the project as TOML.
func Marshal(p *Project) ([]byte, error) {
	if p.Version == 0 {
		p.Version = FormatVersion
	}
	return toml.Marshal(p)
}

// Unmarshal decodes a TOML project.
func Unmarshal(data []byte) (*Project, error) {
	var p Project
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("project: decode: %w", err)
	}
	return &p, nil
}
