package timeline

import (
	"errors"
	"fmt"

	"github.com/bft-labs/recut/pkg/media"
)

// Structural errors indicate an invalid edit rather than bad data.
var (
	// ErrFirstZonePinned is returned when an edit would move, split at, or
	// remove the first zone's start, which is always predecessor index 0.
	ErrFirstZonePinned = errors.New("timeline: first zone start is pinned at 0")

	// ErrBoundaryExists is returned by InsertZoneAt when a zone already
	// starts at the requested index. The timeline is left unchanged.
	ErrBoundaryExists = errors.New("timeline: zone boundary already exists")

	// ErrNoBoundary is returned by RemoveZoneAt when no zone starts at the
	// requested index.
	ErrNoBoundary = errors.New("timeline: no zone boundary at index")

	// ErrUnknownZone is returned for a ZoneID that is not part of the timeline.
	ErrUnknownZone = errors.New("timeline: unknown zone")
)

// Index space names used in RangeError.
const (
	SpaceSource      = "source"
	SpacePredecessor = "predecessor"
	SpaceOutput      = "output"
)

// RangeError reports an index outside [0, Len) of the named index space.
type RangeError struct {
	Space string
	Index int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("timeline: %s index %d out of range [0, %d)", e.Space, e.Index, e.Len)
}

// Unwrap makes RangeError match media.ErrOutOfRange.
func (e *RangeError) Unwrap() error { return media.ErrOutOfRange }
