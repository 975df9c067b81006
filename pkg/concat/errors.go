package concat

import (
	"fmt"

	"github.com/bft-labs/recut/pkg/media"
	"github.com/bft-labs/recut/pkg/timeline"
)

// IncompatibleError reports a segment whose stream shape differs from the
// segment before it.
type IncompatibleError struct {
	Index int
	Field string
	Want  string
	Got   string
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("concat: segment %d: %s is %s, want %s", e.Index, e.Field, e.Got, e.Want)
}

// Unwrap makes IncompatibleError match media.ErrIncompatible.
func (e *IncompatibleError) Unwrap() error { return media.ErrIncompatible }

// BrokenReferenceError reports a segment id that is no longer registered.
type BrokenReferenceError struct {
	Index int
	ID    timeline.NodeID
}

func (e *BrokenReferenceError) Error() string {
	return fmt.Sprintf("concat: segment %d: node %d no longer exists", e.Index, e.ID)
}

// Unwrap makes BrokenReferenceError match media.ErrBrokenReference.
func (e *BrokenReferenceError) Unwrap() error { return media.ErrBrokenReference }
