package media

import "errors"

// Error classes shared across recut. Concrete errors wrap one of these so
// callers can classify failures with errors.Is.
var (
	// ErrOutOfRange is matched by every index or timestamp lookup failure.
	ErrOutOfRange = errors.New("recut: out of range")

	// ErrIncompatible is matched by validation errors between joined sequences.
	ErrIncompatible = errors.New("recut: incompatible streams")

	// ErrBrokenReference is matched when a referenced sequence no longer exists.
	ErrBrokenReference = errors.New("recut: broken reference")
)
