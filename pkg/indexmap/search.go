// Package indexmap translates values to positions in sorted arrays. Every
// timestamp to frame index conversion in recut goes through [Search].
package indexmap

import (
	"fmt"

	"github.com/bft-labs/recut/pkg/media"
)

// Direction selects which neighbour Search returns.
type Direction byte

const (
	// Before selects the greatest index whose value is <= the probe.
	Before Direction = '-'
	// After selects the least index whose value is >= the probe.
	After Direction = '+'
	// Nearest selects the index of the closest value. Ties go to the lower index.
	Nearest Direction = '*'
)

// Number is the set of element types Search accepts.
type Number interface {
	~int | ~int32 | ~int64 | ~float64
}

// RangeError reports a probe outside the searchable range.
type RangeError struct {
	Value any
	Dir   Direction
	Len   int
}

func (e *RangeError) Error() string {
	if e.Len == 0 {
		return "indexmap: search in empty array"
	}
	return fmt.Sprintf("indexmap: no element for %v in direction %q", e.Value, rune(e.Dir))
}

// Unwrap makes RangeError match media.ErrOutOfRange.
func (e *RangeError) Unwrap() error { return media.ErrOutOfRange }

// Search returns an index of the ascending array a according to dir.
// It fails with *RangeError when a is empty, when dir is Before and v is
// below a[0], or when dir is After and v is above a[len(a)-1].
func Search[T Number](a []T, v T, dir Direction) (int, error) {
	n := len(a)
	if n == 0 {
		return 0, &RangeError{Value: v, Dir: dir, Len: 0}
	}

	switch dir {
	case Before:
		i := upperBound(a, v) - 1
		if i < 0 {
			return 0, &RangeError{Value: v, Dir: dir, Len: n}
		}
		return i, nil
	case After:
		i := lowerBound(a, v)
		if i >= n {
			return 0, &RangeError{Value: v, Dir: dir, Len: n}
		}
		return i, nil
	case Nearest:
		i := lowerBound(a, v)
		if i == 0 {
			return 0, nil
		}
		if i == n {
			return n - 1, nil
		}
		if a[i] == v {
			return i, nil
		}
		if v-a[i-1] <= a[i]-v {
			return i - 1, nil
		}
		return i, nil
	default:
		return 0, fmt.Errorf("indexmap: unknown direction %q", rune(dir))
	}
}

// lowerBound returns the least i with a[i] >= v, or len(a).
func lowerBound[T Number](a []T, v T) int {
	lo, hi := 0, len(a)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if a[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// upperBound returns the least i with a[i] > v, or len(a).
func upperBound[T Number](a []T, v T) int {
	lo, hi := 0, len(a)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if a[mid] <= v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Contains reports whether v is in the ascending array a.
func Contains[T Number](a []T, v T) bool {
	i := lowerBound(a, v)
	return i < len(a) && a[i] == v
}

// Insert returns a with v inserted in order. Duplicates are not added.
func Insert[T Number](a []T, v T) []T {
	i := lowerBound(a, v)
	if i < len(a) && a[i] == v {
		return a
	}
	a = append(a, v)
	copy(a[i+1:], a[i:])
	a[i] = v
	return a
}

// Remove returns a without v. It is a no-op if v is absent.
func Remove[T Number](a []T, v T) []T {
	i := lowerBound(a, v)
	if i >= len(a) || a[i] != v {
		return a
	}
	return append(a[:i], a[i+1:]...)
}
