// Package concat joins independently timed sequences into one logical
// sequence with continuous timestamps.
//
// Segments are referenced by registry id rather than held directly, so
// deleting a segment elsewhere leaves a reported broken reference instead of
// a dangling owner. Each segment's timestamps are rebased onto the shared
// time base by the cumulative duration of the segments before it, rounding
// half up.
package concat
