// Package timeline implements the zoned timeline: an ordered set of zones,
// each owning a contiguous run of a predecessor sequence's frames and
// remapping them to output positions.
//
// # Index spaces
//
// Three index spaces meet in a timeline:
//
//   - predecessor indices: positions in the sequence the timeline is built on.
//     Zone boundaries are expressed in this space.
//   - source indices: positions in the root sequence of a chain of timelines.
//   - output indices: positions in the timeline's own output.
//
// Each zone exposes a forward map (predecessor-local to output-local, or
// [Dropped]) and a reverse map (output-local to predecessor-local). The
// timeline's composed maps are the zone maps concatenated in zone order.
//
// # Caches
//
// Every derived array is computed lazily and memoized. Edits invalidate the
// zones they touch and truncate the timeline's composed arrays to the first
// affected zone; zones before it keep their cached contributions. Downstream
// sequences built on a timeline are notified through the [Registry].
//
// # Concurrency
//
// A Timeline is not safe for concurrent mutation. Edits happen on the control
// side; renders read through a [Snapshot] taken when iteration starts, so an
// edit never changes frames already being produced.
package timeline
