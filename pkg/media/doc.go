// Package media defines the value types that flow through recut: decoded
// frames, encoded packets, time bases and the pull-style iterators that
// connect decode, zone processing, encoding and multiplexing.
//
// # Time
//
// Timestamps are integer tick counts in a [Rational] time base. Converting
// between time bases uses [Rescale], which rounds half up with exact integer
// arithmetic so repeated derivations are idempotent. [ComparePTS] orders two
// timestamps expressed in different time bases without rounding.
//
// # Iterators
//
// [FrameIterator] and [PacketIterator] follow the same contract: Next returns
// the next value, io.EOF once the sequence is exhausted, or any other error
// for an unrecoverable failure.
package media
