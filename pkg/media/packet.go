package media

import "math"

// NoPTS marks a packet whose timestamp must be assigned downstream.
const NoPTS int64 = math.MinInt64

// Packet is one encoded unit of media belonging to an output track.
type Packet struct {
	Data     []byte
	PTS      int64
	Duration int64
	TimeBase Rational
	Keyframe bool

	// Track is the output track index the packet is written to.
	Track int
}

// Seconds returns the packet's presentation time in seconds.
func (p Packet) Seconds() float64 {
	return p.TimeBase.Seconds(p.PTS)
}

// Before reports whether p is presented strictly before q.
func (p Packet) Before(q Packet) bool {
	return ComparePTS(p.PTS, p.TimeBase, q.PTS, q.TimeBase) < 0
}
