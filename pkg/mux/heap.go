package mux

import (
	"github.com/bft-labs/recut/pkg/media"
)

type item struct {
	pkt   media.Packet
	track int
	seq   uint64
}

// packetHeap orders pending packets by normalized pts, then track index,
// then arrival.
type packetHeap []item

func (h packetHeap) Len() int { return len(h) }

func (h packetHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if c := media.ComparePTS(a.pkt.PTS, a.pkt.TimeBase, b.pkt.PTS, b.pkt.TimeBase); c != 0 {
		return c < 0
	}
	if a.track != b.track {
		return a.track < b.track
	}
	return a.seq < b.seq
}

func (h packetHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *packetHeap) Push(x any) { *h = append(*h, x.(item)) }

func (h *packetHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
