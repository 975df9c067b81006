package avmux

import (
	"fmt"
	"io"

	"github.com/nareix/joy4/av"
)

// TimingWriter is an av.PacketWriter that prints one line per packet:
// stream index, time, keyframe flag and size.
type TimingWriter struct {
	w     io.Writer
	count int
}

// NewTimingWriter writes packet timing lines to w.
func NewTimingWriter(w io.Writer) *TimingWriter {
	return &TimingWriter{w: w}
}

func (t *TimingWriter) WritePacket(pkt av.Packet) error {
	key := "-"
	if pkt.IsKeyFrame {
		key = "K"
	}
	_, err := fmt.Fprintf(t.w, "%d\t%s\t%s\t%d\n", pkt.Idx, pkt.Time, key, len(pkt.Data))
	t.count++
	return err
}

// WriteTrailer prints the packet total.
func (t *TimingWriter) WriteTrailer() error {
	_, err := fmt.Fprintf(t.w, "# %d packets\n", t.count)
	return err
}
