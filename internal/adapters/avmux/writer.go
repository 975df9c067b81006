// Package avmux bridges rendered packets to joy4 packet writers, so any joy4
// muxer can serve as the output container.
package avmux

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/nareix/joy4/av"

	"github.com/bft-labs/recut/pkg/media"
)

// ErrTrackIndex is returned for a packet whose track does not fit a joy4
// stream index.
var ErrTrackIndex = errors.New("avmux: track index out of range")

// trailerWriter is implemented by joy4 muxers.
type trailerWriter interface {
	WriteTrailer() error
}

// Writer adapts an av.PacketWriter to render.Writer.
type Writer struct {
	pw     av.PacketWriter
	closed bool
}

// NewWriter wraps pw. On Close the trailer is written when pw is a muxer and
// pw is closed when it is an io.Closer.
func NewWriter(pw av.PacketWriter) *Writer {
	return &Writer{pw: pw}
}

// WritePacket converts p to an av.Packet and writes it.
func (w *Writer) WritePacket(p media.Packet) error {
	if w.closed {
		return io.ErrClosedPipe
	}
	pkt, err := Convert(p)
	if err != nil {
		return err
	}
	return w.pw.WritePacket(pkt)
}

// Close finishes the container.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	var errs []error
	if tw, ok := w.pw.(trailerWriter); ok {
		if err := tw.WriteTrailer(); err != nil {
			errs = append(errs, fmt.Errorf("avmux: write trailer: %w", err))
		}
	}
	if c, ok := w.pw.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Convert maps a packet onto joy4's representation: the track becomes the
// stream index and the timestamp a wall-clock offset.
func Convert(p media.Packet) (av.Packet, error) {
	if p.Track < 0 || p.Track > math.MaxInt8 {
		return av.Packet{}, fmt.Errorf("%w: %d", ErrTrackIndex, p.Track)
	}
	return av.Packet{
		IsKeyFrame: p.Keyframe,
		Idx:        int8(p.Track),
		Time:       p.TimeBase.Duration(p.PTS),
		Data:       p.Data,
	}, nil
}
