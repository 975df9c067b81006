// Package fs implements a minimal on-disk container: a packet log made of a
// data file and a JSON-lines index describing every packet in write order.
package fs

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/bft-labs/recut/pkg/log"
	"github.com/bft-labs/recut/pkg/media"
)

const (
	// IndexFileName is the JSON-lines packet index inside a log directory.
	IndexFileName = "packets.idx"

	// DataFileName holds the concatenated packet payloads.
	DataFileName = "packets.dat"
)

// ErrChecksum is returned when a packet's payload does not match its index entry.
var ErrChecksum = errors.New("fs: packet checksum mismatch")

// PacketMeta is one index line.
type PacketMeta struct {
	Track    int    `json:"track"`
	PTS      int64  `json:"pts"`
	Duration int64  `json:"dur"`
	TimeBase string `json:"tb"`
	Keyframe bool   `json:"key,omitempty"`
	Offset   int64  `json:"off"`
	Length   int    `json:"len"`
	CRC32    uint32 `json:"crc32"`
}

// Seconds returns the packet's presentation time in seconds.
func (m PacketMeta) Seconds() float64 {
	tb, err := media.ParseRational(m.TimeBase)
	if err != nil {
		return 0
	}
	return tb.Seconds(m.PTS)
}

// PacketLogWriter appends packets to a packet log directory. It implements
// render.Writer.
type PacketLogWriter struct {
	dir    string
	data   *os.File
	index  *os.File
	idxBuf *bufio.Writer
	enc    *json.Encoder
	off    int64
	count  int
	logger log.Logger
}

// NewPacketLogWriter creates dir if needed and truncates any packet log in it.
func NewPacketLogWriter(dir string, logger log.Logger) (*PacketLogWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	data, err := os.Create(filepath.Join(dir, DataFileName))
	if err != nil {
		return nil, err
	}
	index, err := os.Create(filepath.Join(dir, IndexFileName))
	if err != nil {
		data.Close()
		return nil, err
	}
	buf := bufio.NewWriterSize(index, 64*1024)
	return &PacketLogWriter{
		dir:    dir,
		data:   data,
		index:  index,
		idxBuf: buf,
		enc:    json.NewEncoder(buf),
		logger: log.OrNoop(logger),
	}, nil
}

// WritePacket appends p's payload and its index line.
func (w *PacketLogWriter) WritePacket(p media.Packet) error {
	if w.data == nil {
		return os.ErrClosed
	}
	n, err := w.data.Write(p.Data)
	if err != nil {
		return fmt.Errorf("fs: write packet data: %w", err)
	}
	meta := PacketMeta{
		Track:    p.Track,
		PTS:      p.PTS,
		Duration: p.Duration,
		TimeBase: p.TimeBase.String(),
		Keyframe: p.Keyframe,
		Offset:   w.off,
		Length:   n,
		CRC32:    crc32.ChecksumIEEE(p.Data),
	}
	if err := w.enc.Encode(meta); err != nil {
		return fmt.Errorf("fs: write packet index: %w", err)
	}
	w.off += int64(n)
	w.count++
	return nil
}

// Count returns the number of packets written.
func (w *PacketLogWriter) Count() int { return w.count }

// Dir returns the log directory.
func (w *PacketLogWriter) Dir() string { return w.dir }

// Close flushes the index and closes both files.
func (w *PacketLogWriter) Close() error {
	if w.data == nil {
		return nil
	}
	var errs []error
	if err := w.idxBuf.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := w.index.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := w.data.Close(); err != nil {
		errs = append(errs, err)
	}
	w.data, w.index = nil, nil
	w.logger.Debug("packet log closed",
		log.String("dir", w.dir),
		log.Int("packets", w.count),
		log.Int64("bytes", w.off),
	)
	return errors.Join(errs...)
}
