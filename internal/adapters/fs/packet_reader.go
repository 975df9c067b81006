package fs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/bft-labs/recut/pkg/media"
)

// PacketLogReader reads a packet log back in write order. It implements
// media.PacketIterator.
type PacketLogReader struct {
	dir    string
	index  *os.File
	reader *bufio.Reader
	data   *os.File
	line   int
}

// OpenPacketLog opens the packet log in dir.
func OpenPacketLog(dir string) (*PacketLogReader, error) {
	index, err := os.Open(filepath.Join(dir, IndexFileName))
	if err != nil {
		return nil, err
	}
	data, err := os.Open(filepath.Join(dir, DataFileName))
	if err != nil {
		index.Close()
		return nil, err
	}
	return &PacketLogReader{
		dir:    dir,
		index:  index,
		reader: bufio.NewReaderSize(index, 64*1024),
		data:   data,
	}, nil
}

// NextMeta returns the next index entry without reading its payload.
func (r *PacketLogReader) NextMeta(ctx context.Context) (PacketMeta, error) {
	select {
	case <-ctx.Done():
		return PacketMeta{}, ctx.Err()
	default:
	}

	line, err := r.reader.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) == 0 {
			return PacketMeta{}, io.EOF
		}
		if !errors.Is(err, io.EOF) {
			return PacketMeta{}, err
		}
	}
	r.line++

	var meta PacketMeta
	if err := json.Unmarshal(line, &meta); err != nil {
		return PacketMeta{}, fmt.Errorf("fs: bad index line %d: %w", r.line, err)
	}
	return meta, nil
}

// Next returns the next packet with its payload verified.
func (r *PacketLogReader) Next(ctx context.Context) (media.Packet, error) {
	meta, err := r.NextMeta(ctx)
	if err != nil {
		return media.Packet{}, err
	}
	tb, err := media.ParseRational(meta.TimeBase)
	if err != nil {
		return media.Packet{}, fmt.Errorf("fs: index line %d: %w", r.line, err)
	}
	data, err := readSection(r.data, meta.Offset, meta.Length)
	if err != nil {
		return media.Packet{}, fmt.Errorf("fs: index line %d: %w", r.line, err)
	}
	if crc32.ChecksumIEEE(data) != meta.CRC32 {
		return media.Packet{}, fmt.Errorf("index line %d: %w", r.line, ErrChecksum)
	}
	return media.Packet{
		Data:     data,
		PTS:      meta.PTS,
		Duration: meta.Duration,
		TimeBase: tb,
		Keyframe: meta.Keyframe,
		Track:    meta.Track,
	}, nil
}

// Close releases both files.
func (r *PacketLogReader) Close() error {
	return errors.Join(r.index.Close(), r.data.Close())
}

// readSection reads [off, off+length) bytes from f.
func readSection(f *os.File, off int64, length int) ([]byte, error) {
	buf := make([]byte, length)
	_, err := io.ReadFull(io.NewSectionReader(f, off, int64(length)), buf)
	return buf, err
}
