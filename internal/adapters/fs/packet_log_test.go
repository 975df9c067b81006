package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bft-labs/recut/pkg/media"
)

func writeLog(t *testing.T, dir string, pkts []media.Packet) {
	t.Helper()
	w, err := NewPacketLogWriter(dir, nil)
	if err != nil {
		t.Fatalf("NewPacketLogWriter() error = %v", err)
	}
	for _, p := range pkts {
		if err := w.WritePacket(p); err != nil {
			t.Fatalf("WritePacket() error = %v", err)
		}
	}
	if w.Count() != len(pkts) {
		t.Errorf("Count() = %d, want %d", w.Count(), len(pkts))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestPacketLogRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	pkts := []media.Packet{
		{Data: []byte("abc"), PTS: 0, Duration: 3600, TimeBase: media.MPEGClock, Keyframe: true, Track: 0},
		{Data: []byte("xy"), PTS: 0, Duration: 1024, TimeBase: media.NewRational(1, 48000), Track: 1},
		{Data: nil, PTS: 1, Duration: 1, TimeBase: media.NewRational(1, 25), Track: 0},
		{Data: []byte("zzzz"), PTS: 3600, Duration: 3600, TimeBase: media.MPEGClock, Track: 0},
	}
	writeLog(t, dir, pkts)

	r, err := OpenPacketLog(dir)
	if err != nil {
		t.Fatalf("OpenPacketLog() error = %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	for i, want := range pkts {
		got, err := r.Next(ctx)
		if err != nil {
			t.Fatalf("packet %d: Next() error = %v", i, err)
		}
		if string(got.Data) != string(want.Data) || got.PTS != want.PTS || got.Track != want.Track ||
			got.TimeBase != want.TimeBase || got.Keyframe != want.Keyframe || got.Duration != want.Duration {
			t.Errorf("packet %d = %+v, want %+v", i, got, want)
		}
	}
	if _, err := r.Next(ctx); err != io.EOF {
		t.Errorf("Next() at end error = %v, want io.EOF", err)
	}
}

func TestPacketLogChecksum(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, []media.Packet{{Data: []byte("hello"), TimeBase: media.NewRational(1, 25)}})

	if err := os.WriteFile(filepath.Join(dir, DataFileName), []byte("jello"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := OpenPacketLog(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := r.Next(context.Background()); !errors.Is(err, ErrChecksum) {
		t.Errorf("Next() error = %v, want ErrChecksum", err)
	}
}

func TestPacketLogMetaSeconds(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, []media.Packet{{Data: []byte{1}, PTS: 45000, TimeBase: media.MPEGClock}})

	r, err := OpenPacketLog(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	meta, err := r.NextMeta(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := meta.Seconds(); got != 0.5 {
		t.Errorf("Seconds() = %v, want 0.5", got)
	}
}

func TestWriteAfterClose(t *testing.T) {
	w, err := NewPacketLogWriter(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Close()
	if err := w.WritePacket(media.Packet{}); !errors.Is(err, os.ErrClosed) {
		t.Errorf("WritePacket() after Close error = %v", err)
	}
}

func TestOpenMissingLog(t *testing.T) {
	if _, err := OpenPacketLog(t.TempDir()); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
