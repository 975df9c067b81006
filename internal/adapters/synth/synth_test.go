package synth

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/bft-labs/recut/pkg/media"
	"github.com/bft-labs/recut/pkg/project"
)

func TestNewSource(t *testing.T) {
	tests := []struct {
		name    string
		spec    project.SourceSpec
		wantErr bool
	}{
		{"video", project.SourceSpec{ID: "a", Type: "video", Frames: 10, Rate: "25", Width: 8, Height: 8}, false},
		{"audio silence", project.SourceSpec{ID: "b", Generator: "silence", Type: "audio", Frames: 5, Rate: "50", SampleRate: 48000, Channels: 2}, false},
		{"bad rate", project.SourceSpec{ID: "c", Type: "video", Frames: 1, Rate: "0/0"}, true},
		{"negative frames", project.SourceSpec{ID: "d", Type: "video", Frames: -1, Rate: "25"}, true},
		{"unknown generator", project.SourceSpec{ID: "e", Generator: "noise", Frames: 1, Rate: "25"}, true},
		{"anamorphic", project.SourceSpec{ID: "f", Type: "video", Frames: 1, Rate: "25", SampleAspect: "4/3"}, false},
		{"bad sample aspect", project.SourceSpec{ID: "g", Type: "video", Frames: 1, Rate: "25", SampleAspect: "4:3"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSourceFrames(t *testing.T) {
	src, err := New(project.SourceSpec{ID: "a", Type: "video", Frames: 30, Rate: "30000/1001", Width: 4, Height: 4, Seed: 7})
	if err != nil {
		t.Fatal(err)
	}
	if got := src.TimeBase(); got != media.NewRational(1001, 30000) {
		t.Errorf("TimeBase() = %v", got)
	}
	if src.Duration() != 30 || len(src.PTS()) != 30 {
		t.Errorf("Duration() = %d, len(PTS()) = %d", src.Duration(), len(src.PTS()))
	}

	it, err := src.Frames(context.Background(), 10, 14)
	if err != nil {
		t.Fatal(err)
	}
	frames, err := media.CollectFrames(context.Background(), it)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 4 {
		t.Fatalf("got %d frames, want 4", len(frames))
	}
	for i, f := range frames {
		if f.PTS != int64(10+i) || f.SourceIndex != 10+i {
			t.Errorf("frame %d: pts %d index %d", i, f.PTS, f.SourceIndex)
		}
		if len(f.Payload) != 16 {
			t.Errorf("frame %d: payload %d bytes", i, len(f.Payload))
		}
	}
	if !frames[2].Keyframe || frames[0].Keyframe {
		t.Error("keyframes should fall on multiples of the GOP")
	}

	again, _ := src.Frames(context.Background(), 10, 11)
	f, _ := again.Next(context.Background())
	if string(f.Payload) != string(frames[0].Payload) {
		t.Error("payloads should be deterministic")
	}

	if _, err := src.Frames(context.Background(), 5, 31); !errors.Is(err, media.ErrOutOfRange) {
		t.Errorf("Frames(5, 31) error = %v, want ErrOutOfRange", err)
	}
}

func TestRawEncoderLookahead(t *testing.T) {
	ctx := context.Background()
	enc := NewRawEncoder(2)
	var got []media.Packet
	for i := 0; i < 5; i++ {
		pkts, err := enc.Encode(ctx, media.Frame{PTS: int64(i), Duration: 1, Payload: []byte{byte(i)}})
		if err != nil {
			t.Fatal(err)
		}
		if i < 2 && len(pkts) != 0 {
			t.Fatalf("frame %d: emitted %d packets before look-ahead filled", i, len(pkts))
		}
		got = append(got, pkts...)
	}
	if len(got) != 3 {
		t.Fatalf("got %d packets before flush, want 3", len(got))
	}
	rest, err := enc.Flush(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got = append(got, rest...)
	for i, p := range got {
		if p.PTS != int64(i) || p.Data[0] != byte(i) {
			t.Errorf("packet %d: pts %d data %v", i, p.PTS, p.Data)
		}
	}

	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Encode(ctx, media.Frame{}); !errors.Is(err, ErrEncoderClosed) {
		t.Errorf("Encode after Close error = %v", err)
	}
}

func TestNewEncoder(t *testing.T) {
	if _, err := NewEncoder(project.EncoderSpec{Name: "raw", Lookahead: 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := NewEncoder(project.EncoderSpec{Name: "x264"}); err == nil {
		t.Fatal("expected error for unknown encoder")
	}
}

func TestSourceSampleAspect(t *testing.T) {
	src, err := New(project.SourceSpec{ID: "a", Type: "video", Frames: 1, Rate: "25", SampleAspect: "4/3"})
	if err != nil {
		t.Fatal(err)
	}
	if got := src.Info().SampleAspect; got != media.NewRational(4, 3) {
		t.Errorf("SampleAspect = %v, want 4/3", got)
	}
}

func TestRawEncoderBitrate(t *testing.T) {
	ctx := context.Background()
	enc, err := NewEncoder(project.EncoderSpec{Bitrate: 800})
	if err != nil {
		t.Fatal(err)
	}
	tb := media.NewRational(1, 25)
	tests := []struct {
		name     string
		duration int64
		payload  int
		want     int
	}{
		{"cut to rate", 1, 16, 4},
		{"longer frame", 3, 16, 12},
		{"short payload kept", 1, 2, 2},
		{"zero duration keeps one byte", 0, 16, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := enc.Encode(ctx, media.Frame{Duration: tt.duration, TimeBase: tb, Payload: make([]byte, tt.payload)}); err != nil {
				t.Fatal(err)
			}
			pkts, err := enc.Flush(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(pkts) != 1 || len(pkts[0].Data) != tt.want {
				t.Fatalf("got %d packets, first %v, want one of %d bytes", len(pkts), pkts, tt.want)
			}
		})
	}
}

func TestFramesEOF(t *testing.T) {
	src, _ := New(project.SourceSpec{ID: "a", Frames: 1, Rate: "25"})
	it, _ := src.Frames(context.Background(), 0, 1)
	if _, err := it.Next(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := it.Next(context.Background()); err != io.EOF {
		t.Fatalf("Next() error = %v, want io.EOF", err)
	}
}
