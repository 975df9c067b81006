package encode

import (
	"errors"
	"testing"
	"time"
)

func TestTargetBitrate(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		duration time.Duration
		audio    int64
		overhead float64
		want     int64
		wantErr  error
	}{
		{"no audio", 1_000_000, 8 * time.Second, 0, 0, 1_000_000, nil},
		{"with audio and overhead", 10_000_000, 80 * time.Second, 128_000, 0.02, 852_000, nil},
		{"audio exceeds budget", 1_000, time.Minute, 128_000, 0, 0, ErrBitrateTooLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TargetBitrate(tt.size, tt.duration, tt.audio, tt.overhead)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("TargetBitrate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("TargetBitrate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("TargetBitrate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTargetBitrate_InvalidInput(t *testing.T) {
	bad := []struct {
		size     int64
		duration time.Duration
		audio    int64
		overhead float64
	}{
		{0, time.Second, 0, 0},
		{100, 0, 0, 0},
		{100, time.Second, -1, 0},
		{100, time.Second, 0, 1},
		{100, time.Second, 0, -0.1},
	}
	for _, b := range bad {
		if _, err := TargetBitrate(b.size, b.duration, b.audio, b.overhead); err == nil {
			t.Errorf("TargetBitrate(%d, %s, %d, %g) succeeded, want error", b.size, b.duration, b.audio, b.overhead)
		}
	}
}
