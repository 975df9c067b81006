package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapterWithLogger(zerolog.New(&buf))

	l.Info("zone inserted",
		String("kind", "trim"),
		Int("zone", 3),
		Int64("pts", 900),
		Float64("seconds", 1.5),
		Bool("keyframe", true),
		Duration("took", time.Second),
		Err(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{`"kind":"trim"`, `"zone":3`, `"pts":900`, `"seconds":1.5`, `"keyframe":true`, `"error":"boom"`, `"message":"zone inserted"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestZerologAdapter_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn message missing from %q", buf.String())
	}
}

func TestZerologAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapterWithLogger(zerolog.New(&buf)).With(String("job", "j1"))
	l.Error("failed")
	if !strings.Contains(buf.String(), `"job":"j1"`) {
		t.Errorf("output %q missing job field", buf.String())
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	z := NewZerologAdapterWithLogger(zerolog.Nop())
	if OrNoop(z) != Logger(z) {
		t.Error("OrNoop should return the given logger")
	}
}
