package recut

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bft-labs/recut/internal/adapters/fs"
	"github.com/bft-labs/recut/pkg/media"
	"github.com/bft-labs/recut/pkg/project"
)

func TestRender(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edit.toml")
	p := &project.Project{
		Sources: []project.SourceSpec{
			{ID: "a", Type: "video", Frames: 30, Rate: "30"},
			{ID: "b", Type: "video", Frames: 30, Rate: "30"},
		},
		Tracks: []project.TrackSpec{{Name: "v", Sources: []string{"a", "b"}, TimeBase: "1/90000"}},
	}
	if err := project.NewFileRepository(path).Save(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out")
	r, err := New(Config{ProjectPath: path, OutputDir: out})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := Render(context.Background(), r); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	log, err := fs.OpenPacketLog(out)
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()
	pkts, err := media.CollectPackets(context.Background(), log)
	if err != nil {
		t.Fatal(err)
	}
	if len(pkts) != 60 {
		t.Fatalf("got %d packets, want 60", len(pkts))
	}
	// The second segment continues where the first ends: 30 frames at 30 fps.
	if got := pkts[30].PTS; got != 90000 {
		t.Errorf("packet 30 pts = %d, want 90000", got)
	}
}
