package projectwatcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/recut/pkg/project"
	"github.com/bft-labs/recut/pkg/recut"
)

func sampleProject(frames int) *project.Project {
	return &project.Project{
		Sources: []project.SourceSpec{{ID: "a", Type: "video", Frames: frames, Rate: "25"}},
		Tracks:  []project.TrackSpec{{Name: "v", Sources: []string{"a"}}},
	}
}

type reloadRecorder struct {
	mu     sync.Mutex
	frames []int
}

func (r *reloadRecorder) reload(p *project.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, p.Sources[0].Frames)
	return nil
}

func (r *reloadRecorder) seen() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.frames...)
}

func startPlugin(t *testing.T, path string, rec *reloadRecorder) *Plugin {
	t.Helper()
	plugin := New(Config{DebounceDelay: 20 * time.Millisecond})
	err := plugin.Initialize(context.Background(), recut.PluginConfig{
		ProjectPath: path,
		Reload:      rec.reload,
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { plugin.Shutdown(context.Background()) })
	return plugin
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPlugin_ReloadsOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edit.toml")
	repo := project.NewFileRepository(path)
	if err := repo.Save(context.Background(), sampleProject(10)); err != nil {
		t.Fatal(err)
	}

	rec := &reloadRecorder{}
	plugin := startPlugin(t, path, rec)

	if err := repo.Save(context.Background(), sampleProject(20)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return plugin.Reloads() == 1 })

	got := rec.seen()
	if len(got) != 1 || got[0] != 20 {
		t.Errorf("reloads = %v, want [20]", got)
	}
}

func TestPlugin_IgnoresInvalidProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edit.toml")
	repo := project.NewFileRepository(path)
	if err := repo.Save(context.Background(), sampleProject(10)); err != nil {
		t.Fatal(err)
	}

	rec := &reloadRecorder{}
	plugin := startPlugin(t, path, rec)

	if err := os.WriteFile(path, []byte("version = 1\n[[tracks]]\nname = 'v'\nsources = ['missing']\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := len(rec.seen()); n != 0 {
		t.Errorf("invalid project reached reload %d time(s)", n)
	}

	if err := repo.Save(context.Background(), sampleProject(30)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return plugin.Reloads() == 1 })
}

func TestPlugin_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edit.toml")
	if err := project.NewFileRepository(path).Save(context.Background(), sampleProject(10)); err != nil {
		t.Fatal(err)
	}

	rec := &reloadRecorder{}
	startPlugin(t, path, rec)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := len(rec.seen()); n != 0 {
		t.Errorf("unrelated file triggered %d reload(s)", n)
	}
}

func TestPlugin_InitializeRequiresPath(t *testing.T) {
	if err := New(DefaultConfig()).Initialize(context.Background(), recut.PluginConfig{}); err == nil {
		t.Fatal("expected error without project path")
	}
}

func TestPlugin_Name(t *testing.T) {
	if got := New(DefaultConfig()).Name(); got != "projectwatcher" {
		t.Errorf("Name() = %q", got)
	}
}
