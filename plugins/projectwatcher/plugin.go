// Package projectwatcher reloads a recut project when its file changes.
// Every change is re-validated before it replaces the project of the next
// render; a broken file is logged and ignored.
package projectwatcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/recut/pkg/log"
	"github.com/bft-labs/recut/pkg/project"
	"github.com/bft-labs/recut/pkg/recut"
)

// Plugin watches the project file of a recut instance.
type Plugin struct {
	mu sync.Mutex

	debounceDelay time.Duration

	path     string
	repo     *project.FileRepository
	reload   func(*project.Project) error
	logger   log.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
	reloads  int
}

// Config holds configuration options for the project watcher plugin.
type Config struct {
	// DebounceDelay is the delay to wait after a file change before reloading.
	// Editors often write a file in several steps.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{DebounceDelay: 100 * time.Millisecond}
}

// New creates a new project watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{debounceDelay: cfg.DebounceDelay}
}

// WithProjectWatcher returns a recut Option that enables project hot reload.
func WithProjectWatcher(cfg Config) recut.Option {
	return recut.WithPlugin(New(cfg))
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "projectwatcher"
}

// Initialize starts watching the project file's directory.
func (p *Plugin) Initialize(ctx context.Context, cfg recut.PluginConfig) error {
	if cfg.ProjectPath == "" || cfg.Reload == nil {
		return errors.New("projectwatcher: project path and reload are required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: atomic saves replace the file itself.
	if err := watcher.Add(filepath.Dir(cfg.ProjectPath)); err != nil {
		watcher.Close()
		return err
	}

	p.mu.Lock()
	p.path = filepath.Clean(cfg.ProjectPath)
	p.repo = project.NewFileRepository(cfg.ProjectPath)
	p.reload = cfg.Reload
	p.logger = log.OrNoop(cfg.Logger)
	p.mu.Unlock()

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("project watcher started", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops watching and cancels a pending reload.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

// Reloads returns the number of accepted reloads.
func (p *Plugin) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("project watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.reloadNow(ctx)
	})
}

// reloadNow loads the file and hands it to recut for validation.
func (p *Plugin) reloadNow(ctx context.Context) {
	proj, err := p.repo.Load(ctx)
	if err == nil {
		err = proj.Validate()
		if err == nil {
			err = p.reload(proj)
		}
	}
	if err != nil {
		p.logger.Warn("project change ignored", log.String("path", p.path), log.Err(err))
		return
	}

	p.mu.Lock()
	p.reloads++
	p.mu.Unlock()
	p.logger.Info("project change applied", log.String("path", p.path))
}

// Ensure Plugin implements recut.Plugin.
var _ recut.Plugin = (*Plugin)(nil)
