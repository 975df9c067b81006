package recut

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/recut/internal/adapters/fs"
	"github.com/bft-labs/recut/pkg/encode"
	"github.com/bft-labs/recut/pkg/log"
	"github.com/bft-labs/recut/pkg/project"
	"github.com/bft-labs/recut/pkg/render"
	"github.com/bft-labs/recut/pkg/timeline"
)

// ErrEmptyRange is returned by Start when the configured range selects no
// frames of a track.
var ErrEmptyRange = errors.New("recut: render range is empty")

// Recut is a render engine for one project. Use New() to create an
// instance, then Start() to render.
type Recut struct {
	config  Config
	opts    options
	repo    *project.FileRepository
	logger  log.Logger
	plugins []Plugin

	mu        sync.RWMutex
	project   *project.Project
	tracks    []project.Track
	job       *render.Job
	pluginsUp bool
}

// New loads and builds the project named by cfg. The instance is created in
// StateStopped; call Start() to render.
func New(cfg Config, opts ...Option) (*Recut, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.writers == nil {
		if cfg.OutputDir == "" {
			return nil, errors.New("recut: output dir is required without a writer")
		}
		dir, logger := cfg.OutputDir, o.logger
		o.writers = func() (render.Writer, error) { return fs.NewPacketLogWriter(dir, logger) }
	}

	r := &Recut{
		config:  cfg,
		opts:    o,
		repo:    project.NewFileRepository(cfg.ProjectPath),
		logger:  o.logger,
		plugins: o.plugins,
	}

	p, err := r.repo.Load(context.Background())
	if err != nil {
		return nil, err
	}
	tracks, err := r.build(p)
	if err != nil {
		return nil, err
	}
	r.project, r.tracks = p, tracks

	r.logger.Info("project loaded",
		log.String("path", cfg.ProjectPath),
		log.String("name", p.Name),
		log.Int("tracks", len(tracks)))
	return r, nil
}

// build opens the project's sources and builds its tracks into a fresh
// registry.
func (r *Recut) build(p *project.Project) ([]project.Track, error) {
	tracks, err := project.Build(timeline.NewRegistry(), p, r.opts.sources)
	if err != nil {
		return nil, err
	}
	var errs []error
	for i, t := range tracks {
		for _, err := range t.Timeline.Validate() {
			errs = append(errs, fmt.Errorf("track %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return nil, &render.ValidationError{Errs: errs}
	}
	return tracks, nil
}

// Start renders every track in the background. It returns once the render
// is running; use Wait to block until it ends.
func (r *Recut) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.job != nil && !isIdle(r.job.State()) {
		return render.ErrAlreadyRunning
	}

	if !r.pluginsUp {
		if err := r.initPlugins(ctx); err != nil {
			return err
		}
	}

	tracks, err := r.renderTracks()
	if err != nil {
		return err
	}
	w, err := r.opts.writers()
	if err != nil {
		closeEncoders(tracks)
		return fmt.Errorf("recut: open writer: %w", err)
	}

	emitter := &eventEmitterWrapper{handler: r.opts.eventHandler}
	job := render.NewJob(tracks, w,
		render.WithLogger(r.logger),
		render.WithEventHandler(emitter),
		render.WithShutdownTimeout(r.config.ShutdownTimeout),
		render.WithProgressEvery(r.config.ProgressEvery),
	)
	emitter.jobID = job.ID()

	if err := job.Start(ctx); err != nil {
		var ve *render.ValidationError
		if errors.As(err, &ve) {
			closeEncoders(tracks)
		}
		return errors.Join(err, w.Close())
	}
	r.job = job
	return nil
}

func isIdle(s State) bool {
	return s == StateStopped || s == StateCrashed
}

// renderTracks pairs every built timeline with a fresh encoder and the
// configured range.
func (r *Recut) renderTracks() ([]render.Track, error) {
	out := make([]render.Track, 0, len(r.tracks))
	for i, t := range r.tracks {
		tl := t.Timeline
		start, end, err := timeline.ResolveRange(tl.PTS(), tl.TimeBase(), r.config.From, r.config.rangeEnd(), r.config.Whence)
		if err == nil && end <= start {
			err = ErrEmptyRange
		}
		if err != nil {
			closeEncoders(out)
			return nil, fmt.Errorf("recut: track %d: %w", i, err)
		}
		spec, err := sizeEncoder(t.Spec.Encoder, tl, start, end)
		if err != nil {
			closeEncoders(out)
			return nil, fmt.Errorf("recut: track %d: %w", i, err)
		}
		enc, err := r.opts.encoders(spec)
		if err != nil {
			closeEncoders(out)
			return nil, fmt.Errorf("recut: track %d: %w", i, err)
		}
		out = append(out, render.Track{
			Name:    t.Spec.Name,
			Source:  tl,
			Encoder: enc,
			Start:   start,
			End:     end,
		})
	}
	return out, nil
}

// sizeEncoder replaces the spec's bitrate with the one that fits frames
// [start, end) of tl into TargetSize bytes.
func sizeEncoder(spec project.EncoderSpec, tl timeline.Source, start, end int) (project.EncoderSpec, error) {
	if spec.TargetSize == 0 {
		return spec, nil
	}
	pts, durs := tl.PTS(), tl.Durations()
	ticks := pts[end-1] + durs[end-1] - pts[start]
	rate, err := encode.TargetBitrate(spec.TargetSize, tl.TimeBase().Duration(ticks), spec.AudioBitrate, spec.Overhead)
	if err != nil {
		return spec, err
	}
	spec.Bitrate = rate
	return spec, nil
}

func closeEncoders(tracks []render.Track) {
	for _, t := range tracks {
		if t.Encoder != nil {
			_ = t.Encoder.Close()
		}
	}
}

func (r *Recut) initPlugins(ctx context.Context) error {
	cfg := PluginConfig{
		ProjectPath: r.config.ProjectPath,
		OutputDir:   r.config.OutputDir,
		Logger:      r.logger,
		Reload:      r.Reload,
	}
	for i, p := range r.plugins {
		if err := p.Initialize(ctx, cfg); err != nil {
			r.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			r.shutdownPlugins(r.plugins[:i])
			return err
		}
		r.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}
	r.pluginsUp = true
	return nil
}

// shutdownPlugins shuts plugins down in reverse order.
func (r *Recut) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			r.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
		} else {
			r.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}
}

// Stop ends the current render cooperatively and shuts plugins down. Packets
// already encoded are still written. Returns ErrNotRunning when there is
// neither a render nor plugins to stop.
func (r *Recut) Stop() error {
	r.mu.Lock()
	job := r.job
	pluginsUp := r.pluginsUp
	r.pluginsUp = false
	r.mu.Unlock()

	err := render.ErrNotRunning
	if job != nil && !isIdle(job.State()) {
		err = job.Stop()
	} else if pluginsUp {
		err = nil
	}
	if pluginsUp {
		r.shutdownPlugins(r.plugins)
	}
	return err
}

// Pause suspends the current render before its next packet.
func (r *Recut) Pause() error {
	job := r.currentJob()
	if job == nil {
		return render.ErrNotRunning
	}
	return job.Pause()
}

// Resume continues a paused render.
func (r *Recut) Resume() error {
	job := r.currentJob()
	if job == nil {
		return render.ErrNotRunning
	}
	return job.Resume()
}

// Wait blocks until the current render ends and returns its error.
func (r *Recut) Wait(ctx context.Context) error {
	job := r.currentJob()
	if job == nil {
		return render.ErrNotRunning
	}
	return job.Wait(ctx)
}

// Status returns the state of the current render.
// Safe to call concurrently from any goroutine.
func (r *Recut) Status() State {
	job := r.currentJob()
	if job == nil {
		return StateStopped
	}
	return job.State()
}

// JobID returns the id of the current render, or "".
func (r *Recut) JobID() string {
	job := r.currentJob()
	if job == nil {
		return ""
	}
	return job.ID()
}

func (r *Recut) currentJob() *render.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.job
}

// Project returns the loaded project.
func (r *Recut) Project() *project.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.project
}

// Tracks returns the built tracks. Their timelines may be edited between
// renders.
func (r *Recut) Tracks() []project.Track {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tracks
}

// Reload validates p and makes it the project of the next render. The render
// in progress, if any, is unaffected.
func (r *Recut) Reload(p *project.Project) error {
	tracks, err := r.build(p)
	if err == nil {
		r.mu.Lock()
		old := r.tracks
		r.project, r.tracks = p, tracks
		r.mu.Unlock()
		release(old)
		r.logger.Info("project reloaded", log.String("path", r.config.ProjectPath), log.Int("tracks", len(tracks)))
	} else {
		r.logger.Warn("project reload rejected", log.String("path", r.config.ProjectPath), log.Err(err))
	}

	if h := r.opts.eventHandler; h != nil {
		h.OnReload(ReloadEvent{Path: r.config.ProjectPath, Tracks: len(tracks), Err: err})
	}
	return err
}

// release deregisters replaced timelines from their registry.
func release(tracks []project.Track) {
	for _, t := range tracks {
		t.Timeline.Release()
		if t.Concat != nil {
			t.Concat.Release()
		}
	}
}

// Save captures the current zone structure of every track into the project
// and writes the project file atomically.
func (r *Recut) Save(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := project.Capture(r.project, r.tracks); err != nil {
		return err
	}
	if err := r.repo.Save(ctx, r.project); err != nil {
		return fmt.Errorf("recut: save project: %w", err)
	}
	r.logger.Info("project saved", log.String("path", r.repo.Path()))
	return nil
}
