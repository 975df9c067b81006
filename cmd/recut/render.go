package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bft-labs/recut/internal/adapters/avmux"
	"github.com/bft-labs/recut/internal/cliconfig"
	"github.com/bft-labs/recut/pkg/log"
	"github.com/bft-labs/recut/pkg/recut"
	"github.com/bft-labs/recut/pkg/render"
	"github.com/bft-labs/recut/pkg/timeline"
	"github.com/bft-labs/recut/plugins/projectwatcher"
)

func newRenderCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render every track of a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfg, *cfgPath); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runRender(cmd.Context(), *cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for the packet log")
	f.StringVar(&cfg.Format, "format", cfg.Format, "output format: packetlog or timing (stdout)")
	f.Float64Var(&cfg.From, "from", cfg.From, "start of the render range")
	f.Float64Var(&cfg.To, "to", cfg.To, "end of the render range (0 renders to the end)")
	f.StringVar(&cfg.Whence, "whence", cfg.Whence, "unit of --from/--to: frame, pts or seconds")
	f.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "how long a stop waits for the render to drain")
	f.IntVar(&cfg.ProgressEvery, "progress-every", cfg.ProgressEvery, "log progress every n packets")
	f.BoolVar(&cfg.Watch, "watch", cfg.Watch, "keep running and re-render whenever the project file changes")
	return cmd
}

// progressLogger logs recut events. Accepted reloads are signalled on
// reloaded when it is set.
type progressLogger struct {
	recut.BaseEventHandler
	logger   log.Logger
	reloaded chan<- struct{}
}

func (p *progressLogger) OnProgress(e recut.ProgressEvent) {
	p.logger.Info("progress",
		log.Int("packets", e.Packets),
		log.Int("track", e.Track),
		log.Float64("seconds", e.Seconds))
}

func (p *progressLogger) OnReload(e recut.ReloadEvent) {
	if e.Err != nil {
		p.logger.Warn("project reload rejected", log.Err(e.Err))
		return
	}
	p.logger.Info("project reloaded", log.Int("tracks", e.Tracks))
	if p.reloaded != nil {
		select {
		case p.reloaded <- struct{}{}:
		default:
		}
	}
}

func runRender(ctx context.Context, cfg cliconfig.Config) error {
	zl := newLogger(&cfg)
	logger := log.NewZerologAdapterWithLogger(zl)

	whence, err := timeline.ParseWhence(cfg.Whence)
	if err != nil {
		return err
	}
	libCfg := recut.Config{
		ProjectPath:     cfg.Project,
		OutputDir:       cfg.OutputDir,
		From:            cfg.From,
		To:              cfg.To,
		Whence:          whence,
		ShutdownTimeout: cfg.ShutdownTimeout,
		ProgressEvery:   cfg.ProgressEvery,
	}

	reloaded := make(chan struct{}, 1)
	opts := []recut.Option{
		recut.WithLogger(logger),
		recut.WithEventHandler(&progressLogger{logger: logger, reloaded: reloaded}),
	}
	if cfg.Format == cliconfig.FormatTiming {
		opts = append(opts, recut.WithWriterFactory(func() (render.Writer, error) {
			return avmux.NewWriter(avmux.NewTimingWriter(os.Stdout)), nil
		}))
	}
	if cfg.Watch {
		opts = append(opts, projectwatcher.WithProjectWatcher(projectwatcher.DefaultConfig()))
	}

	r, err := recut.New(libCfg, opts...)
	if err != nil {
		return fmt.Errorf("create recut: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	ctlCh := make(chan os.Signal, 1)
	notifyControl(ctlCh)
	defer signal.Stop(ctlCh)

	return renderLoop(ctx, r, cfg.Watch, reloaded, ctlCh, sigCh, logger)
}

// renderLoop runs r once and returns its result. In watch mode it keeps
// going after the render ends and starts a new one for every accepted
// reload, until ctx is done or a stop signal arrives. A reload during a
// render queues one re-render for when it ends.
func renderLoop(ctx context.Context, r *recut.Recut, watch bool, reloaded <-chan struct{}, ctlCh, sigCh <-chan os.Signal, logger log.Logger) error {
	if err := r.Start(ctx); err != nil {
		return fmt.Errorf("start render: %w", err)
	}
	done := waitAsync(ctx, r)
	stale := false

	restart := func() {
		stale = false
		if err := r.Start(ctx); err != nil {
			logger.Error("re-render failed to start", log.Err(err))
			return
		}
		done = waitAsync(ctx, r)
	}

	for {
		select {
		case err := <-done:
			done = nil
			if !watch {
				if stopErr := r.Stop(); stopErr != nil && !errors.Is(stopErr, render.ErrNotRunning) {
					err = errors.Join(err, stopErr)
				}
				if err != nil {
					return err
				}
				logger.Info("render complete", log.String("job", r.JobID()))
				return nil
			}
			if err != nil && ctx.Err() == nil {
				logger.Error("render failed, waiting for project changes", log.Err(err))
			} else if err == nil {
				logger.Info("render complete, waiting for project changes", log.String("job", r.JobID()))
			}
			if stale {
				restart()
			}

		case <-reloaded:
			if done != nil {
				stale = true
				continue
			}
			restart()

		case sig := <-ctlCh:
			handleControl(r, sig, logger)

		case <-sigCh:
			logger.Info("received signal, stopping...")
			return stopRender(r)

		case <-ctx.Done():
			return stopRender(r)
		}
	}
}

func waitAsync(ctx context.Context, r *recut.Recut) <-chan error {
	done := make(chan error, 1)
	go func() { done <- r.Wait(ctx) }()
	return done
}

func stopRender(r *recut.Recut) error {
	if err := r.Stop(); err != nil && !errors.Is(err, render.ErrNotRunning) {
		return fmt.Errorf("stop render: %w", err)
	}
	return nil
}
