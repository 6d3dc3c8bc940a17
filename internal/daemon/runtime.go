package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/rptl/internal/camera"
	"git.home.luguber.info/inful/rptl/internal/colorsort"
	"git.home.luguber.info/inful/rptl/internal/config"
	"git.home.luguber.info/inful/rptl/internal/control"
	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/ledger"
	"git.home.luguber.info/inful/rptl/internal/logfields"
	"git.home.luguber.info/inful/rptl/internal/metrics"
	"git.home.luguber.info/inful/rptl/internal/video"
)

// Components are the collaborators a duty set is built from.
type Components struct {
	Capturer   camera.Capturer
	Compiler   video.Compiler
	Pruner     colorsort.Pruner
	Control    *control.Service
	Scheduler  *Scheduler
	Recorder   metrics.Recorder
	Registry   *prom.Registry
	ConfigPath string
}

// BuildDuties returns the enabled duty set. Optional duties are simply
// absent when disabled: pruning, timestamps, the metrics server and the
// config watcher each depend on their configuration.
func BuildDuties(d *Daemon, c Components) ([]Duty, error) {
	cfg := d.Config()
	rec := metrics.OrNoop(c.Recorder)

	duties := []Duty{NewCaptureDuty(d, c.Capturer, rec)}
	if c.Control != nil {
		duties = append(duties, NewDuty("control", c.Control.Run))
	}

	if cfg.Video.Enabled {
		var ticks <-chan time.Time
		var err error
		if cfg.Video.Interval > 0 {
			ticks, err = c.Scheduler.EveryTicks(dutyCompile, cfg.Video.Interval)
		} else {
			ticks, err = c.Scheduler.DailyTicks(dutyCompile, cfg.Video.CompileAt)
		}
		if err != nil {
			return nil, fmt.Errorf("schedule compile duty: %w", err)
		}
		duties = append(duties, NewCompileDuty(d, c.Compiler, ticks, rec))
	}

	if cfg.Prune.Enabled {
		ticks, err := c.Scheduler.EveryTicks(dutyPrune, cfg.Prune.Interval)
		if err != nil {
			return nil, fmt.Errorf("schedule prune duty: %w", err)
		}
		duties = append(duties, NewPruneDuty(d, c.Pruner, ticks, rec))
	}

	if cfg.Timestamp.Enabled {
		ticks, err := c.Scheduler.EveryTicks(dutyTimestamp, cfg.Timestamp.Interval)
		if err != nil {
			return nil, fmt.Errorf("schedule timestamp duty: %w", err)
		}
		duties = append(duties, NewTimestampDuty(d, cfg.Camera.PhotoDir, ticks, rec))
	}

	if cfg.Metrics.ListenAddr != "" && c.Registry != nil {
		duties = append(duties, NewMetricsServer(cfg.Metrics.ListenAddr, c.Registry, d))
	}

	if c.ConfigPath != "" && c.Control != nil {
		w, err := NewConfigWatcher(c.ConfigPath, cfg, c.Control, d.Clock())
		if err != nil {
			return nil, err
		}
		duties = append(duties, w)
	}
	return duties, nil
}

// Supervisor builds the daemon and its duties from configuration and runs
// them until the first one finishes.
type Supervisor struct {
	cfg        *config.Config
	configPath string
	clock      clockwork.Clock

	closers []func() error
}

// NewSupervisor creates a supervisor for a validated configuration.
func NewSupervisor(cfg *config.Config, configPath string) *Supervisor {
	return &Supervisor{cfg: cfg, configPath: configPath, clock: clockwork.NewRealClock()}
}

// Run constructs the daemon, starts it and races the duty set. A duty
// ending because ctx was cancelled is a clean shutdown.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.close()

	d, err := New(s.cfg, WithClock(s.clock))
	if err != nil {
		return err
	}
	if err := d.Start(); err != nil {
		return err
	}

	comps, err := s.components(ctx, d)
	if err != nil {
		return err
	}
	duties, err := BuildDuties(d, comps)
	if err != nil {
		return err
	}
	comps.Recorder.SetRunning(true)
	comps.Scheduler.Start(ctx)

	names := make([]string, 0, len(duties))
	for _, duty := range duties {
		names = append(names, duty.Name())
	}
	slog.InfoContext(ctx, "Launching duties", slog.Any("duties", names))

	res := Race(ctx, duties...)
	if res.Err == nil || (ctx.Err() != nil && errors.Is(res.Err, ctx.Err())) {
		return nil
	}
	return res.Err
}

func (s *Supervisor) components(ctx context.Context, d *Daemon) (Components, error) {
	cfg := s.cfg
	comps := Components{ConfigPath: s.configPath, Recorder: metrics.NoopRecorder{}}

	if cfg.Metrics.ListenAddr != "" {
		comps.Registry = prom.NewRegistry()
		comps.Recorder = metrics.NewPrometheusRecorder(comps.Registry)
	}

	sched, err := NewScheduler(s.clock)
	if err != nil {
		return comps, err
	}
	comps.Scheduler = sched
	s.closers = append(s.closers, func() error { return sched.Stop(context.WithoutCancel(ctx)) })

	var led *ledger.Ledger
	if cfg.Ledger.Path != "" {
		led, err = ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return comps, ferrors.WrapError(err, ferrors.CategoryLedger, "open ledger").
				Fatal().
				WithContext("path", cfg.Ledger.Path).
				Build()
		}
		s.closers = append(s.closers, led.Close)
	}

	var capturer camera.Capturer
	if cfg.Camera.Enabled {
		capturer = camera.NewStillCamera(cfg.Camera)
	} else {
		slog.InfoContext(ctx, "Camera disabled; using simulated frames", logfields.Path(cfg.Camera.PhotoDir))
		capturer = camera.NewSimulatedCamera(cfg.Camera.PhotoDir)
	}

	var (
		compileStore video.CompilationStore
		frames       colorsort.FrameForgetter
		stats        control.Stats
	)
	if led != nil {
		capturer = &camera.Recording{Next: capturer, Frames: led, PhotoDir: cfg.Camera.PhotoDir}
		compileStore, frames, stats = led, led, led
	}
	comps.Capturer = capturer
	comps.Compiler = video.NewFFmpegCompiler(cfg.Video, cfg.Camera.PhotoDir, compileStore)
	comps.Pruner = colorsort.NewColourPruner(cfg.Prune, cfg.Camera.PhotoDir, frames, comps.Recorder)

	opts := []control.Option{control.WithRecorder(comps.Recorder), control.WithClock(d.Clock().Now)}
	if stats != nil {
		opts = append(opts, control.WithStats(stats))
	}
	var transport control.Transport
	if cfg.Control.Enabled {
		conn, err := control.Connect(cfg.Control.NATSURL)
		if err != nil {
			return comps, ferrors.WrapError(err, ferrors.CategoryControl, "connect control channel").
				Fatal().
				WithContext("url", cfg.Control.NATSURL).
				Build()
		}
		s.closers = append(s.closers, func() error { conn.Close(); return nil })

		nt, err := control.NewNATSTransport(conn, cfg.Control.Subject)
		if err != nil {
			return comps, ferrors.WrapError(err, ferrors.CategoryControl, "subscribe control channel").Fatal().Build()
		}
		transport = nt
		s.closers = append(s.closers, nt.Close)

		if cfg.Control.KVBucket != "" {
			pub, err := control.NewKVStatusPublisher(ctx, conn, cfg.Control.KVBucket)
			if err != nil {
				slog.WarnContext(ctx, "Status bucket unavailable", slog.String("bucket", cfg.Control.KVBucket), logfields.Error(err))
			} else {
				opts = append(opts, control.WithPublisher(pub))
			}
		}
		slog.InfoContext(ctx, "Control channel connected", slog.String("url", natsURL(conn)))
	}
	comps.Control = control.NewService(d.State(), transport, opts...)
	return comps, nil
}

func (s *Supervisor) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Warn("Shutdown cleanup failed", logfields.Error(err))
		}
	}
	s.closers = nil
}

func natsURL(conn *nats.Conn) string {
	if u := conn.ConnectedUrlRedacted(); u != "" {
		return u
	}
	return conn.Opts.Url
}
