package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/rptl/internal/config"
	"git.home.luguber.info/inful/rptl/internal/control"
	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/logfields"
)

const dutyConfigWatcher = "config-watcher"

// Submitter accepts locally originated control commands.
type Submitter interface {
	Submit(ctx context.Context, cmd control.Command) (control.Response, error)
}

// ConfigWatcher monitors the configuration file and re-applies its window
// through the control service. Other settings take effect on restart.
type ConfigWatcher struct {
	configPath   string
	current      *config.Config
	submitter    Submitter
	clock        clockwork.Clock
	debounceTime time.Duration
}

// NewConfigWatcher creates a new configuration file watcher.
func NewConfigWatcher(configPath string, current *config.Config, submitter Submitter, clock clockwork.Clock) (*ConfigWatcher, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ConfigWatcher{
		configPath:   absPath,
		current:      current,
		submitter:    submitter,
		clock:        clock,
		debounceTime: 2 * time.Second,
	}, nil
}

func (cw *ConfigWatcher) Name() string { return dutyConfigWatcher }

// Run watches until ctx is done. The directory is watched rather than the
// file so editors that replace the file are noticed.
func (cw *ConfigWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to create file watcher").Fatal().Build()
	}
	defer func() { _ = watcher.Close() }()

	configDir := filepath.Dir(cw.configPath)
	if err := watcher.Add(configDir); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to watch config directory").
			Fatal().
			WithContext("path", configDir).
			Build()
	}
	slog.InfoContext(ctx, "Starting configuration watcher", logfields.Path(cw.configPath))

	configFile := filepath.Base(cw.configPath)
	var reload clockwork.Timer
	var reloadC <-chan time.Time
	defer func() {
		if reload != nil {
			reload.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return ferrors.DaemonError("config watcher closed").Build()
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			if event.Op.Has(fsnotify.Remove) {
				slog.WarnContext(ctx, "Config file removed", logfields.Path(event.Name))
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			slog.DebugContext(ctx, "Config file change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			if reload == nil {
				reload = cw.clock.NewTimer(cw.debounceTime)
			} else {
				reload.Reset(cw.debounceTime)
			}
			reloadC = reload.Chan()

		case err, ok := <-watcher.Errors:
			if !ok {
				return ferrors.DaemonError("config watcher closed").Build()
			}
			slog.ErrorContext(ctx, "Config watcher error", logfields.Error(err))

		case <-reloadC:
			reloadC = nil
			if err := cw.performReload(ctx); err != nil {
				slog.ErrorContext(ctx, "Failed to reload configuration", logfields.Error(err))
			}
		}
	}
}

// performReload loads the file and submits its window.
func (cw *ConfigWatcher) performReload(ctx context.Context) error {
	slog.InfoContext(ctx, "Reloading configuration", logfields.Path(cw.configPath))

	next, err := config.Load(cw.configPath)
	if err != nil {
		return err
	}
	if next.Interval != cw.current.Interval || next.Prune.Enabled != cw.current.Prune.Enabled {
		slog.WarnContext(ctx, "Interval and duty changes require a restart")
	}

	cmd := control.Command{Name: control.CommandWindow}
	if next.StartTime != nil {
		cmd.StartTime = next.StartTime.String()
	}
	if next.EndTime != nil {
		cmd.EndTime = next.EndTime.String()
	}
	resp, err := cw.submitter.Submit(ctx, cmd)
	if err != nil {
		return fmt.Errorf("submit window: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("window rejected: %s", resp.Error)
	}
	cw.current = next
	slog.InfoContext(ctx, "Configuration reloaded", logfields.Window(next.Window().String()))
	return nil
}
