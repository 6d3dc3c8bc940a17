package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/rptl/internal/config"
	"git.home.luguber.info/inful/rptl/internal/daemon"
	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
)

// RunCmd implements the default 'run' command.
type RunCmd struct {
	Interval          int    `help:"Seconds between photographs (default 300)" placeholder:"SECONDS"`
	StartTime         string `name:"start-time" help:"Only take photos at or after this time" placeholder:"HHMM"`
	EndTime           string `name:"end-time" help:"Stop taking photos at this time" placeholder:"HHMM"`
	SortColourProfile bool   `name:"sort-colour-profile" help:"Sort photos by colour profile and keep only the major colour"`
	NoCamera          bool   `name:"no-camera" help:"Capture simulated frames instead of using the camera"`
}

func (r *RunCmd) Run(_ *Global, root *CLI, kctx *kong.Context) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	overrides := config.Overrides{
		Interval:          r.Interval,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		SortColourProfile: r.SortColourProfile,
		NoCamera:          r.NoCamera,
		LogLevel:          root.LogLevel,
	}
	if err := overrides.Apply(cfg); err != nil {
		if ferrors.HasCategory(err, ferrors.CategoryValidation) && kctx != nil {
			_ = kctx.PrintUsage(false)
		}
		return err
	}
	if err := configureLogging(cfg); err != nil {
		return err
	}

	return RunDaemon(cfg, root.Config)
}

// RunDaemon runs the supervisor until a duty ends or a termination signal
// arrives.
func RunDaemon(cfg *config.Config, configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting rptl",
		slog.Int("interval", cfg.Interval),
		slog.String("window", cfg.Window().String()),
		slog.Bool("camera", cfg.Camera.Enabled),
		slog.Bool("sort_colour_profile", cfg.Prune.Enabled))

	if err := daemon.NewSupervisor(cfg, configPath).Run(ctx); err != nil {
		return err
	}
	slog.Info("rptl stopped")
	return nil
}
