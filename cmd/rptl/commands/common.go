package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/rptl/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags. Without a subcommand rptl runs the daemon.
type CLI struct {
	Config   string           `short:"c" help:"Configuration file path (optional)" type:"path"`
	LogLevel string           `name:"log-level" help:"Log level: DEBUG, INFO, WARN, ERROR (default INFO)" placeholder:"LEVEL"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run  RunCmd  `cmd:"" default:"withargs" help:"Run the capture daemon (default command)"`
	Ctl  CtlCmd  `cmd:"" help:"Send a control command to a running daemon"`
	Init InitCmd `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; set up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.LogLevel != "" {
		parsed, err := config.ParseLogLevel(c.LogLevel)
		if err != nil {
			return err
		}
		level = parsed
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// Verbose reports whether --log-level asks for debug output.
func (c *CLI) Verbose() bool {
	level, err := config.ParseLogLevel(c.LogLevel)
	return err == nil && level <= slog.LevelDebug
}

// configureLogging re-applies logging once the file config is known.
func configureLogging(cfg *config.Config) error {
	if _, err := config.ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	slog.SetDefault(config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat))
	return nil
}
