package config

import (
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/rptl/internal/window"
)

// DefaultInterval is the capture interval in seconds.
const DefaultInterval = 300

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Interval:  DefaultInterval,
		LogLevel:  string(LogLevelInfo),
		LogFormat: string(LogFormatText),
		Camera: CameraConfig{
			Enabled:  true,
			Command:  "libcamera-still",
			Args:     []string{"--nopreview", "-t", "1"},
			Timeout:  30 * time.Second,
			PhotoDir: "./photos",
		},
		Video: VideoConfig{
			Enabled:   true,
			CompileAt: window.ClockTime{Hour: 0, Minute: 5},
			FFmpeg:    "ffmpeg",
			Framerate: 24,
			OutputDir: "./videos",
			Timeout:   30 * time.Minute,
		},
		Prune: PruneConfig{
			Interval: time.Hour,
			Levels:   4,
		},
		Timestamp: TimestampConfig{
			Interval: time.Hour,
		},
		Control: ControlConfig{
			NATSURL: nats.DefaultURL,
			Subject: "rptl.control",
		},
		Ledger: LedgerConfig{
			Path: "./rptl.db",
		},
	}
}
