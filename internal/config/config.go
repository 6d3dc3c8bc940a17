package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/window"
)

// Config is the complete daemon configuration. It is immutable once the
// supervisor has validated it; runtime changes go through the daemon state.
type Config struct {
	// Interval between capture attempts, in seconds.
	Interval  int               `yaml:"interval"`
	StartTime *window.ClockTime `yaml:"start_time,omitempty"`
	EndTime   *window.ClockTime `yaml:"end_time,omitempty"`
	LogLevel  string            `yaml:"log_level"`
	LogFormat string            `yaml:"log_format"`

	Camera    CameraConfig    `yaml:"camera"`
	Video     VideoConfig     `yaml:"video"`
	Prune     PruneConfig     `yaml:"prune"`
	Timestamp TimestampConfig `yaml:"timestamp"`
	Control   ControlConfig   `yaml:"control"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Ledger    LedgerConfig    `yaml:"ledger"`
}

// CameraConfig configures the still capture command.
type CameraConfig struct {
	// Enabled=false selects the simulated camera (development mode).
	Enabled  bool          `yaml:"enabled"`
	Command  string        `yaml:"command"`
	Args     []string      `yaml:"args,omitempty"`
	Timeout  time.Duration `yaml:"timeout"`
	PhotoDir string        `yaml:"photo_dir"`
}

// VideoConfig configures the daily compilation.
type VideoConfig struct {
	Enabled   bool             `yaml:"enabled"`
	CompileAt window.ClockTime `yaml:"compile_at"`
	// Interval overrides the daily schedule with a fixed period when non-zero.
	Interval  time.Duration    `yaml:"interval,omitempty"`
	FFmpeg    string           `yaml:"ffmpeg"`
	Framerate int              `yaml:"framerate"`
	OutputDir string           `yaml:"output_dir"`
	Timeout   time.Duration    `yaml:"timeout"`
}

// PruneConfig configures dominant-colour pruning.
type PruneConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	// Levels is the number of quantisation steps per RGB channel.
	Levels   int           `yaml:"levels"`
	DryRun   bool          `yaml:"dry_run"`
}

// TimestampConfig configures the file timestamp alignment duty.
type TimestampConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// ControlConfig configures the runtime control channel.
type ControlConfig struct {
	Enabled  bool   `yaml:"enabled"`
	NATSURL  string `yaml:"nats_url"`
	Subject  string `yaml:"subject"`
	// KVBucket, when set, receives a status snapshot after every command.
	KVBucket string `yaml:"kv_bucket,omitempty"`
}

// MetricsConfig configures the Prometheus listener; empty disables it.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr,omitempty"`
}

// LedgerConfig configures the SQLite frame ledger.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// IntervalDuration returns the capture interval as a duration.
func (c *Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// Window returns the configured daily window.
func (c *Config) Window() window.Window {
	return window.New(c.StartTime, c.EndTime)
}

// Load reads a YAML config file on top of Default. Environment variables are
// expanded and a .env file in the working directory is honoured without
// overriding variables that are already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", path).
			Build()
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
			Fatal().
			WithContext("path", path).
			Build()
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).Build()
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", path).
			Build()
	}
	return nil
}

const exampleConfig = `# rptl configuration
interval: 300          # seconds between photographs
start_time: "0700"     # optional HHMM, may be later than end_time to wrap midnight
end_time: "1900"
log_level: info
log_format: text

camera:
  enabled: true
  command: libcamera-still
  args: ["--nopreview", "-t", "1"]
  timeout: 30s
  photo_dir: ./photos

video:
  enabled: true
  compile_at: "0005"
  ffmpeg: ffmpeg
  framerate: 24
  output_dir: ./videos
  timeout: 30m

prune:
  enabled: false
  interval: 1h
  levels: 4
  dry_run: false

timestamp:
  enabled: false
  interval: 1h

control:
  enabled: false       # requires a NATS server; the daemon waits for it
  nats_url: ${RPTL_NATS_URL}
  subject: rptl.control
  kv_bucket: ""

metrics:
  listen_addr: ""

ledger:
  path: ./rptl.db
`
