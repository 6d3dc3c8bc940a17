package config

import (
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
)

// Validate normalises empty optional fields and checks the configuration.
// Errors are classified as validation errors so the CLI can print usage.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ferrors.ConfigError("configuration is required").Build()
	}
	normalize(cfg)

	checks := []func(*Config) error{
		validateSchedule,
		validateCamera,
		validateVideo,
		validatePrune,
		validateControl,
		validateLogging,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func normalize(cfg *Config) {
	if strings.TrimSpace(cfg.Control.NATSURL) == "" {
		cfg.Control.NATSURL = nats.DefaultURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = string(LogLevelInfo)
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = string(LogFormatText)
	}
}

func validateSchedule(cfg *Config) error {
	if cfg.Interval <= 0 {
		return invalid("interval", fmt.Sprintf("interval must be a positive number of seconds, got %d", cfg.Interval))
	}
	if cfg.StartTime != nil {
		if err := cfg.StartTime.Validate(); err != nil {
			return invalid("start_time", err.Error())
		}
	}
	if cfg.EndTime != nil {
		if err := cfg.EndTime.Validate(); err != nil {
			return invalid("end_time", err.Error())
		}
	}
	return nil
}

func validateCamera(cfg *Config) error {
	if cfg.Camera.Enabled && strings.TrimSpace(cfg.Camera.Command) == "" {
		return invalid("camera.command", "camera command is required when the camera is enabled")
	}
	if strings.TrimSpace(cfg.Camera.PhotoDir) == "" {
		return invalid("camera.photo_dir", "photo directory is required")
	}
	return nil
}

func validateVideo(cfg *Config) error {
	if !cfg.Video.Enabled {
		return nil
	}
	if err := cfg.Video.CompileAt.Validate(); err != nil {
		return invalid("video.compile_at", err.Error())
	}
	if cfg.Video.Interval < 0 {
		return invalid("video.interval", "interval cannot be negative")
	}
	if cfg.Video.Framerate <= 0 {
		return invalid("video.framerate", "framerate must be positive")
	}
	if strings.TrimSpace(cfg.Video.OutputDir) == "" {
		return invalid("video.output_dir", "output directory is required")
	}
	return nil
}

func validatePrune(cfg *Config) error {
	if !cfg.Prune.Enabled {
		return nil
	}
	if cfg.Prune.Interval <= 0 {
		return invalid("prune.interval", "interval must be positive")
	}
	if cfg.Prune.Levels < 2 || cfg.Prune.Levels > 16 {
		return invalid("prune.levels", fmt.Sprintf("levels must be between 2 and 16, got %d", cfg.Prune.Levels))
	}
	return nil
}

func validateControl(cfg *Config) error {
	if cfg.Control.Enabled && strings.TrimSpace(cfg.Control.Subject) == "" {
		return invalid("control.subject", "subject is required when the control channel is enabled")
	}
	if cfg.Timestamp.Enabled && cfg.Timestamp.Interval <= 0 {
		return invalid("timestamp.interval", "interval must be positive")
	}
	return nil
}

func validateLogging(cfg *Config) error {
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return invalid("log_level", err.Error())
	}
	if _, err := logFormatNormalizer.NormalizeWithError(cfg.LogFormat); err != nil {
		return invalid("log_format", err.Error())
	}
	return nil
}

func invalid(field, msg string) error {
	return ferrors.ValidationError(msg).WithContext("field", field).Build()
}
