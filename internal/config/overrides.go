package config

import (
	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/window"
)

// Overrides are command line values applied on top of the file config.
// Zero values leave the file value untouched.
type Overrides struct {
	Interval          int
	StartTime         string
	EndTime           string
	SortColourProfile bool
	NoCamera          bool
	LogLevel          string
}

// Apply merges o into cfg and re-validates. Malformed times are reported as
// validation errors carrying the offending flag.
func (o Overrides) Apply(cfg *Config) error {
	if o.Interval != 0 {
		cfg.Interval = o.Interval
	}
	if o.StartTime != "" {
		ct, err := window.ParseClockTime(o.StartTime)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryValidation, "Invalid start time").
				Fatal().
				WithContext("flag", "--start-time").
				Build()
		}
		cfg.StartTime = &ct
	}
	if o.EndTime != "" {
		ct, err := window.ParseClockTime(o.EndTime)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryValidation, "Invalid end time").
				Fatal().
				WithContext("flag", "--end-time").
				Build()
		}
		cfg.EndTime = &ct
	}
	if o.SortColourProfile {
		cfg.Prune.Enabled = true
	}
	if o.NoCamera {
		cfg.Camera.Enabled = false
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	return Validate(cfg)
}
