package camera

import (
	"context"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/rptl/internal/config"
	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/logfields"
	"git.home.luguber.info/inful/rptl/internal/process"
)

// StillCamera captures with an external still-image tool.
type StillCamera struct {
	Command  string
	Args     []string
	Timeout  time.Duration
	PhotoDir string
	Runner   process.Runner
}

// NewStillCamera builds a StillCamera from the camera config section.
func NewStillCamera(cfg config.CameraConfig) *StillCamera {
	return &StillCamera{
		Command:  cfg.Command,
		Args:     append([]string(nil), cfg.Args...),
		Timeout:  cfg.Timeout,
		PhotoDir: cfg.PhotoDir,
		Runner:   process.ExecRunner{},
	}
}

func (c *StillCamera) Capture(ctx context.Context, ev CaptureEvent) error {
	path := PhotoPath(c.PhotoDir, ev.Time)
	if err := os.MkdirAll(DayDir(c.PhotoDir, ev.Time), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create photo directory").
			Transient().
			WithContext("path", path).
			Build()
	}

	args := append(append([]string(nil), c.Args...), "-o", path)
	start := time.Now()
	if _, err := process.RunWithTimeout(ctx, c.Runner, c.Timeout, c.Command, args...); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryCapture, "capture photograph").
			Transient().
			WithContext("frame_id", ev.ID.String()).
			WithContext("path", path).
			Build()
	}

	slog.InfoContext(ctx, "Captured photograph",
		logfields.FrameID(ev.ID.String()),
		logfields.Path(path),
		logfields.DurationMS(time.Since(start)))
	return nil
}
