package daemon

import (
	"context"
	"time"

	"git.home.luguber.info/inful/rptl/internal/camera"
	"git.home.luguber.info/inful/rptl/internal/metrics"
)

const dutyCapture = "capture"

// CaptureDuty sleeps for the configured interval and, when the daemon is
// running inside its window, takes one photograph. The capturer is awaited
// before the next sleep, so captures never overlap.
type CaptureDuty struct {
	daemon   *Daemon
	capturer camera.Capturer
	interval time.Duration
	recorder metrics.Recorder
}

// NewCaptureDuty builds the capture duty.
func NewCaptureDuty(d *Daemon, capturer camera.Capturer, rec metrics.Recorder) *CaptureDuty {
	return &CaptureDuty{
		daemon:   d,
		capturer: capturer,
		interval: d.Config().IntervalDuration(),
		recorder: metrics.OrNoop(rec),
	}
}

func (c *CaptureDuty) Name() string { return dutyCapture }

func (c *CaptureDuty) Run(ctx context.Context) error {
	clock := c.daemon.Clock()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(c.interval):
		}

		now := clock.Now()
		if !c.daemon.Active(now) {
			skipped(ctx, c.recorder, dutyCapture, "inactive")
			continue
		}

		ev := camera.NewEvent(now)
		if _, err := trigger(ctx, clock, c.recorder, dutyCapture, func(ctx context.Context) error {
			return c.capturer.Capture(ctx, ev)
		}); err != nil {
			return err
		}
	}
}
