package daemon

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/rptl/internal/camera"
	"git.home.luguber.info/inful/rptl/internal/logfields"
	"git.home.luguber.info/inful/rptl/internal/metrics"
)

const dutyTimestamp = "timestamp"

// TimestampDuty aligns photograph modification times with their capture
// time. Off unless timestamp.enabled is set.
type TimestampDuty struct {
	daemon   *Daemon
	photoDir string
	ticks    <-chan time.Time
	recorder metrics.Recorder
}

func NewTimestampDuty(d *Daemon, photoDir string, ticks <-chan time.Time, rec metrics.Recorder) *TimestampDuty {
	return &TimestampDuty{daemon: d, photoDir: photoDir, ticks: ticks, recorder: metrics.OrNoop(rec)}
}

func (t *TimestampDuty) Name() string { return dutyTimestamp }

func (t *TimestampDuty) Run(ctx context.Context) error {
	for {
		if _, err := nextTick(ctx, dutyTimestamp, t.ticks); err != nil {
			return err
		}
		if !t.daemon.State().Running() {
			skipped(ctx, t.recorder, dutyTimestamp, "stopped")
			continue
		}
		if _, err := trigger(ctx, t.daemon.Clock(), t.recorder, dutyTimestamp, t.align); err != nil {
			return err
		}
	}
}

func (t *TimestampDuty) align(ctx context.Context) error {
	n, err := camera.AlignTimestamps(ctx, t.photoDir)
	if n > 0 {
		slog.InfoContext(ctx, "Aligned photograph timestamps", logfields.Duty(dutyTimestamp), logfields.Count(n))
	}
	return err
}
