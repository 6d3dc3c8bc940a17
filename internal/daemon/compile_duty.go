package daemon

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/rptl/internal/ledger"
	"git.home.luguber.info/inful/rptl/internal/logfields"
	"git.home.luguber.info/inful/rptl/internal/metrics"
	"git.home.luguber.info/inful/rptl/internal/video"
)

const dutyCompile = "compile"

// CompileDuty compiles the previous calendar day whenever its schedule
// fires. A day is triggered at most once; a transient failure forgets the
// day so the next tick retries it.
type CompileDuty struct {
	daemon   *Daemon
	compiler video.Compiler
	ticks    <-chan time.Time
	recorder metrics.Recorder
	lastDay  string
}

// NewCompileDuty builds the compile duty over a tick channel.
func NewCompileDuty(d *Daemon, compiler video.Compiler, ticks <-chan time.Time, rec metrics.Recorder) *CompileDuty {
	return &CompileDuty{
		daemon:   d,
		compiler: compiler,
		ticks:    ticks,
		recorder: metrics.OrNoop(rec),
	}
}

func (c *CompileDuty) Name() string { return dutyCompile }

func (c *CompileDuty) Run(ctx context.Context) error {
	for {
		now, err := nextTick(ctx, dutyCompile, c.ticks)
		if err != nil {
			return err
		}
		if !c.daemon.State().Running() {
			skipped(ctx, c.recorder, dutyCompile, "stopped")
			continue
		}

		day := previousDay(now)
		key := ledger.DayKey(day)
		if key == c.lastDay {
			skipped(ctx, c.recorder, dutyCompile, "already triggered")
			continue
		}
		c.lastDay = key

		slog.InfoContext(ctx, "Compiling daily video", logfields.Duty(dutyCompile), logfields.Day(day))
		ok, err := trigger(ctx, c.daemon.Clock(), c.recorder, dutyCompile, func(ctx context.Context) error {
			return c.compiler.Compile(ctx, day)
		})
		if err != nil {
			return err
		}
		if !ok {
			c.lastDay = ""
		}
	}
}

// previousDay returns local midnight of the day before t.
func previousDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, t.Location())
}
