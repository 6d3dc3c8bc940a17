package daemon

import (
	"context"
	"time"

	"git.home.luguber.info/inful/rptl/internal/colorsort"
	"git.home.luguber.info/inful/rptl/internal/metrics"
)

const dutyPrune = "prune"

// PruneDuty runs the colour pruner on its own interval while running.
type PruneDuty struct {
	daemon   *Daemon
	pruner   colorsort.Pruner
	ticks    <-chan time.Time
	recorder metrics.Recorder
}

func NewPruneDuty(d *Daemon, pruner colorsort.Pruner, ticks <-chan time.Time, rec metrics.Recorder) *PruneDuty {
	return &PruneDuty{daemon: d, pruner: pruner, ticks: ticks, recorder: metrics.OrNoop(rec)}
}

func (p *PruneDuty) Name() string { return dutyPrune }

func (p *PruneDuty) Run(ctx context.Context) error {
	for {
		if _, err := nextTick(ctx, dutyPrune, p.ticks); err != nil {
			return err
		}
		if !p.daemon.State().Running() {
			skipped(ctx, p.recorder, dutyPrune, "stopped")
			continue
		}
		if _, err := trigger(ctx, p.daemon.Clock(), p.recorder, dutyPrune, p.pruner.Prune); err != nil {
			return err
		}
	}
}
