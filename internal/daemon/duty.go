package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/logfields"
	"git.home.luguber.info/inful/rptl/internal/metrics"
)

// Duty is one indefinitely running task of the daemon. Run returns only on
// an unrecoverable failure or when ctx is done.
type Duty interface {
	Name() string
	Run(ctx context.Context) error
}

type dutyFunc struct {
	name string
	run  func(ctx context.Context) error
}

func (d dutyFunc) Name() string                  { return d.name }
func (d dutyFunc) Run(ctx context.Context) error { return d.run(ctx) }

// NewDuty adapts a function to a Duty.
func NewDuty(name string, run func(ctx context.Context) error) Duty {
	return dutyFunc{name: name, run: run}
}

// trigger runs one duty action and applies the failure policy: a transient
// classified error is logged and reported as ok=false, anything else is
// returned and ends the duty.
func trigger(ctx context.Context, clock clockwork.Clock, rec metrics.Recorder, duty string, fn func(ctx context.Context) error) (bool, error) {
	start := clock.Now()
	err := fn(ctx)
	rec.ObserveDutyDuration(duty, clock.Since(start))

	switch {
	case err == nil:
		rec.IncDutyTrigger(duty, metrics.ResultSuccess)
		return true, nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return false, err
	case ferrors.IsTransient(err):
		rec.IncDutyTrigger(duty, metrics.ResultFailed)
		attrs := []any{logfields.Duty(duty), logfields.Error(err)}
		if ce, ok := ferrors.AsClassified(err); ok {
			attrs = append(attrs, logfields.Category(string(ce.Category())))
		}
		slog.WarnContext(ctx, "Duty trigger failed; waiting for next tick", attrs...)
		return false, nil
	default:
		rec.IncDutyTrigger(duty, metrics.ResultFatal)
		slog.ErrorContext(ctx, "Duty trigger failed fatally", logfields.Duty(duty), logfields.Error(err))
		return false, err
	}
}

// skipped records a wake-up that did nothing.
func skipped(ctx context.Context, rec metrics.Recorder, duty, reason string) {
	rec.IncDutyTrigger(duty, metrics.ResultSkipped)
	slog.DebugContext(ctx, "Duty skipped", logfields.Duty(duty), slog.String("reason", reason))
}

// nextTick waits for a scheduler tick. A closed channel is a fatal error.
func nextTick(ctx context.Context, duty string, ticks <-chan time.Time) (time.Time, error) {
	select {
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	case t, ok := <-ticks:
		if !ok {
			return time.Time{}, ferrors.DaemonError("schedule closed").WithContext("duty", duty).Build()
		}
		return t, nil
	}
}
