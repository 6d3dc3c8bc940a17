package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/rptl/internal/logfields"
	"git.home.luguber.info/inful/rptl/internal/window"
)

// Scheduler wraps gocron scheduler for the periodic duties.
type Scheduler struct {
	scheduler gocron.Scheduler
	clock     clockwork.Clock
}

// NewScheduler creates a new scheduler instance. A nil clock uses the wall clock.
func NewScheduler(clock clockwork.Clock) (*Scheduler, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, clock: clock}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	slog.InfoContext(ctx, "Starting scheduler", logfields.Count(len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop shuts down the scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	slog.InfoContext(ctx, "Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleEvery runs task every interval. Returns the job ID.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func()) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive, got %s", interval)
	}
	return s.newJob(name, gocron.DurationJob(interval), task)
}

// ScheduleDaily runs task once a day at the given local clock time.
func (s *Scheduler) ScheduleDaily(name string, at window.ClockTime, task func()) (string, error) {
	if err := at.Validate(); err != nil {
		return "", err
	}
	def := gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(at.Hour), uint(at.Minute), 0)))
	return s.newJob(name, def, task)
}

func (s *Scheduler) newJob(name string, def gocron.JobDefinition, task func()) (string, error) {
	job, err := s.scheduler.NewJob(
		def,
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create %s job: %w", name, err)
	}
	return job.ID().String(), nil
}

// ticks adapts a schedule to a channel. A tick is dropped while the previous
// one is still unconsumed, so a busy duty never queues up triggers.
func (s *Scheduler) ticks(schedule func(task func()) (string, error)) (<-chan time.Time, error) {
	ch := make(chan time.Time, 1)
	_, err := schedule(func() {
		select {
		case ch <- s.clock.Now():
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// EveryTicks delivers a tick every interval.
func (s *Scheduler) EveryTicks(name string, interval time.Duration) (<-chan time.Time, error) {
	return s.ticks(func(task func()) (string, error) { return s.ScheduleEvery(name, interval, task) })
}

// DailyTicks delivers a tick once a day at the given clock time.
func (s *Scheduler) DailyTicks(name string, at window.ClockTime) (<-chan time.Time, error) {
	return s.ticks(func(task func()) (string, error) { return s.ScheduleDaily(name, at, task) })
}
