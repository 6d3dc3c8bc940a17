package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rptl/internal/window"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func TestScheduler_ScheduleEvery(t *testing.T) {
	t.Run("returns job id for valid interval", func(t *testing.T) {
		id, err := newTestScheduler(t).ScheduleEvery("test", 10*time.Second, func() {})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		_, err := newTestScheduler(t).ScheduleEvery("test", 0, func() {})
		require.Error(t, err)
	})
}

func TestScheduler_ScheduleDaily(t *testing.T) {
	t.Run("accepts clock time", func(t *testing.T) {
		id, err := newTestScheduler(t).ScheduleDaily("compile", window.MustParseClockTime("0005"), func() {})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("rejects out of range time", func(t *testing.T) {
		_, err := newTestScheduler(t).ScheduleDaily("compile", window.ClockTime{Hour: 25}, func() {})
		require.Error(t, err)
	})
}

func TestScheduler_TicksDropWhileBusy(t *testing.T) {
	s := newTestScheduler(t)
	var task func()
	ticks, err := s.ticks(func(fn func()) (string, error) {
		task = fn
		return "id", nil
	})
	require.NoError(t, err)

	task()
	task()
	task()
	assert.Len(t, ticks, 1, "unconsumed ticks do not queue up")
	<-ticks
	task()
	assert.Len(t, ticks, 1)
}

func TestScheduler_EveryTicksFires(t *testing.T) {
	s := newTestScheduler(t)
	ticks, err := s.EveryTicks("fast", 20*time.Millisecond)
	require.NoError(t, err)
	s.Start(t.Context())

	select {
	case got := <-ticks:
		assert.False(t, got.IsZero())
	case <-time.After(5 * time.Second):
		t.Fatal("no tick delivered")
	}
}
