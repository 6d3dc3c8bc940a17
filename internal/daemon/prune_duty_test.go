package daemon

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rptl/internal/camera"
	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
)

type pruneFunc func(ctx context.Context) error

func (f pruneFunc) Prune(ctx context.Context) error { return f(ctx) }

func TestPruneDutyTransientFailureContinues(t *testing.T) {
	d, _ := newTestDaemon(t, at(12, 0, 0), nil)
	calls := make(chan struct{}, 8)
	first := true
	pruner := pruneFunc(func(context.Context) error {
		calls <- struct{}{}
		if first {
			first = false
			return ferrors.PruneError("decode failed").Build()
		}
		return nil
	})
	ticks := make(chan time.Time)
	_, done := startDuty(t, NewPruneDuty(d, pruner, ticks, nil))

	for i := range 3 {
		ticks <- at(12+i, 0, 0)
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatalf("prune %d not called", i)
		}
	}

	select {
	case err := <-done:
		t.Fatalf("duty ended: %v", err)
	default:
	}
}

func TestPruneDutySkipsWhileStopped(t *testing.T) {
	d, _ := newTestDaemon(t, at(12, 0, 0), nil)
	calls := make(chan struct{}, 8)
	pruner := pruneFunc(func(context.Context) error {
		calls <- struct{}{}
		return nil
	})
	ticks := make(chan time.Time)
	startDuty(t, NewPruneDuty(d, pruner, ticks, nil))

	d.State().SetRunning(false)
	ticks <- at(12, 0, 0)
	ticks <- at(13, 0, 0)
	assert.Empty(t, calls)
}

func TestTimestampDutyAlignsFiles(t *testing.T) {
	d, _ := newTestDaemon(t, at(12, 0, 0), nil)
	dir := t.TempDir()
	shot := at(9, 15, 0)
	require.NoError(t, camera.NewSimulatedCamera(dir).Capture(t.Context(), camera.NewEvent(shot)))

	ticks := make(chan time.Time)
	startDuty(t, NewTimestampDuty(d, dir, ticks, nil))
	ticks <- at(12, 0, 0)
	ticks <- at(13, 0, 0)

	info, err := os.Stat(camera.PhotoPath(dir, shot))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(shot))
}
