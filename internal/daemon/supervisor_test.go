package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockingDuty(name string, cancelled chan<- string) Duty {
	return NewDuty(name, func(ctx context.Context) error {
		<-ctx.Done()
		if cancelled != nil {
			cancelled <- name
		}
		return ctx.Err()
	})
}

func TestRaceReturnsFirstFinisher(t *testing.T) {
	boom := errors.New("transport closed")
	fire := make(chan struct{})
	failing := NewDuty("control", func(context.Context) error {
		<-fire
		return boom
	})
	cancelled := make(chan string, 2)

	resultCh := make(chan Result, 1)
	go func() {
		resultCh <- Race(t.Context(), blockingDuty("capture", cancelled), failing, blockingDuty("compile", cancelled))
	}()
	close(fire)

	var res Result
	select {
	case res = <-resultCh:
	case <-time.After(5 * time.Second):
		t.Fatal("race did not return")
	}
	assert.Equal(t, "control", res.Duty)
	require.ErrorIs(t, res.Err, boom)
	assert.Equal(t, []string{"capture", "compile"}, res.Abandoned)

	// Abandoned duties are signalled through their context.
	got := map[string]bool{}
	for range 2 {
		select {
		case name := <-cancelled:
			got[name] = true
		case <-time.After(5 * time.Second):
			t.Fatal("abandoned duty was not signalled")
		}
	}
	assert.True(t, got["capture"] && got["compile"])
}

func TestRaceDoesNotWaitForAbandonedDuties(t *testing.T) {
	stuck := make(chan struct{})
	t.Cleanup(func() { close(stuck) })
	ignoresCancel := NewDuty("stuck", func(context.Context) error {
		<-stuck
		return nil
	})
	quick := NewDuty("quick", func(context.Context) error { return nil })

	done := make(chan Result, 1)
	go func() { done <- Race(t.Context(), ignoresCancel, quick) }()

	select {
	case res := <-done:
		assert.Equal(t, "quick", res.Duty)
		require.NoError(t, res.Err)
		assert.Equal(t, []string{"stuck"}, res.Abandoned)
	case <-time.After(5 * time.Second):
		t.Fatal("race waited for a duty that ignores cancellation")
	}
}

func TestRaceNoDuties(t *testing.T) {
	res := Race(t.Context())
	require.ErrorIs(t, res.Err, ErrNoDuties)
}

func TestRaceParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan Result, 1)
	go func() { done <- Race(ctx, blockingDuty("a", nil), blockingDuty("b", nil)) }()
	cancel()

	res := <-done
	require.ErrorIs(t, res.Err, context.Canceled)
}
