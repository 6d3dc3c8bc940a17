package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"git.home.luguber.info/inful/rptl/internal/logfields"
)

// ErrNoDuties is returned by Race when given an empty duty set.
var ErrNoDuties = errors.New("no duties to run")

// Result is the outcome of the first duty to finish.
type Result struct {
	Duty string
	Err  error
	// Abandoned lists the duties still running when Race returned.
	Abandoned []string
}

// Race runs every duty in its own goroutine and returns as soon as the first
// one finishes, by normal return or failure. The others are abandoned: their
// context is cancelled as a signal, but Race does not wait for them.
func Race(ctx context.Context, duties ...Duty) Result {
	if len(duties) == 0 {
		return Result{Err: ErrNoDuties}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		running = make(map[string]int, len(duties))
	)
	// Buffered so abandoned duties can still deliver and exit.
	done := make(chan Result, len(duties))

	for _, duty := range duties {
		name := duty.Name()
		mu.Lock()
		running[name]++
		mu.Unlock()

		go func() {
			err := duty.Run(ctx)
			mu.Lock()
			running[name]--
			if running[name] == 0 {
				delete(running, name)
			}
			mu.Unlock()
			done <- Result{Duty: name, Err: err}
		}()
		slog.DebugContext(ctx, "Launched duty", logfields.Duty(name))
	}

	first := <-done

	mu.Lock()
	for name := range running {
		first.Abandoned = append(first.Abandoned, name)
	}
	mu.Unlock()
	sort.Strings(first.Abandoned)

	attrs := []any{logfields.Duty(first.Duty), slog.Any("abandoned", first.Abandoned)}
	if first.Err != nil {
		attrs = append(attrs, logfields.Error(first.Err))
	}
	slog.InfoContext(ctx, "Duty finished; shutting down", attrs...)
	return first
}
