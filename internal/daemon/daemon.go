package daemon

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/rptl/internal/config"
	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/logfields"
	"git.home.luguber.info/inful/rptl/internal/window"
)

// State is the shared mutable daemon state. Any number of duties read it;
// the control service is the only writer after startup.
type State struct {
	running atomic.Bool
	mu      sync.RWMutex
	window  window.Window
}

// NewState returns a stopped state with the given window.
func NewState(w window.Window) *State {
	return &State{window: w}
}

// SetRunning stores running and returns the previous value.
func (s *State) SetRunning(running bool) bool {
	return s.running.Swap(running)
}

func (s *State) Running() bool { return s.running.Load() }

// SetWindow replaces the effective window.
func (s *State) SetWindow(w window.Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = window.New(w.Start, w.End)
}

// Window returns a copy of the effective window.
func (s *State) Window() window.Window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return window.New(s.window.Start, s.window.End)
}

// Active reports running && window active at now. Evaluated fresh on every call.
func (s *State) Active(now time.Time) bool {
	return s.Running() && s.Window().IsActive(now)
}

// Daemon owns the immutable configuration and the shared state.
type Daemon struct {
	config    *config.Config
	state     *State
	clock     clockwork.Clock
	started   atomic.Bool
	startTime time.Time
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithClock sets the clock used by duties (tests use a fake clock).
func WithClock(c clockwork.Clock) Option { return func(d *Daemon) { d.clock = c } }

// New creates a daemon from a validated configuration.
func New(cfg *config.Config, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	d := &Daemon{
		config: cfg,
		state:  NewState(cfg.Window()),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start marks the daemon running. It may only be called once; later
// transitions go through the control service.
func (d *Daemon) Start() error {
	if !d.started.CompareAndSwap(false, true) {
		return ferrors.DaemonError("daemon already started").Build()
	}
	d.startTime = d.clock.Now()
	d.state.SetRunning(true)
	slog.Info("Daemon started",
		logfields.Interval(d.config.IntervalDuration()),
		logfields.Window(d.state.Window().String()))
	return nil
}

func (d *Daemon) Config() *config.Config { return d.config }
func (d *Daemon) State() *State          { return d.state }
func (d *Daemon) Clock() clockwork.Clock { return d.clock }
func (d *Daemon) StartTime() time.Time   { return d.startTime }

// Active reports whether gated duties should act at now.
func (d *Daemon) Active(now time.Time) bool {
	return d.state.Active(now)
}
