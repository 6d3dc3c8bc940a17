package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/ledger"
	"git.home.luguber.info/inful/rptl/internal/logfields"
	"git.home.luguber.info/inful/rptl/internal/metrics"
	"git.home.luguber.info/inful/rptl/internal/window"
)

// ErrTransportClosed is returned by a Transport whose channel is gone.
var ErrTransportClosed = errors.New("control transport closed")

// receiveRetryDelay paces Receive after an error that did not close the transport.
const receiveRetryDelay = 100 * time.Millisecond

// Request is one command received by a Transport.
type Request struct {
	Command Command
	Respond func(Response) error
}

// Transport delivers control requests. Receive blocks until a request
// arrives, ctx is done or the transport fails.
type Transport interface {
	Receive(ctx context.Context) (*Request, error)
}

// State is the mutable daemon state the service writes.
type State interface {
	SetRunning(running bool) bool
	Running() bool
	SetWindow(w window.Window)
	Window() window.Window
}

// Stats reports ledger figures for status snapshots.
type Stats interface {
	CountFrames(ctx context.Context, day time.Time) (int, error)
	LastCompiled(ctx context.Context) (*ledger.Compilation, error)
}

// StatusPublisher stores the latest status somewhere observable.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, st Status) error
}

type submission struct {
	cmd   Command
	reply chan Response
}

// Service applies control commands to the daemon state, one at a time.
type Service struct {
	state     State
	transport Transport
	stats     Stats
	publisher StatusPublisher
	recorder  metrics.Recorder
	now       func() time.Time
	local     chan submission
}

// Option configures a Service.
type Option func(*Service)

// WithStats adds ledger figures to status snapshots.
func WithStats(stats Stats) Option { return func(s *Service) { s.stats = stats } }

// WithPublisher publishes a status snapshot after every command.
func WithPublisher(p StatusPublisher) Option { return func(s *Service) { s.publisher = p } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(s *Service) { s.recorder = metrics.OrNoop(r) } }

// WithClock overrides the time source used for snapshots.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService creates a control service. A nil transport accepts local submissions only.
func NewService(state State, transport Transport, opts ...Option) *Service {
	s := &Service{
		state:     state,
		transport: transport,
		recorder:  metrics.NoopRecorder{},
		now:       time.Now,
		local:     make(chan submission),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves commands until ctx is done or the transport closes. Other
// transport errors are logged and receiving resumes.
func (s *Service) Run(ctx context.Context) error {
	requests := make(chan *Request)
	failed := make(chan error, 1)
	if s.transport != nil {
		go s.receive(ctx, requests, failed)
	}

	slog.InfoContext(ctx, "Control service started", logfields.Duty("control"))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-failed:
			return err
		case req := <-requests:
			resp := s.Apply(ctx, req.Command)
			if req.Respond != nil {
				if err := req.Respond(resp); err != nil {
					slog.WarnContext(ctx, "Failed to send control response",
						logfields.Command(string(req.Command.Name)),
						logfields.Error(err))
				}
			}
		case sub := <-s.local:
			sub.reply <- s.Apply(ctx, sub.cmd)
		}
	}
}

func (s *Service) receive(ctx context.Context, out chan<- *Request, failed chan<- error) {
	for {
		req, err := s.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, ErrTransportClosed) {
				slog.WarnContext(ctx, "Control transport error; retrying", logfields.Error(err))
				select {
				case <-time.After(receiveRetryDelay):
					continue
				case <-ctx.Done():
					return
				}
			}
			failed <- ferrors.WrapError(err, ferrors.CategoryControl, "control transport failed").Fatal().Build()
			return
		}
		select {
		case out <- req:
		case <-ctx.Done():
			return
		}
	}
}

// Submit applies a locally originated command through the service loop.
func (s *Service) Submit(ctx context.Context, cmd Command) (Response, error) {
	sub := submission{cmd: cmd, reply: make(chan Response, 1)}
	select {
	case s.local <- sub:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
	select {
	case resp := <-sub.reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Apply executes one command against the state. It is only called from the
// Run loop (and tests), which keeps the service the single writer.
func (s *Service) Apply(ctx context.Context, cmd Command) Response {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	resp := Response{ID: cmd.ID, OK: true}

	switch cmd.Name {
	case CommandStart:
		s.state.SetRunning(true)
	case CommandStop:
		s.state.SetRunning(false)
	case CommandStatus:
	case CommandWindow:
		w, err := parseWindow(cmd.StartTime, cmd.EndTime)
		if err != nil {
			resp.OK = false
			resp.Error = err.Error()
			break
		}
		s.state.SetWindow(w)
	default:
		resp.OK = false
		resp.Error = fmt.Sprintf("unknown command %q", cmd.Name)
	}

	st := s.Snapshot(ctx)
	resp.Status = &st
	s.recorder.IncControlCommand(string(cmd.Name), resp.OK)
	s.recorder.SetRunning(st.Running)

	attrs := []any{
		logfields.Command(string(cmd.Name)),
		logfields.RequestID(cmd.ID),
		slog.Bool("running", st.Running),
		logfields.Window(st.Window),
	}
	if resp.OK {
		slog.InfoContext(ctx, "Applied control command", attrs...)
	} else {
		slog.WarnContext(ctx, "Rejected control command", append(attrs, slog.String("reason", resp.Error))...)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishStatus(ctx, st); err != nil {
			slog.WarnContext(ctx, "Failed to publish status", logfields.Error(err))
		}
	}
	return resp
}

// Snapshot reports the current state.
func (s *Service) Snapshot(ctx context.Context) Status {
	now := s.now()
	w := s.state.Window()
	running := s.state.Running()
	st := Status{
		Running: running,
		Window:  w.String(),
		Active:  running && w.IsActive(now),
		Time:    now,
	}
	if s.stats == nil {
		return st
	}
	if n, err := s.stats.CountFrames(ctx, now); err == nil {
		st.FramesToday = n
	} else {
		slog.DebugContext(ctx, "Frame count unavailable", logfields.Error(err))
	}
	if c, err := s.stats.LastCompiled(ctx); err == nil && c != nil {
		st.LastCompiled = c.Day
	}
	return st
}

func parseWindow(start, end string) (window.Window, error) {
	var bounds [2]*window.ClockTime
	for i, raw := range []string{start, end} {
		if raw == "" {
			continue
		}
		ct, err := window.ParseClockTime(raw)
		if err != nil {
			return window.Window{}, err
		}
		bounds[i] = &ct
	}
	return window.New(bounds[0], bounds[1]), nil
}
