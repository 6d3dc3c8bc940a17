package control

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/ledger"
	"git.home.luguber.info/inful/rptl/internal/window"
)

type memState struct {
	mu      sync.Mutex
	running bool
	w       window.Window
}

func (m *memState) SetRunning(r bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.running
	m.running = r
	return prev
}

func (m *memState) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *memState) SetWindow(w window.Window) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.w = w
}

func (m *memState) Window() window.Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.w
}

// chanTransport delivers requests pushed onto reqs and fails with err once closed.
type chanTransport struct {
	reqs chan *Request
	err  error
}

func newChanTransport() *chanTransport {
	return &chanTransport{reqs: make(chan *Request), err: ErrTransportClosed}
}

func (c *chanTransport) Receive(ctx context.Context) (*Request, error) {
	select {
	case req, ok := <-c.reqs:
		if !ok {
			return nil, c.err
		}
		return req, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *chanTransport) send(t *testing.T, cmd Command) Response {
	t.Helper()
	replies := make(chan Response, 1)
	c.reqs <- &Request{Command: cmd, Respond: func(r Response) error {
		replies <- r
		return nil
	}}
	select {
	case r := <-replies:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no response")
		return Response{}
	}
}

var noon = time.Date(2026, 10, 14, 12, 0, 0, 0, time.Local)

func TestApplyCommands(t *testing.T) {
	state := &memState{}
	svc := NewService(state, nil, WithClock(func() time.Time { return noon }))
	ctx := t.Context()

	resp := svc.Apply(ctx, Command{Name: CommandStart})
	require.True(t, resp.OK)
	assert.NotEmpty(t, resp.ID)
	assert.True(t, state.Running())
	assert.True(t, resp.Status.Active)

	resp = svc.Apply(ctx, Command{Name: CommandWindow, StartTime: "1300", EndTime: "1400"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "1300-1400", resp.Status.Window)
	assert.False(t, resp.Status.Active, "noon is outside 13:00-14:00")

	resp = svc.Apply(ctx, Command{Name: CommandWindow, StartTime: "2500"})
	assert.False(t, resp.OK)
	assert.Equal(t, "1300-1400", state.Window().String(), "invalid window leaves state untouched")

	resp = svc.Apply(ctx, Command{Name: CommandWindow})
	require.True(t, resp.OK)
	assert.True(t, state.Window().Always())

	resp = svc.Apply(ctx, Command{Name: CommandStop})
	require.True(t, resp.OK)
	assert.False(t, state.Running())

	resp = svc.Apply(ctx, Command{Name: "reboot"})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "unknown command")
}

func TestStatusIncludesLedgerFigures(t *testing.T) {
	l, err := ledger.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	ctx := t.Context()
	require.NoError(t, l.RecordFrame(ctx, ledger.Frame{Path: "/p/a.jpg", CapturedAt: noon.Add(-time.Hour)}))
	require.NoError(t, l.MarkCompiled(ctx, ledger.Compilation{Day: "2026-10-13", VideoPath: "/v/x.mp4"}))

	svc := NewService(&memState{}, nil, WithStats(l), WithClock(func() time.Time { return noon }))
	st := svc.Apply(ctx, Command{Name: CommandStatus}).Status
	require.NotNil(t, st)
	assert.Equal(t, 1, st.FramesToday)
	assert.Equal(t, "2026-10-13", st.LastCompiled)
}

type recordingPublisher struct {
	mu       sync.Mutex
	statuses []Status
}

func (p *recordingPublisher) PublishStatus(_ context.Context, st Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, st)
	return nil
}

func TestRunServesTransportAndLocal(t *testing.T) {
	state := &memState{}
	tr := newChanTransport()
	pub := &recordingPublisher{}
	svc := NewService(state, tr, WithPublisher(pub))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	resp := tr.send(t, Command{ID: "r1", Name: CommandStart})
	assert.Equal(t, "r1", resp.ID)
	assert.True(t, resp.OK)
	assert.True(t, state.Running())

	local, err := svc.Submit(ctx, Command{Name: CommandStop})
	require.NoError(t, err)
	assert.True(t, local.OK)
	assert.False(t, state.Running())

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.statuses, 2)
}

func TestRunEndsOnTransportClosure(t *testing.T) {
	tr := newChanTransport()
	svc := NewService(&memState{}, tr)

	done := make(chan error, 1)
	go func() { done <- svc.Run(t.Context()) }()
	close(tr.reqs)

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransportClosed)
		assert.Equal(t, ferrors.CategoryControl, ferrors.GetCategory(err))
		assert.False(t, ferrors.IsTransient(err))
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop after transport closure")
	}
}

// flakyTransport fails the first Receive calls before delegating.
type flakyTransport struct {
	*chanTransport
	mu       sync.Mutex
	failures []error
}

func (f *flakyTransport) Receive(ctx context.Context) (*Request, error) {
	f.mu.Lock()
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()
	return f.chanTransport.Receive(ctx)
}

func TestRunSurvivesNonClosureTransportErrors(t *testing.T) {
	state := &memState{}
	tr := &flakyTransport{
		chanTransport: newChanTransport(),
		failures:      []error{errors.New("slow consumer, messages dropped"), errors.New("temporary read failure")},
	}
	svc := NewService(state, tr)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	resp := tr.send(t, Command{ID: "after-errors", Name: CommandStart})
	assert.True(t, resp.OK)
	assert.True(t, state.Running())

	select {
	case err := <-done:
		t.Fatalf("service stopped early: %v", err)
	default:
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestSubmitHonoursContext(t *testing.T) {
	svc := NewService(&memState{}, nil)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := svc.Submit(ctx, Command{Name: CommandStatus})
	assert.True(t, errors.Is(err, context.Canceled))
}
