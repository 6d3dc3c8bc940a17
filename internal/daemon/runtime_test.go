package daemon

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rptl/internal/config"
	"git.home.luguber.info/inful/rptl/internal/control"
	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/ledger"
)

func dutyNames(duties []Duty) []string {
	names := make([]string, 0, len(duties))
	for _, d := range duties {
		names = append(names, d.Name())
	}
	return names
}

func buildTestDuties(t *testing.T, mutate func(*config.Config), comps Components) []string {
	t.Helper()
	d, _ := newTestDaemon(t, at(12, 0, 0), mutate)
	comps.Scheduler = newTestScheduler(t)
	if comps.Control == nil {
		comps.Control = control.NewService(d.State(), nil)
	}
	duties, err := BuildDuties(d, comps)
	require.NoError(t, err)
	return dutyNames(duties)
}

func TestBuildDutiesDefaultSet(t *testing.T) {
	names := buildTestDuties(t, nil, Components{})
	assert.Equal(t, []string{"capture", "control", "compile"}, names)
}

func TestBuildDutiesPruningDisabledMeansNoPruneDuty(t *testing.T) {
	names := buildTestDuties(t, func(c *config.Config) { c.Prune.Enabled = false }, Components{})
	assert.NotContains(t, names, "prune")

	names = buildTestDuties(t, func(c *config.Config) { c.Prune.Enabled = true }, Components{})
	assert.Contains(t, names, "prune")
}

func TestBuildDutiesOptionalMembers(t *testing.T) {
	names := buildTestDuties(t, func(c *config.Config) {
		c.Timestamp.Enabled = true
		c.Metrics.ListenAddr = "127.0.0.1:0"
		c.Video.Enabled = false
	}, Components{Registry: prom.NewRegistry(), ConfigPath: "rptl.yaml"})

	assert.Equal(t, []string{"capture", "control", "timestamp", "metrics", "config-watcher"}, names)
}

func TestBuildDutiesIntervalCompile(t *testing.T) {
	names := buildTestDuties(t, func(c *config.Config) { c.Video.Interval = 6 * time.Hour }, Components{})
	assert.Contains(t, names, "compile")
}

// supervisorConfig runs the simulated camera every second with all state
// under a temporary directory and control disabled.
func supervisorConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Interval = 1
	cfg.Camera.Enabled = false
	cfg.Camera.PhotoDir = filepath.Join(dir, "photos")
	cfg.Video.OutputDir = filepath.Join(dir, "videos")
	cfg.Ledger.Path = filepath.Join(dir, "rptl.db")
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func runSupervisor(ctx context.Context, s *Supervisor) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("supervisor did not return")
		return nil
	}
}

func TestSupervisorRunSimulatedCameraRecordsFrames(t *testing.T) {
	cfg := supervisorConfig(t)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	done := runSupervisor(ctx, NewSupervisor(cfg, ""))

	pattern := filepath.Join(cfg.Camera.PhotoDir, "*", "*.jpg")
	require.Eventually(t, func() bool {
		matches, _ := filepath.Glob(pattern)
		return len(matches) > 0
	}, 8*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, waitDone(t, done), "cancellation is a clean shutdown")

	matches, err := filepath.Glob(pattern)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	day, err := time.ParseInLocation(time.DateOnly, filepath.Base(filepath.Dir(matches[0])), time.Local)
	require.NoError(t, err)

	l, err := ledger.Open(cfg.Ledger.Path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	n, err := l.CountFrames(t.Context(), day)
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestSupervisorRunWaitsForUnreachableBroker(t *testing.T) {
	cfg := supervisorConfig(t)
	cfg.Control.Enabled = true
	cfg.Control.NATSURL = "nats://127.0.0.1:1"

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	done := runSupervisor(ctx, NewSupervisor(cfg, ""))

	select {
	case err := <-done:
		t.Fatalf("supervisor exited without a broker: %v", err)
	case <-time.After(500 * time.Millisecond):
	}

	cancel()
	require.NoError(t, waitDone(t, done))
}

func TestSupervisorRunPropagatesFatalDutyError(t *testing.T) {
	cfg := supervisorConfig(t)
	// The watcher cannot watch a directory that does not exist.
	missing := filepath.Join(t.TempDir(), "missing", "rptl.yaml")

	err := waitDone(t, runSupervisor(t.Context(), NewSupervisor(cfg, missing)))
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryDaemon, ferrors.GetCategory(err))
}

func TestSupervisorRunFailsWhenLedgerCannotOpen(t *testing.T) {
	cfg := supervisorConfig(t)
	cfg.Ledger.Path = filepath.Join(t.TempDir(), "missing", "rptl.db")

	err := waitDone(t, runSupervisor(t.Context(), NewSupervisor(cfg, "")))
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryLedger, ferrors.GetCategory(err))
}
