package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rptl/internal/config"
	"git.home.luguber.info/inful/rptl/internal/control"
	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
)

func newParser(t *testing.T, cli *CLI, out *bytes.Buffer) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli,
		kong.Name("rptl"),
		kong.Exit(func(int) {}),
		kong.Writers(out, out),
		kong.Vars{"version": "test"},
	)
	require.NoError(t, err)
	return parser
}

func TestParse_DefaultsToRun(t *testing.T) {
	var out bytes.Buffer
	cli := &CLI{}
	kctx, err := newParser(t, cli, &out).Parse([]string{
		"--interval=60", "--start-time=0700", "--end-time=1900", "--no-camera", "--sort-colour-profile",
	})
	require.NoError(t, err)

	assert.Equal(t, "run", kctx.Command())
	assert.Equal(t, 60, cli.Run.Interval)
	assert.Equal(t, "0700", cli.Run.StartTime)
	assert.Equal(t, "1900", cli.Run.EndTime)
	assert.True(t, cli.Run.NoCamera)
	assert.True(t, cli.Run.SortColourProfile)
}

func TestParse_Ctl(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    control.Command
		wantErr bool
	}{
		{
			name: "status",
			args: []string{"ctl", "status"},
			want: control.Command{Name: control.CommandStatus},
		},
		{
			name: "window carries times",
			args: []string{"ctl", "window", "--start-time=2200", "--end-time=0600"},
			want: control.Command{Name: control.CommandWindow, StartTime: "2200", EndTime: "0600"},
		},
		{
			name: "times ignored outside window",
			args: []string{"ctl", "stop", "--start-time=2200"},
			want: control.Command{Name: control.CommandStop},
		},
		{
			name:    "unknown command",
			args:    []string{"ctl", "reboot"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cli := &CLI{}
			_, err := newParser(t, cli, &out).Parse(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cli.Ctl.command())
			assert.Equal(t, 5*time.Second, cli.Ctl.Timeout)
		})
	}
}

func TestCtlTarget_FlagsOverrideConfig(t *testing.T) {
	cfg := config.Default()

	c := &CtlCmd{}
	url, subject := c.target(cfg)
	assert.Equal(t, cfg.Control.NATSURL, url)
	assert.Equal(t, cfg.Control.Subject, subject)

	c = &CtlCmd{NATSURL: "nats://pi.local:4222", Subject: "garden.control"}
	url, subject = c.target(cfg)
	assert.Equal(t, "nats://pi.local:4222", url)
	assert.Equal(t, "garden.control", subject)
}

func TestPrintResponse(t *testing.T) {
	var out bytes.Buffer
	err := printResponse(&out, control.Response{ID: "1", OK: true, Status: &control.Status{Running: true, Window: "always"}})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"running": true`)

	out.Reset()
	err = printResponse(&out, control.Response{ID: "2", Error: "invalid start time"})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryControl))
	assert.Contains(t, out.String(), "invalid start time")
}

func TestRun_InvalidTimePrintsUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "hour out of range", args: []string{"--start-time=2500"}},
		{name: "not a time", args: []string{"--end-time=noon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cli := &CLI{}
			kctx, err := newParser(t, cli, &out).Parse(tt.args)
			require.NoError(t, err)

			err = kctx.Run(&Global{}, cli)
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
			assert.Equal(t, 2, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
			assert.Contains(t, out.String(), "Usage:")
		})
	}
}

func TestInit_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	cli := &CLI{}
	kctx, err := newParser(t, cli, &out).Parse([]string{"init", "--output", dir})
	require.NoError(t, err)
	require.NoError(t, kctx.Run(&Global{}, cli))

	path := filepath.Join(dir, defaultConfigName)
	_, err = os.Stat(path)
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Interval)

	// A second init without --force refuses to overwrite.
	err = RunInit(path, false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestCLIVerbose(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"DEBUG", true},
		{"debug", true},
		{" Debug ", true},
		{"info", false},
		{"", false},
		{"loud", false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, (&CLI{LogLevel: tt.level}).Verbose())
		})
	}
}
