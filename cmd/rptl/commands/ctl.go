package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"git.home.luguber.info/inful/rptl/internal/config"
	"git.home.luguber.info/inful/rptl/internal/control"
	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
)

// CtlCmd implements the 'ctl' command.
type CtlCmd struct {
	Command   string        `arg:"" enum:"start,stop,status,window" help:"Control command: start, stop, status or window"`
	StartTime string        `name:"start-time" help:"Window start for the window command" placeholder:"HHMM"`
	EndTime   string        `name:"end-time" help:"Window end for the window command" placeholder:"HHMM"`
	NATSURL   string        `name:"nats-url" help:"NATS server URL (defaults to the configured one)"`
	Subject   string        `help:"Control subject (defaults to the configured one)"`
	Timeout   time.Duration `default:"5s" help:"How long to wait for the daemon's reply"`
}

func (c *CtlCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	url, subject := c.target(cfg)

	conn, err := control.Dial(url)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryControl, "failed to connect to control server").
			Fatal().
			WithContext("url", url).
			Build()
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	resp, err := control.NewClient(conn, subject).Send(ctx, c.command())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryControl, "control command failed").
			Fatal().
			WithContext("subject", subject).
			Build()
	}
	return printResponse(os.Stdout, resp)
}

func (c *CtlCmd) command() control.Command {
	cmd := control.Command{Name: control.CommandName(c.Command)}
	if cmd.Name == control.CommandWindow {
		cmd.StartTime = c.StartTime
		cmd.EndTime = c.EndTime
	}
	return cmd
}

func (c *CtlCmd) target(cfg *config.Config) (string, string) {
	url, subject := cfg.Control.NATSURL, cfg.Control.Subject
	if c.NATSURL != "" {
		url = c.NATSURL
	}
	if c.Subject != "" {
		subject = c.Subject
	}
	return url, subject
}

// printResponse writes resp as indented JSON and turns a rejected command
// into an error.
func printResponse(w io.Writer, resp control.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to print response: %w", err)
	}
	if !resp.OK {
		return ferrors.ControlError("daemon rejected command: " + resp.Error).Build()
	}
	return nil
}
