package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/rptl/cmd/rptl/commands"
	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
)

var version = "dev"

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("rptl"),
		kong.Description("Raspberry Pi time-lapse: captures photographs inside a daily window and compiles them into daily videos."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if err := parser.Run(&commands.Global{Logger: slog.Default()}, cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose(), slog.Default()).HandleError(err)
	}
}
