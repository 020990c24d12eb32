package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docpartials/cmd/docpartials/commands"
	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
	"git.home.luguber.info/inful/docpartials/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	parser := kong.Parse(cli,
		kong.Name("docpartials"),
		kong.Description("Compile HTML partials and inject them into generated documents."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err := parser.Run(global, cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
