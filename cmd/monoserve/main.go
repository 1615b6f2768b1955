package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/asrafilll/monoserve/cmd/monoserve/commands"
	derrors "github.com/asrafilll/monoserve/internal/errors"
	"github.com/asrafilll/monoserve/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("monoserve"),
		kong.Description("Build orchestrator and unified origin for multi-workspace web repositories."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli)
	derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
