package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/zephyrforge/cmd/zephyrforge/commands"
	"git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
	"git.home.luguber.info/inful/zephyrforge/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}

	parser := kong.Parse(cli,
		kong.Name("zephyrforge"),
		kong.Description("Build and deploy Zephyr firmware with mcuboot for nRF52840 boards"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	parser.BindTo(ctx, (*context.Context)(nil))

	global.Logger = cli.Logger()
	err := parser.Run(global, cli)
	stop()

	errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
