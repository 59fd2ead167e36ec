package commands

import (
	"context"
	"errors"
	"fmt"

	"git.home.luguber.info/inful/zephyrforge/internal/build"
	"git.home.luguber.info/inful/zephyrforge/internal/deploy"
)

// UploadCmd implements the 'upload' command.
type UploadCmd struct {
	Device string `short:"d" help:"Serial device, debugger id or IP address; empty discovers the device over mDNS"`
}

func (u *UploadCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	rt := openRuntime(ctx, cfg, g.Logger)
	defer rt.Close()

	res, err := rt.service.Deploy(ctx, build.DeployRequest{Config: cfg, Target: u.Device})
	printDeploy(res, err)
	return err
}

// RunCmd implements the 'run' command.
type RunCmd struct {
	Device string `short:"d" help:"Serial device, debugger id or IP address; empty discovers the device over mDNS"`
}

func (r *RunCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	rt := openRuntime(ctx, cfg, g.Logger)
	defer rt.Close()

	fmt.Printf("Compiling %s for %s\n", cfg.Name, cfg.Zephyr.Board)
	br, res, err := rt.service.Run(ctx, cfg, r.Device)
	if res == nil && br != nil && br.FailedStage != "" {
		fmt.Printf("Compile failed during %s\n", br.FailedStage)
	}
	printDeploy(res, err)
	return err
}

// ForgetBootloaderCmd implements the 'forget-bootloader' command.
type ForgetBootloaderCmd struct{}

func (f *ForgetBootloaderCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := build.NewService(nil).WithLogger(g.Logger).ForgetBootloader(cfg); err != nil {
		return err
	}
	fmt.Println("The next upload will install the bootloader again")
	return nil
}

func printDeploy(res *build.DeployResult, err error) {
	if res == nil {
		return
	}
	switch {
	case err == nil:
		fmt.Printf("Uploaded via %s to %s\n", res.Strategy, res.Address)
	case errors.Is(err, deploy.ErrAwaitingReset):
		fmt.Printf("Bootloader installed via %s on %s\n", res.Strategy, res.Address)
	}
}
