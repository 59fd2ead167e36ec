package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/zephyrforge/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Name  string `help:"Project and device hostname (defaults to the config file name)"`
	Board string `short:"b" help:"Target board" default:"nrf52840dongle_nrf52840"`
	Force bool   `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(root *CLI) error {
	name := i.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(root.Config), filepath.Ext(root.Config))
	}
	return RunInit(root.Config, name, i.Board, i.Force)
}

func RunInit(configPath, name, boardName string, force bool) error {
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, name, boardName, force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}
	fmt.Println("initialized successfully")
	return nil
}
