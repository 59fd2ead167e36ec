package commands

import (
	"fmt"

	"git.home.luguber.info/inful/zephyrforge/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Printf("zephyrforge %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	return nil
}
