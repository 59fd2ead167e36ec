package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"git.home.luguber.info/inful/zephyrforge/internal/build"
	"git.home.luguber.info/inful/zephyrforge/internal/config"
)

// CompileCmd implements the 'compile' command.
type CompileCmd struct{}

func (c *CompileCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	rt := openRuntime(ctx, cfg, g.Logger)
	defer rt.Close()

	_, err = RunCompile(ctx, rt.service, cfg)
	return err
}

// RunCompile builds both images and prints the artifacts.
func RunCompile(ctx context.Context, svc build.Service, cfg *config.Config) (*build.BuildResult, error) {
	fmt.Printf("Compiling %s for %s\n", cfg.Name, cfg.Zephyr.Board)
	res, err := svc.Build(ctx, build.BuildRequest{Config: cfg})
	if err != nil {
		if res != nil && res.FailedStage != "" {
			fmt.Printf("Compile failed during %s\n", res.FailedStage)
		}
		return res, err
	}

	keys := make([]string, 0, len(res.Artifacts))
	for k := range res.Artifacts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-22s %s\n", k, res.Artifacts[k])
	}
	fmt.Printf("Compiled in %s\n", res.Duration.Round(100*time.Millisecond))
	return res, nil
}
