package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/zephyrforge/internal/build"
	"git.home.luguber.info/inful/zephyrforge/internal/config"
	"git.home.luguber.info/inful/zephyrforge/internal/deploy"
	"git.home.luguber.info/inful/zephyrforge/internal/logfields"
	"git.home.luguber.info/inful/zephyrforge/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Upload bool   `short:"u" help:"Upload after every successful rebuild (overrides watch.upload)"`
	Device string `short:"d" help:"Upload target; defaults to upload.device"`
}

func (w *WatchCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	rt := openRuntime(ctx, cfg, g.Logger)
	defer rt.Close()

	r := &rebuilder{
		configPath: cfg.Path(),
		cfg:        cfg,
		service:    rt.service,
		upload:     w.Upload || cfg.Watch.Upload,
		device:     w.Device,
		logger:     g.Logger,
	}
	if err := r.OnChange(ctx, nil); err != nil {
		g.Logger.Error("Initial build failed, waiting for changes", logfields.Error(err))
	}

	paths := []string{cfg.Path()}
	if cfg.Sources != "" {
		paths = append(paths, cfg.Sources)
	}
	watcher, err := watch.New(paths, r.OnChange,
		watch.WithDebounce(cfg.Watch.Debounce),
		watch.WithIgnore(cfg.BuildPath),
		watch.WithLogger(g.Logger),
	)
	if err != nil {
		return err
	}
	fmt.Printf("Watching %d path(s), press Ctrl-C to stop\n", len(paths))
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// rebuilder reloads the configuration and rebuilds on every change batch.
type rebuilder struct {
	configPath string
	cfg        *config.Config
	service    build.Service
	upload     bool
	device     string
	logger     *slog.Logger
}

// OnChange keeps the previous configuration when the edited file no longer
// loads.
func (r *rebuilder) OnChange(ctx context.Context, changed []string) error {
	if len(changed) > 0 {
		r.logger.Info("Change detected, rebuilding", slog.Int("files", len(changed)))
		cfg, err := config.Load(r.configPath)
		if err != nil {
			r.logger.Error("Configuration invalid, keeping previous", logfields.Error(err))
		} else {
			r.cfg = cfg
		}
	}

	res, err := RunCompile(ctx, r.service, r.cfg)
	if err != nil || !r.upload {
		return err
	}
	dr, err := r.service.Deploy(ctx, build.DeployRequest{Config: r.cfg, Target: r.device, RunID: res.RunID})
	printDeploy(dr, err)
	if errors.Is(err, deploy.ErrAwaitingReset) {
		r.logger.Warn(err.Error())
		return nil
	}
	return err
}
