package commands

import (
	"context"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/zephyrforge/internal/build"
	"git.home.luguber.info/inful/zephyrforge/internal/config"
	"git.home.luguber.info/inful/zephyrforge/internal/eventstore"
	"git.home.luguber.info/inful/zephyrforge/internal/logfields"
	"git.home.luguber.info/inful/zephyrforge/internal/metrics"
	"git.home.luguber.info/inful/zephyrforge/internal/notify"
	"git.home.luguber.info/inful/zephyrforge/internal/toolchain"
	"git.home.luguber.info/inful/zephyrforge/internal/usbprobe"
)

// runtime wires the build service to the real toolchain and the optional
// history, notification and metrics sinks of one configuration.
type runtime struct {
	cfg       *config.Config
	service   *build.DefaultService
	recorder  *metrics.PrometheusRecorder
	store     eventstore.Store
	publisher notify.Publisher
	logger    *slog.Logger
}

// openRuntime never fails on an unavailable sink; history and notifications
// degrade to warnings.
func openRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) *runtime {
	rt := &runtime{
		cfg:       cfg,
		recorder:  metrics.NewPrometheusRecorder(prom.NewRegistry()),
		publisher: notify.NoopPublisher{},
		logger:    logger,
	}

	runner := toolchain.NewExecRunner().WithRecorder(rt.recorder)
	runner.Logger = logger

	rt.service = build.NewService(runner).
		WithRecorder(rt.recorder).
		WithProber(usbprobe.USBProber{}).
		WithLogger(logger)

	if !cfg.History.Disabled {
		store, err := eventstore.NewSQLiteStore(cfg.HistoryPath())
		if err != nil {
			logger.Warn("Run history unavailable", logfields.Path(cfg.HistoryPath()), logfields.Error(err))
		} else {
			rt.store = store
			rt.service.WithEventStore(store)
		}
	}

	if n := cfg.Notify; n != nil {
		pub, err := notify.NewNATSPublisher(ctx, notify.Options{
			URL:           n.NATSURL,
			SubjectPrefix: n.SubjectPrefix,
			KVBucket:      n.KVBucket,
			Retry:         n.RetryPolicy(),
			Logger:        logger,
		})
		if err != nil {
			logger.Warn("Notifications disabled", slog.String("url", n.NATSURL), logfields.Error(err))
		} else {
			rt.publisher = pub
			rt.service.WithPublisher(pub)
		}
	}
	return rt
}

// Close flushes metrics and releases the sinks.
func (rt *runtime) Close() {
	if path := rt.cfg.Metrics.Textfile; path != "" {
		if err := rt.recorder.WriteTextfile(path); err != nil {
			rt.logger.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
		}
	}
	if err := rt.publisher.Close(); err != nil {
		rt.logger.Debug("Failed to close notification publisher", logfields.Error(err))
	}
	if rt.store != nil {
		if keep := rt.cfg.History.Keep; keep > 0 {
			if n, err := rt.store.Prune(context.Background(), keep); err != nil {
				rt.logger.Warn("Failed to prune run history", logfields.Error(err))
			} else if n > 0 {
				rt.logger.Debug("Pruned run history", slog.Int64("records", n), slog.Int("keep", keep))
			}
		}
		if err := rt.store.Close(); err != nil {
			rt.logger.Debug("Failed to close run history", logfields.Error(err))
		}
	}
}
