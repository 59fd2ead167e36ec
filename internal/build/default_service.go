package build

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/zephyrforge/internal/board"
	"git.home.luguber.info/inful/zephyrforge/internal/config"
	"git.home.luguber.info/inful/zephyrforge/internal/deploy"
	"git.home.luguber.info/inful/zephyrforge/internal/discovery"
	"git.home.luguber.info/inful/zephyrforge/internal/eventstore"
	ferrors "git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
	"git.home.luguber.info/inful/zephyrforge/internal/git"
	"git.home.luguber.info/inful/zephyrforge/internal/logfields"
	"git.home.luguber.info/inful/zephyrforge/internal/metrics"
	"git.home.luguber.info/inful/zephyrforge/internal/notify"
	"git.home.luguber.info/inful/zephyrforge/internal/project"
	"git.home.luguber.info/inful/zephyrforge/internal/session"
	"git.home.luguber.info/inful/zephyrforge/internal/toolchain"
	"git.home.luguber.info/inful/zephyrforge/internal/usbprobe"
)

// StageConfigure is the failure stage reported when the configuration
// cannot be applied to the board.
const StageConfigure = "configure"

// DefaultService is the standard implementation of Service.
type DefaultService struct {
	runner    toolchain.Runner
	recorder  metrics.Recorder
	store     eventstore.Store
	publisher notify.Publisher
	resolver  discovery.Resolver
	prober    usbprobe.Prober
	sleep     func(ctx context.Context, d time.Duration) error
	clock     func() time.Time
	logger    *slog.Logger
}

// NewService creates a service that runs tools through runner. History,
// notifications and metrics are off until set.
func NewService(runner toolchain.Runner) *DefaultService {
	return &DefaultService{
		runner:    runner,
		recorder:  metrics.NoopRecorder{},
		publisher: notify.NoopPublisher{},
		logger:    slog.Default(),
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	s.recorder = r
	return s
}

// WithEventStore records every run in store.
func (s *DefaultService) WithEventStore(store eventstore.Store) *DefaultService {
	s.store = store
	return s
}

// WithPublisher sets the notification publisher.
func (s *DefaultService) WithPublisher(p notify.Publisher) *DefaultService {
	s.publisher = p
	return s
}

// WithResolver overrides mDNS discovery (tests, static hosts).
func (s *DefaultService) WithResolver(r discovery.Resolver) *DefaultService {
	s.resolver = r
	return s
}

// WithProber sets the USB probe used for DFU-mode hints.
func (s *DefaultService) WithProber(p usbprobe.Prober) *DefaultService {
	s.prober = p
	return s
}

// WithSleep overrides the settle delay wait.
func (s *DefaultService) WithSleep(fn func(ctx context.Context, d time.Duration) error) *DefaultService {
	s.sleep = fn
	return s
}

// WithClock fixes the session clock (firmware version stamp).
func (s *DefaultService) WithClock(now func() time.Time) *DefaultService {
	s.clock = now
	return s
}

// WithLogger sets the logger.
func (s *DefaultService) WithLogger(l *slog.Logger) *DefaultService {
	s.logger = l
	return s
}

// Paths returns the on-disk layout for cfg.
func Paths(cfg *config.Config) project.Paths {
	return project.NewPaths(cfg.BuildPath, cfg.Name)
}

// Build runs the whole compile: session, layout, application and bootloader.
func (s *DefaultService) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	start := time.Now()
	result := &BuildResult{RunID: runID(req.RunID), StartTime: start}
	finish := func(status BuildStatus) {
		result.Status = status
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(start)
	}

	cfg := req.Config
	if cfg == nil {
		finish(BuildStatusFailed)
		return result, ferrors.ConfigError("config required").Build()
	}
	result.Board = cfg.Zephyr.Board
	result.Paths = Paths(cfg)
	logger := s.logger.With(logfields.SessionID(result.RunID), logfields.Project(cfg.Name))

	d, err := board.Lookup(cfg.Zephyr.Board)
	if err != nil {
		finish(BuildStatusFailed)
		return result, err
	}

	s.emit(ctx, logger, func() (eventstore.Record, error) {
		return eventstore.NewBuildStarted(result.RunID, eventstore.BuildStartedMeta{
			Project:        cfg.Name,
			Board:          d.Name,
			SourceRevision: sourceRevision(cfg),
		})
	})

	opts := []session.Option{
		session.WithID(result.RunID),
		session.WithLogger(s.logger),
		session.WithRecorder(s.recorder),
	}
	if s.clock != nil {
		opts = append(opts, session.WithClock(s.clock))
	}
	sess := session.New(cfg.Name, d, opts...)

	if _, err := ConfigureSession(sess, cfg); err != nil {
		result.FailedStage = StageConfigure
		finish(BuildStatusFailed)
		s.buildFailed(ctx, logger, cfg.Name, result, err)
		return result, err
	}

	builder := project.NewBuilder(sess, result.Paths, s.runner, project.Options{
		ZephyrBase: cfg.Zephyr.ZephyrBase,
		Sources:    cfg.Sources,
		Pristine:   toolchain.Pristine(cfg.Zephyr.Pristine),
		CMakeArgs:  cfg.Zephyr.CMakeArgs,
		Recorder:   s.recorder,
		OnStage: func(stage string, elapsed time.Duration, err error) {
			if err != nil {
				result.FailedStage = stage
				return
			}
			s.emit(ctx, logger, func() (eventstore.Record, error) {
				return eventstore.NewStageCompleted(result.RunID, stage, elapsed)
			})
		},
	})

	if err := builder.Run(ctx); err != nil {
		status := BuildStatusFailed
		if ctx.Err() != nil {
			status = BuildStatusCancelled
		}
		finish(status)
		s.buildFailed(ctx, logger, cfg.Name, result, err)
		return result, err
	}

	result.MCUbootRevision = builder.MCUbootRevision()
	result.Artifacts = map[string]string{
		"application":           result.Paths.AppSignedBin(),
		"application_confirmed": result.Paths.AppSignedConfirmedBin(),
		"bootloader":            result.Paths.BootHex(),
	}
	finish(BuildStatusSuccess)
	logger.Info("Build completed", logfields.Board(d.Name), logfields.DurationMS(float64(result.Duration.Milliseconds())))

	s.emit(ctx, logger, func() (eventstore.Record, error) {
		return eventstore.NewBuildCompleted(result.RunID, result.MCUbootRevision, result.Artifacts)
	})
	s.notify(ctx, logger, notify.Notification{
		RunID:   result.RunID,
		Kind:    eventstore.RunKindCompile,
		Project: cfg.Name,
		Board:   d.Name,
		Status:  eventstore.RunStatusCompleted,
	})
	return result, nil
}

func (s *DefaultService) buildFailed(ctx context.Context, logger *slog.Logger, name string, result *BuildResult, cause error) {
	code := exitCode(cause)
	logger.Error("Build failed", logfields.Stage(result.FailedStage), logfields.Error(cause), logfields.ExitCode(code))
	s.emit(ctx, logger, func() (eventstore.Record, error) {
		return eventstore.NewBuildFailed(result.RunID, result.FailedStage, cause, code)
	})
	s.notify(ctx, logger, notify.Notification{
		RunID:   result.RunID,
		Kind:    eventstore.RunKindCompile,
		Project: name,
		Board:   result.Board,
		Status:  eventstore.RunStatusFailed,
		Error:   cause.Error(),
	})
}

// Deploy uploads the images built for req.Config.
func (s *DefaultService) Deploy(ctx context.Context, req DeployRequest) (*DeployResult, error) {
	start := time.Now()
	result := &DeployResult{RunID: runID(req.RunID), StartTime: start}

	cfg := req.Config
	if cfg == nil {
		return result, ferrors.ConfigError("config required").Build()
	}
	d, err := board.Lookup(cfg.Zephyr.Board)
	if err != nil {
		return result, err
	}
	logger := s.logger.With(logfields.SessionID(result.RunID), logfields.Project(cfg.Name))

	target := req.Target
	if target == "" {
		target = cfg.Upload.Device
	}

	dep := s.deployer(d, cfg, logger)
	result.Strategy = dep.Select(target)
	s.emit(ctx, logger, func() (eventstore.Record, error) {
		return eventstore.NewDeployStarted(result.RunID, eventstore.DeployStartedMeta{
			Project:  cfg.Name,
			Board:    d.Name,
			Strategy: string(result.Strategy),
			Target:   target,
		})
	})

	res, err := dep.Deploy(ctx, target)
	result.Status = res.Status
	result.Address = res.Address
	result.Duration = time.Since(start)

	n := notify.Notification{
		RunID:    result.RunID,
		Kind:     eventstore.RunKindUpload,
		Project:  cfg.Name,
		Board:    d.Name,
		Strategy: string(result.Strategy),
		Address:  res.Address,
	}
	if req.RunID != "" {
		n.Kind = eventstore.RunKindRun
	}

	if err != nil && !errors.Is(err, deploy.ErrAwaitingReset) {
		code := exitCode(err)
		s.emit(ctx, logger, func() (eventstore.Record, error) {
			return eventstore.NewDeployFailed(result.RunID, string(result.Strategy), err, code)
		})
		n.Status, n.Error = eventstore.RunStatusFailed, err.Error()
		s.notify(ctx, logger, n)
		return result, err
	}

	s.emit(ctx, logger, func() (eventstore.Record, error) {
		return eventstore.NewDeployCompleted(result.RunID, string(result.Strategy), string(res.Status), res.Address)
	})
	n.Status = string(res.Status)
	s.notify(ctx, logger, n)
	return result, err
}

// ForgetBootloader removes the bootloader sentinel for cfg's project.
func (s *DefaultService) ForgetBootloader(cfg *config.Config) error {
	d, err := board.Lookup(cfg.Zephyr.Board)
	if err != nil {
		return err
	}
	return s.deployer(d, cfg, s.logger).Forget()
}

// Run compiles and then uploads under one run id.
func (s *DefaultService) Run(ctx context.Context, cfg *config.Config, target string) (*BuildResult, *DeployResult, error) {
	br, err := s.Build(ctx, BuildRequest{Config: cfg})
	if err != nil {
		return br, nil, err
	}
	dr, err := s.Deploy(ctx, DeployRequest{Config: cfg, Target: target, RunID: br.RunID})
	return br, dr, err
}

func (s *DefaultService) deployer(d *board.Descriptor, cfg *config.Config, logger *slog.Logger) *deploy.Deployer {
	resolver := s.resolver
	if resolver == nil {
		resolver = &discovery.MDNSResolver{Window: cfg.Upload.DiscoveryWindow, Logger: logger}
	}
	return deploy.New(d, Paths(cfg), s.runner, deploy.Options{
		Project:     cfg.Name,
		ZephyrBase:  cfg.Zephyr.ZephyrBase,
		FlashArgs:   cfg.Zephyr.FlashArgs,
		Confirm:     cfg.Upload.Confirm,
		SettleDelay: cfg.Upload.SettleDelay,
		Resolver:    resolver,
		Prober:      s.prober,
		Recorder:    s.recorder,
		Logger:      logger,
		Sleep:       s.sleep,
	})
}

// emit appends a run record; history is best effort and never fails a run.
func (s *DefaultService) emit(ctx context.Context, logger *slog.Logger, build func() (eventstore.Record, error)) {
	if s.store == nil {
		return
	}
	rec, err := build()
	if err == nil {
		err = s.store.Append(ctx, rec)
	}
	if err != nil {
		logger.Warn("Failed to record run history", logfields.Error(err))
	}
}

func (s *DefaultService) notify(ctx context.Context, logger *slog.Logger, n notify.Notification) {
	if err := s.publisher.Publish(ctx, n); err != nil {
		logger.Warn("Failed to publish notification", logfields.Error(err))
	}
}

func runID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func exitCode(err error) int {
	return ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err)
}

// sourceRevision describes the user sources, or the directory holding the
// config file, when it is a git checkout.
func sourceRevision(cfg *config.Config) string {
	if cfg.Sources != "" {
		if rev := git.Describe(cfg.Sources); rev != "" {
			return rev
		}
	}
	if cfg.Path() != "" {
		return git.Describe(filepath.Dir(cfg.Path()))
	}
	return ""
}
