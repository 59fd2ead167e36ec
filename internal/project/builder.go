// Package project lays out a Zephyr application and its mcuboot bootloader
// on disk and drives both image builds.
package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/zephyrforge/internal/board"
	ferrors "git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
	"git.home.luguber.info/inful/zephyrforge/internal/git"
	"git.home.luguber.info/inful/zephyrforge/internal/logfields"
	"git.home.luguber.info/inful/zephyrforge/internal/metrics"
	"git.home.luguber.info/inful/zephyrforge/internal/session"
	"git.home.luguber.info/inful/zephyrforge/internal/toolchain"
)

// State is the builder lifecycle position.
type State string

const (
	StateInit      State = "init"
	StateKeyReady  State = "key_ready"
	StateLaidOut   State = "laid_out"
	StateBuiltApp  State = "built_app"
	StateBuiltBoth State = "built_both"
	StateFailed    State = "failed"
)

// Stage names used for metrics and logs.
const (
	StageSigningKey  = "signing_key"
	StageLayout      = "layout"
	StageApplication = "build_application"
	StageBootloader  = "build_bootloader"
)

// Options configures a Builder.
type Options struct {
	// ZephyrBase is the west workspace holding zephyr/ and bootloader/mcuboot.
	ZephyrBase string
	// Sources is an optional directory copied into the project src/ tree.
	Sources  string
	Pristine toolchain.Pristine
	// CMakeArgs are extra application CMake definitions.
	CMakeArgs []string
	Recorder  metrics.Recorder
	// OnStage, when set, observes every stage outcome.
	OnStage func(stage string, elapsed time.Duration, err error)
}

// Builder turns a session into a buildable project and runs the builds.
// It is single-use and not safe for concurrent use.
type Builder struct {
	sess   *session.Session
	paths  Paths
	runner toolchain.Runner
	opts   Options
	logger *slog.Logger

	state           State
	mcubootRevision string
}

// NewBuilder prepares a builder in StateInit.
func NewBuilder(sess *session.Session, paths Paths, runner toolchain.Runner, opts Options) *Builder {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Builder{
		sess:   sess,
		paths:  paths,
		runner: runner,
		opts:   opts,
		logger: sess.Logger().With(logfields.Project(sess.Project)),
		state:  StateInit,
	}
}

func (b *Builder) State() State { return b.state }
func (b *Builder) Paths() Paths { return b.paths }

// MCUbootRevision is the revision of the copied mcuboot tree, empty when
// the source is not a git checkout.
func (b *Builder) MCUbootRevision() string { return b.mcubootRevision }

// Run performs every stage in order: signing key, layout, application build,
// bootloader build. The bootloader is rebuilt on every run. Files written
// before a failure are left in place.
func (b *Builder) Run(ctx context.Context) error {
	steps := []func(context.Context) error{
		b.EnsureSigningKey,
		b.LayoutProject,
		b.BuildApplication,
		b.BuildBootloader,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// EnsureSigningKey generates the image signing key unless it already exists.
// An existing key is never regenerated; a new one is made read-only. Once the
// builder holds a key, further calls do nothing.
func (b *Builder) EnsureSigningKey(ctx context.Context) error {
	if b.hasKey() {
		return nil
	}
	return b.stage(StageSigningKey, StateInit, StateKeyReady, func() error {
		key := b.paths.KeyFile
		_, err := os.Stat(key)
		if err == nil {
			b.logger.Debug("Signing key present", logfields.Path(key))
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot stat signing key").
				WithContext("path", key).Build()
		}
		if err := os.MkdirAll(filepath.Dir(key), 0o750); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot create build path").Build()
		}

		b.logger.Info("Generating signing key", logfields.Path(key))
		if err := b.runner.Run(ctx, toolchain.ImgtoolKeygen(key)); err != nil {
			return &KeyGenerationError{KeyFile: key, Err: err}
		}
		if err := os.Chmod(key, 0o444); err != nil {
			return &KeyGenerationError{KeyFile: key, Err: err}
		}
		return nil
	})
}

// LayoutProject writes the application project and the bootloader tree.
func (b *Builder) LayoutProject(_ context.Context) error {
	return b.stage(StageLayout, StateKeyReady, StateLaidOut, func() error {
		for _, dir := range []string{b.paths.ProjectDir, b.paths.SourceDir, b.paths.BootDir} {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fsError(err, "create directory", dir)
			}
		}

		src := filepath.Join(b.opts.ZephyrBase, "bootloader", "mcuboot")
		if _, err := os.Stat(src); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "mcuboot sources not found in zephyr base").
				WithContext("path", src).Build()
		}
		if err := copyTree(src, b.paths.MCUbootDir, skipGit); err != nil {
			return fsError(err, "copy mcuboot", src)
		}
		b.mcubootRevision = git.Describe(src)
		b.logger.Debug("Copied mcuboot", logfields.Path(b.paths.MCUbootDir), logfields.Revision(b.mcubootRevision))

		if b.opts.Sources != "" {
			if err := copyTree(b.opts.Sources, b.paths.SourceDir, skipGit); err != nil {
				return fsError(err, "copy sources", b.opts.Sources)
			}
		}

		b.sess.SetOptions([]session.KV{
			{Key: "CONFIG_BOOTLOADER_MCUBOOT", Value: true},
			{Key: "CONFIG_MCUBOOT_SIGNATURE_KEY_FILE", Value: session.Quote(b.paths.KeyFile)},
		})

		files := []struct {
			path    string
			content string
		}{
			{filepath.Join(b.paths.ProjectDir, "CMakeLists.txt"), cmakeLists(b.sess.Project)},
			{filepath.Join(b.paths.ProjectDir, "prj.conf"), b.sess.Options().Render()},
			{filepath.Join(b.paths.ProjectDir, "app.overlay"), b.sess.ApplicationOverlay()},
			{filepath.Join(b.paths.BootSourceDir, "dts.overlay"), b.sess.BootloaderOverlay()},
		}
		for _, f := range files {
			if err := writeFile(f.path, f.content); err != nil {
				return err
			}
		}
		return b.writeMain()
	})
}

func (b *Builder) writeMain() error {
	path := b.paths.MainSource()
	existing, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		existing = []byte(DefaultMainSource)
	case err != nil:
		return fsError(err, "read main source", path)
	}
	out := b.sess.Board.EmitMainEntrypoint(string(existing), board.EntrypointOptions{OTA: b.sess.OTAEnabled()})
	return writeFile(path, out)
}

// BuildApplication compiles the application image.
func (b *Builder) BuildApplication(ctx context.Context) error {
	return b.stage(StageApplication, StateLaidOut, StateBuiltApp, func() error {
		args := b.sess.Board.PreCompileApplicationArgs(b.opts.CMakeArgs)
		cmd := toolchain.WestBuild(b.sess.Board.Name, b.paths.ProjectDir, b.paths.AppBuildDir, b.opts.Pristine, args)
		return b.runner.Run(ctx, cmd.InWorkspace(b.opts.ZephyrBase))
	})
}

// BuildBootloader compiles mcuboot with the project signing key.
func (b *Builder) BuildBootloader(ctx context.Context) error {
	return b.stage(StageBootloader, StateBuiltApp, StateBuiltBoth, func() error {
		args := b.sess.Board.PreCompileBootloaderArgs([]string{
			fmt.Sprintf("-DCONFIG_BOOT_SIGNATURE_KEY_FILE=%q", b.paths.KeyFile),
		})
		cmd := toolchain.WestBuild(b.sess.Board.Name, b.paths.BootSourceDir, b.paths.BootBuildDir, b.opts.Pristine, args)
		return b.runner.Run(ctx, cmd.InWorkspace(b.opts.ZephyrBase))
	})
}

func (b *Builder) hasKey() bool {
	switch b.state {
	case StateKeyReady, StateLaidOut, StateBuiltApp, StateBuiltBoth:
		return true
	}
	return false
}

func (b *Builder) stage(name string, from, to State, fn func() error) error {
	if b.state != from {
		return &TransitionError{Op: name, State: b.state, Want: from}
	}
	logger := b.logger.With(logfields.Stage(name))
	logger.Info("Stage started")

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	b.opts.Recorder.ObserveStageDuration(name, elapsed)
	if b.opts.OnStage != nil {
		b.opts.OnStage(name, elapsed, err)
	}

	if err != nil {
		b.state = StateFailed
		b.opts.Recorder.IncStageResult(name, metrics.ResultFailed)
		logger.Error("Stage failed", logfields.Error(err))
		return err
	}
	b.state = to
	b.opts.Recorder.IncStageResult(name, metrics.ResultSuccess)
	logger.Info("Stage completed", logfields.DurationMS(float64(elapsed.Milliseconds())))
	return nil
}

func fsError(err error, op, path string) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, op+" failed").WithContext("path", path).Build()
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fsError(err, "create directory", filepath.Dir(path))
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fsError(err, "write file", path)
	}
	return nil
}
