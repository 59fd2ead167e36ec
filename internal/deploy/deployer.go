// Package deploy uploads built images to a device. Local targets use the
// board's uploader (a debug probe through west, or the dongle's USB DFU
// then mcumgr over serial); remote targets use mcumgr over UDP.
//
// Whether the bootloader has been installed is tracked by a sentinel file
// next to the project. The sentinel is trusted as is; Forget removes it when
// the device was erased or replaced.
package deploy

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/zephyrforge/internal/board"
	"git.home.luguber.info/inful/zephyrforge/internal/discovery"
	ferrors "git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
	"git.home.luguber.info/inful/zephyrforge/internal/logfields"
	"git.home.luguber.info/inful/zephyrforge/internal/metrics"
	"git.home.luguber.info/inful/zephyrforge/internal/project"
	"git.home.luguber.info/inful/zephyrforge/internal/toolchain"
	"git.home.luguber.info/inful/zephyrforge/internal/usbprobe"
)

// Strategy is the upload path chosen for a target.
type Strategy string

const (
	StrategyWired   Strategy = "wired"
	StrategyUSB     Strategy = "usb"
	StrategyNetwork Strategy = "network"
)

// Status is the deploy outcome.
type Status string

const (
	StatusCompleted     Status = "completed"
	StatusAwaitingReset Status = "awaiting_reset"
	statusFailed        Status = "failed"
)

// DefaultSettleDelay is the pause between flashing the bootloader and the
// application over a probe.
const DefaultSettleDelay = 2 * time.Second

// Result describes a finished (or paused) deploy.
type Result struct {
	Strategy Strategy
	Status   Status
	// Address is the device path or network address used.
	Address string
}

// Options configures a Deployer.
type Options struct {
	// Project is the device name used for network discovery.
	Project    string
	ZephyrBase string
	// FlashArgs is the west flash argument template; SERIAL_DEVICE and
	// BUILD_DIR are substituted.
	FlashArgs string
	// Confirm marks the uploaded image permanent before reset on network
	// uploads.
	Confirm     bool
	SettleDelay time.Duration

	Resolver discovery.Resolver
	Prober   usbprobe.Prober
	Recorder metrics.Recorder
	Logger   *slog.Logger
	// Sleep waits for d or until ctx ends; a timer when nil.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Deployer runs uploads for one project.
type Deployer struct {
	board  *board.Descriptor
	paths  project.Paths
	runner toolchain.Runner
	opts   Options
	logger *slog.Logger
}

// New returns a deployer for the project at paths built for d.
func New(d *board.Descriptor, paths project.Paths, runner toolchain.Runner, opts Options) *Deployer {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.Resolver == nil {
		opts.Resolver = &discovery.MDNSResolver{Logger: opts.Logger}
	}
	return &Deployer{
		board:  d,
		paths:  paths,
		runner: runner,
		opts:   opts,
		logger: opts.Logger.With(logfields.Board(d.Name), logfields.Project(opts.Project)),
	}
}

// IsLocal reports whether target names a locally attached serial device.
func IsLocal(target string) bool {
	return strings.Contains(target, "/dev") || strings.HasPrefix(strings.ToUpper(target), "COM")
}

// Select picks the strategy for target.
func (d *Deployer) Select(target string) Strategy {
	if !IsLocal(target) {
		return StrategyNetwork
	}
	if d.board.Uploader == board.UploadDetachableUSB {
		return StrategyUSB
	}
	return StrategyWired
}

// BootloaderFlashed reports whether the sentinel exists.
func (d *Deployer) BootloaderFlashed() bool {
	_, err := os.Stat(d.paths.Sentinel)
	return err == nil
}

// Forget removes the sentinel so the next local upload installs the
// bootloader again.
func (d *Deployer) Forget() error {
	err := os.Remove(d.paths.Sentinel)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove bootloader sentinel").
			WithContext("path", d.paths.Sentinel).Build()
	}
	d.logger.Info("Bootloader sentinel removed", logfields.Path(d.paths.Sentinel))
	return nil
}

// Deploy uploads to target. A USB upload that just installed the
// bootloader returns StatusAwaitingReset together with ErrAwaitingReset.
func (d *Deployer) Deploy(ctx context.Context, target string) (Result, error) {
	strategy := d.Select(target)
	logger := d.logger.With(logfields.Strategy(string(strategy)))
	logger.Info("Starting upload", logfields.Device(target))

	var (
		res Result
		err error
	)
	switch strategy {
	case StrategyWired:
		res, err = d.deployWired(ctx, target)
	case StrategyUSB:
		res, err = d.deployUSB(ctx, target)
	default:
		res, err = d.deployNetwork(ctx, target)
	}
	res.Strategy = strategy

	status := res.Status
	if err != nil && !errors.Is(err, ErrAwaitingReset) {
		status = statusFailed
	}
	d.opts.Recorder.IncDeployOutcome(string(strategy), string(status))
	if status != statusFailed {
		logger.Info("Upload finished", slog.String("status", string(status)), logfields.Address(res.Address))
	}
	return res, err
}

func (d *Deployer) deployWired(ctx context.Context, device string) (Result, error) {
	res := Result{Address: device}
	if !d.BootloaderFlashed() {
		d.logger.Info("Flashing bootloader")
		args := FlashArgs(d.opts.FlashArgs, device, d.paths.BootBuildDir, board.ImageBootloader)
		if err := d.run(ctx, toolchain.WestFlash(d.paths.BootBuildDir, args).InWorkspace(d.opts.ZephyrBase)); err != nil {
			return res, err
		}
		if err := d.markFlashed(); err != nil {
			return res, err
		}
		if err := d.opts.Sleep(ctx, d.opts.SettleDelay); err != nil {
			return res, err
		}
	}

	d.logger.Info("Flashing application")
	args := FlashArgs(d.opts.FlashArgs, device, d.paths.AppBuildDir, board.ImageApplication)
	if err := d.run(ctx, toolchain.WestFlash(d.paths.AppBuildDir, args).InWorkspace(d.opts.ZephyrBase)); err != nil {
		return res, err
	}
	res.Status = StatusCompleted
	return res, nil
}

func (d *Deployer) deployUSB(ctx context.Context, device string) (Result, error) {
	res := Result{Address: device}
	var missing []string
	for _, tool := range []string{"mcumgr", "nrfutil"} {
		if _, err := d.runner.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return res, &MissingToolError{Board: d.board.Name, Tools: missing}
	}

	if !d.BootloaderFlashed() {
		d.hintDFUMode(ctx)
		d.logger.Info("Installing bootloader over USB DFU")
		if err := d.run(ctx, toolchain.NrfutilPkgGenerate(d.paths.BootHex(), d.paths.BootPackage())); err != nil {
			d.logger.Error("Creating boot image failed")
			return res, err
		}
		if err := d.run(ctx, toolchain.NrfutilDFU(d.paths.BootPackage(), device)); err != nil {
			d.logger.Error("Uploading boot image failed, is the device in reset mode?")
			return res, err
		}
		if err := d.markFlashed(); err != nil {
			return res, err
		}
		res.Status = StatusAwaitingReset
		return res, ErrAwaitingReset
	}

	d.logger.Info("Flashing application")
	if err := d.run(ctx, toolchain.SerialMCUMgr(device, 512).ImageUpload(d.paths.AppSignedBin())); err != nil {
		d.logger.Error("Failed to upload image, is the board in boot mode?")
		return res, err
	}
	if err := d.run(ctx, toolchain.SerialMCUMgr(device, 0).Reset()); err != nil {
		d.logger.Error("Failed to restart device through serial connection")
		return res, err
	}
	res.Status = StatusCompleted
	return res, nil
}

func (d *Deployer) deployNetwork(ctx context.Context, address string) (Result, error) {
	if !d.BootloaderFlashed() {
		return Result{Address: address}, &PreconditionError{
			Strategy: StrategyNetwork,
			Reason:   "the bootloader was not previously flashed over a local connection",
		}
	}

	if address == "" {
		addr, err := d.opts.Resolver.Resolve(ctx, d.opts.Project)
		if err != nil {
			return Result{}, err
		}
		address = addr.String()
	}
	res := Result{Address: address}
	mgr := toolchain.UDPMCUMgr(address)

	if err := d.run(ctx, mgr.ImageUpload(d.paths.AppSignedConfirmedBin())); err != nil {
		return res, err
	}
	if d.opts.Confirm {
		if err := d.confirm(ctx, mgr); err != nil {
			return res, err
		}
	}
	if err := d.run(ctx, mgr.Reset()); err != nil {
		return res, err
	}
	res.Status = StatusCompleted
	return res, nil
}

// confirm marks the most recently listed image permanent.
func (d *Deployer) confirm(ctx context.Context, mgr toolchain.MCUMgr) error {
	out, err := d.runner.Output(ctx, mgr.ImageList())
	if err != nil {
		return err
	}
	hashes := toolchain.ParseImageHashes(out)
	if len(hashes) == 0 {
		return ferrors.ToolchainError("mcumgr image list reported no images").Build()
	}
	return d.run(ctx, mgr.ImageConfirm(hashes[len(hashes)-1]))
}

func (d *Deployer) hintDFUMode(ctx context.Context) {
	if d.opts.Prober == nil {
		return
	}
	devices, err := d.opts.Prober.Probe(ctx)
	if err != nil {
		d.logger.Debug("USB probe failed", logfields.Error(err))
		return
	}
	if dev, ok := usbprobe.FirstInMode(devices, usbprobe.ModeNordicDFU); ok {
		d.logger.Debug("Dongle in DFU mode", slog.String("usb", dev.String()))
		return
	}
	d.logger.Warn("No dongle in DFU mode detected; press the reset button so the red LED pulses")
}

func (d *Deployer) run(ctx context.Context, c toolchain.Command) error {
	return d.runner.Run(ctx, c)
}

func (d *Deployer) markFlashed() error {
	if err := os.MkdirAll(filepath.Dir(d.paths.Sentinel), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create build path").Build()
	}
	if err := os.WriteFile(d.paths.Sentinel, nil, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write bootloader sentinel").
			WithContext("path", d.paths.Sentinel).Build()
	}
	return nil
}

// FlashArgs expands the west flash template for one image. The bootloader
// is flashed unsigned; the application as its signed, confirmed hex.
func FlashArgs(template, device, buildDir string, image board.Image) []string {
	s := strings.ReplaceAll(template, "SERIAL_DEVICE", device)
	s = strings.ReplaceAll(s, "BUILD_DIR", buildDir)
	if image == board.ImageBootloader {
		s = strings.ReplaceAll(s, ".signed", "")
	} else {
		s = strings.ReplaceAll(s, "zephyr.hex", "zephyr.signed.confirmed.hex")
	}
	return strings.Fields(s)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
