package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
	"git.home.luguber.info/inful/zephyrforge/internal/logfields"
	"git.home.luguber.info/inful/zephyrforge/internal/metrics"
)

// Command is one external tool invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env entries (KEY=VALUE) are added on top of the process environment.
	Env []string
}

// String renders the command line for logs and fake matching.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner executes commands.
//
// Run streams the tool's output to the operator. Output captures stdout for
// commands whose result is parsed (mcumgr image list). Both return
// *ExitError when the tool exits non-zero.
type Runner interface {
	Run(ctx context.Context, c Command) error
	Output(ctx context.Context, c Command) ([]byte, error)
	LookPath(name string) (string, error)
}

// ExitError reports a tool that ran and exited with a non-zero status. The
// code is surfaced to the CLI exit status unchanged.
type ExitError struct {
	Tool string
	Args []string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", Command{Name: e.Tool, Args: e.Args}, e.Code)
}

func (e *ExitError) ExitCode() int                   { return e.Code }
func (e *ExitError) Category() ferrors.ErrorCategory { return ferrors.CategoryToolchain }

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Stdout   io.Writer
	Stderr   io.Writer
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// NewExecRunner returns a runner attached to the process stdout/stderr.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Recorder: metrics.NoopRecorder{},
		Logger:   slog.Default(),
	}
}

// WithRecorder sets the metrics recorder for tool durations.
func (r *ExecRunner) WithRecorder(rec metrics.Recorder) *ExecRunner {
	if rec != nil {
		r.Recorder = rec
	}
	return r
}

func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := r.command(ctx, c)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return r.execute(ctx, c, cmd)
}

func (r *ExecRunner) Output(ctx context.Context, c Command) ([]byte, error) {
	var stdout bytes.Buffer
	cmd := r.command(ctx, c)
	cmd.Stdout = &stdout
	cmd.Stderr = r.Stderr
	err := r.execute(ctx, c, cmd)
	return stdout.Bytes(), err
}

func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (r *ExecRunner) command(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd
}

func (r *ExecRunner) execute(ctx context.Context, c Command, cmd *exec.Cmd) error {
	logger := r.logger().With(logfields.Tool(c.Name))
	logger.Debug("Running tool", slog.String("command", c.String()), logfields.Path(c.Dir))

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	code := 0
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		code = -1
		err = fmt.Errorf("%s interrupted: %w", c.Name, ctx.Err())
	case errors.As(err, &exitErr):
		code = exitErr.ExitCode()
		err = &ExitError{Tool: c.Name, Args: c.Args, Code: code}
	default:
		code = -1
		err = ferrors.WrapError(err, ferrors.CategoryToolchain, "failed to start "+c.Name).
			WithContext("command", c.String()).
			Build()
	}
	r.recorder().ObserveToolDuration(c.Name, elapsed, code)

	if err != nil {
		logger.Debug("Tool failed", logfields.ExitCode(code), logfields.DurationMS(float64(elapsed.Milliseconds())), logfields.Error(err))
		return err
	}
	logger.Debug("Tool finished", logfields.DurationMS(float64(elapsed.Milliseconds())))
	return nil
}

func (r *ExecRunner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *ExecRunner) recorder() metrics.Recorder {
	if r.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return r.Recorder
}

// InWorkspace runs c from the west workspace root with ZEPHYR_BASE pointing
// at its zephyr tree.
func (c Command) InWorkspace(base string) Command {
	c.Dir = base
	c.Env = append(slices.Clone(c.Env), "ZEPHYR_BASE="+filepath.Join(base, "zephyr"))
	return c
}
