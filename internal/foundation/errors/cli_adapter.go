package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Exit codes used by the CLI besides the pass-through of tool exit codes.
const (
	ExitGeneral       = 1
	ExitValidation    = 2
	ExitAwaitingReset = 3
	ExitConfig        = 7
	ExitExternal      = 8
	ExitPrecondition  = 9
	ExitInternal      = 10
	ExitBuild         = 11
	ExitRuntime       = 12
)

var categoryExitCodes = map[ErrorCategory]int{
	CategoryValidation:   ExitValidation,
	CategoryConfig:       ExitConfig,
	CategoryBoard:        ExitConfig,
	CategoryUserAction:   ExitAwaitingReset,
	CategoryPrecondition: ExitPrecondition,
	CategoryNetwork:      ExitExternal,
	CategoryBuild:        ExitBuild,
	CategoryToolchain:    ExitBuild,
	CategoryFileSystem:   ExitBuild,
	CategoryEventStore:   ExitRuntime,
	CategoryInternal:     ExitInternal,
}

// CLIErrorAdapter turns a command error into stderr output and a process exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	stderr  io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		stderr:  os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor returns the exit code for err. A non-zero code carried by the
// error (a failed west or nrfutil run) is passed through verbatim; everything
// else maps from the error category. A tool exiting 2, 3, 7 or 9 is therefore
// indistinguishable from the categories above, and a signal-killed tool
// (code -1) exits 255.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	var coder ExitCoder
	if stderrors.As(err, &coder) && coder.ExitCode() != 0 {
		return coder.ExitCode()
	}

	var categorized Categorized
	if stderrors.As(err, &categorized) {
		if code, ok := categoryExitCodes[categorized.Category()]; ok {
			return code
		}
	}
	return ExitGeneral
}

// FormatError renders err for the terminal, followed by a hint line when
// any error in the chain carries one.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	msg := a.formatMessage(err)
	if hint := GetHint(err); hint != "" {
		msg += "\n  hint: " + hint
	}
	return msg
}

func (a *CLIErrorAdapter) formatMessage(err error) string {
	classified, ok := AsClassified(err)
	switch {
	case !ok:
		return fmt.Sprintf("Error: %v", err)
	case a.verbose:
		return classified.Error()
	case classified.Category() == CategoryInternal:
		return "Internal error occurred (use -v for details)"
	case classified.Category() == CategoryUserAction:
		return classified.Message()
	case classified.Cause() != nil:
		return fmt.Sprintf("Error: %s: %v", classified.Message(), classified.Cause())
	default:
		return "Error: " + classified.Message()
	}
}

// HandleError prints err and exits with its code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	if a.shouldLog(err) {
		a.logError(err)
	}
	_, _ = fmt.Fprintln(a.stderr, a.FormatError(err))
	a.exit(exitCode)
}

// shouldLog reports whether err goes to the structured log as well as stderr.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if classified, ok := AsClassified(err); ok {
		return classified.Severity() == SeverityFatal
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err, "category", string(GetCategory(err)))
		return
	}

	attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
	if hint := classified.Hint(); hint != "" {
		attrs = append(attrs, slog.String("hint", hint))
	}
	for k, v := range classified.Context() {
		attrs = append(attrs, slog.Any(k, v))
	}
	a.logger.LogAttrs(context.Background(), levelForSeverity(classified.Severity()), classified.Message(), attrs...)
}

func levelForSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
