package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type exitErr struct{ code int }

func (e exitErr) Error() string           { return fmt.Sprintf("exit status %d", e.code) }
func (e exitErr) ExitCode() int           { return e.code }
func (e exitErr) Category() ErrorCategory { return CategoryToolchain }

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad").Build(), expected: ExitValidation},
		{name: "board", err: boardErr{}, expected: ExitConfig},
		{name: "precondition", err: PreconditionError("no bootloader").Build(), expected: ExitPrecondition},
		{name: "awaiting reset", err: UserActionRequired("reset device").Build(), expected: ExitAwaitingReset},
		{name: "tool exit code passes through", err: fmt.Errorf("west: %w", exitErr{code: 2}), expected: 2},
		{name: "zero tool exit falls back to category", err: exitErr{code: 0}, expected: ExitBuild},
		{name: "tool exit collides with awaiting reset", err: exitErr{code: ExitAwaitingReset}, expected: ExitAwaitingReset},
		{name: "signal-killed tool", err: exitErr{code: -1}, expected: -1},
		{name: "unclassified", err: fmt.Errorf("boom"), expected: ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	assert.Empty(t, adapter.FormatError(nil))
	assert.Equal(t, "Internal error occurred (use -v for details)", adapter.FormatError(InternalError("x").Build()))
	assert.Equal(t, "reset the device", adapter.FormatError(UserActionRequired("reset the device").Build()))
	assert.Equal(t, "Error: bad config", adapter.FormatError(ConfigError("bad config").Build()))
	assert.Equal(t, "Error: unknown", adapter.FormatError(fmt.Errorf("unknown")))
	assert.Equal(t, "Error: unknown pin\n  hint: run zephyrforge boards", adapter.FormatError(boardErr{}))
	assert.Equal(t,
		"Error: configuration file not found\n  hint: run zephyrforge init",
		adapter.FormatError(ConfigError("configuration file not found").WithHint("run zephyrforge init").Build()))
}

func TestCLIErrorAdapter_VerboseShowsClassification(t *testing.T) {
	adapter := NewCLIErrorAdapter(true, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	assert.Equal(t, "[internal:fatal] boom", adapter.FormatError(InternalError("boom").Build()))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var stderr bytes.Buffer
	var code int
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	adapter.stderr = &stderr
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(PreconditionError("bootloader not installed").Build())

	assert.Equal(t, ExitPrecondition, code)
	assert.Contains(t, stderr.String(), "bootloader not installed")
}

func TestCLIErrorAdapter_HandleErrorLogsFatalWithHint(t *testing.T) {
	var logs, stderr bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.stderr = &stderr
	adapter.exit = func(int) {}

	adapter.HandleError(ConfigError("bad board").WithHint("run zephyrforge boards").WithContext("board", "x").Build())

	assert.Contains(t, logs.String(), "hint=\"run zephyrforge boards\"")
	assert.Contains(t, logs.String(), "board=x")
	assert.Contains(t, stderr.String(), "hint: run zephyrforge boards")
}
