package deploy

import (
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
)

// ErrAwaitingReset ends the first detachable-USB phase: the bootloader is
// installed and the operator must replug the dongle in bootloader mode
// before uploading again.
var ErrAwaitingReset = ferrors.UserActionRequired(
	"Bootloader installed, unplug the device, plug it back in with the software button held down, and re-run upload",
).Build()

// PreconditionError reports a deploy that cannot start in the current
// device state.
type PreconditionError struct {
	Strategy Strategy
	Reason   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot use %s upload: %s", e.Strategy, e.Reason)
}

func (e *PreconditionError) Category() ferrors.ErrorCategory { return ferrors.CategoryPrecondition }

func (e *PreconditionError) Hint() string {
	if e.Strategy == StrategyNetwork {
		return "upload once with --device set to a serial port or debug probe to install the bootloader"
	}
	return ""
}

// MissingToolError reports required tools absent from PATH.
type MissingToolError struct {
	Board string
	Tools []string
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("%s must be installed to upload to %s", strings.Join(e.Tools, " and "), e.Board)
}

func (e *MissingToolError) Category() ferrors.ErrorCategory { return ferrors.CategoryPrecondition }

var toolInstallHints = map[string]string{
	"nrfutil": "pip install nrfutil",
	"mcumgr":  "go install github.com/apache/mynewt-mcumgr-cli/mcumgr@latest",
}

func (e *MissingToolError) Hint() string {
	hints := make([]string, 0, len(e.Tools))
	for _, tool := range e.Tools {
		if h, ok := toolInstallHints[tool]; ok {
			hints = append(hints, h)
		}
	}
	return strings.Join(hints, "; ")
}
