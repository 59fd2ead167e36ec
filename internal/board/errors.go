package board

import (
	"errors"
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrUnknownBoard          = errors.New("unknown board")
	ErrDuplicateBoard        = errors.New("board already registered")
	ErrUnknownPin            = errors.New("unknown pin")
	ErrUnsupportedAnalogPin  = errors.New("unsupported analog pin")
	ErrUnsupportedBusParam   = errors.New("unsupported bus parameter")
	ErrUnsupportedCapability = errors.New("unsupported capability")
)

// UnknownPinError reports a pin name that is not part of the board's pin map.
type UnknownPinError struct {
	Board string
	Pin   string
	Known []string
}

func (e *UnknownPinError) Error() string {
	return fmt.Sprintf("board %s: cannot handle pin %q, must be one of [%s]", e.Board, e.Pin, strings.Join(e.Known, " "))
}
func (e *UnknownPinError) Is(target error) bool            { return target == ErrUnknownPin }
func (e *UnknownPinError) Category() ferrors.ErrorCategory { return ferrors.CategoryBoard }

// UnsupportedAnalogPinError reports a pin that has no analog channel.
type UnsupportedAnalogPinError struct {
	Board string
	Pin   string
	Known []string
}

func (e *UnsupportedAnalogPinError) Error() string {
	return fmt.Sprintf("board %s: %q cannot be used as ADC input, must be one of [%s]", e.Board, e.Pin, strings.Join(e.Known, " "))
}
func (e *UnsupportedAnalogPinError) Is(target error) bool            { return target == ErrUnsupportedAnalogPin }
func (e *UnsupportedAnalogPinError) Category() ferrors.ErrorCategory { return ferrors.CategoryBoard }

// UnsupportedBusParameterError reports a bus parameter outside the board whitelist.
type UnsupportedBusParameterError struct {
	Board     string
	Bus       BusKind
	Parameter string
	Value     string
	Allowed   []string
}

func (e *UnsupportedBusParameterError) Error() string {
	msg := fmt.Sprintf("board %s: %s %s %s is not supported", e.Board, e.Bus, e.Parameter, e.Value)
	if len(e.Allowed) > 0 {
		msg += fmt.Sprintf(" (allowed: %s)", strings.Join(e.Allowed, ", "))
	}
	return msg
}
func (e *UnsupportedBusParameterError) Is(target error) bool            { return target == ErrUnsupportedBusParam }
func (e *UnsupportedBusParameterError) Category() ferrors.ErrorCategory { return ferrors.CategoryBoard }

// UnsupportedCapabilityError reports a component the board cannot host (e.g. OpenThread).
type UnsupportedCapabilityError struct {
	Board      string
	Capability string
}

func (e *UnsupportedCapabilityError) Error() string {
	return fmt.Sprintf("board %s cannot use %s", e.Board, e.Capability)
}
func (e *UnsupportedCapabilityError) Is(target error) bool            { return target == ErrUnsupportedCapability }
func (e *UnsupportedCapabilityError) Category() ferrors.ErrorCategory { return ferrors.CategoryBoard }

// UnknownBoardError reports a lookup of a name that was never registered.
type UnknownBoardError struct {
	Name  string
	Known []string
}

func (e *UnknownBoardError) Error() string {
	return fmt.Sprintf("%q does not appear to be a defined Zephyr board [%s]", e.Name, strings.Join(e.Known, " "))
}
func (e *UnknownBoardError) Is(target error) bool            { return target == ErrUnknownBoard }
func (e *UnknownBoardError) Category() ferrors.ErrorCategory { return ferrors.CategoryConfig }
func (e *UnknownBoardError) Hint() string                    { return "zephyrforge boards lists the supported boards" }
