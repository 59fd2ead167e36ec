package project

import (
	"fmt"

	ferrors "git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
)

// TransitionError reports a builder operation called out of order.
type TransitionError struct {
	Op    string
	State State
	Want  State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("project: %s requires state %s, builder is %s", e.Op, e.Want, e.State)
}

func (e *TransitionError) Category() ferrors.ErrorCategory { return ferrors.CategoryInternal }

// KeyGenerationError reports a failed imgtool keygen run.
type KeyGenerationError struct {
	KeyFile string
	Err     error
}

func (e *KeyGenerationError) Error() string {
	return fmt.Sprintf("problem creating signing key %s: %v", e.KeyFile, e.Err)
}

func (e *KeyGenerationError) Unwrap() error                   { return e.Err }
func (e *KeyGenerationError) Category() ferrors.ErrorCategory { return ferrors.CategoryToolchain }

// ExitCode pins key failures to the build exit status instead of imgtool's.
func (e *KeyGenerationError) ExitCode() int { return ferrors.ExitBuild }
