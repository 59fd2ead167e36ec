// Package errors classifies zephyrforge failures so the CLI can pick an exit
// code and tell the operator what to do next.
//
// A ClassifiedError carries a category, a severity, structured context and an
// optional hint. Domain error types in other packages (unknown pins, missing
// tools) take part by implementing Categorized, ExitCoder or Hinter.
//
//	err := errors.PreconditionError("bootloader not installed").
//		WithContext("sentinel", path).
//		WithHint("upload once over USB first").
//		Build()
package errors
