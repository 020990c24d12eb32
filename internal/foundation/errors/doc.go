// Package errors provides the classified error primitives used across docpartials.
//
// Every failure raised by the partial pipeline is a ClassifiedError. The category
// identifies which step failed (compilation, execution, render, injection) and the
// context map always carries the originating partial path so diagnostics can point
// at the offending source file.
//
// Example usage:
//
//	err := errors.ExecutionFailure("partial module evaluation failed").
//		WithCause(evalErr).
//		WithPartial(path, id).
//		Build()
package errors
