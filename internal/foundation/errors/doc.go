// Package errors classifies failures for the bus, the timer and the CLI.
//
// Every ClassifiedError has a category. The category picks the default
// severity, the retry hint and the exit code reported by CLIErrorAdapter.
//
//	err := errors.StorageError("slot write failed").
//		WithCause(cause).
//		WithContext("key", "suite.tasks").
//		Build()
package errors
