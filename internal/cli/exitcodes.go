// Package cli provides shared utilities for skyfind CLI tools.
package cli

// Standard exit codes for skyfind CLI tools.
//
// These follow Unix conventions:
//   - 0: Success
//   - 1: General error (parse failures, runtime errors, etc.)
//   - 2: Warnings or partial results (ambiguous candidates, file found
//     but definition not positioned, etc.)
const (
	// ExitOK indicates successful execution with no issues.
	ExitOK = 0

	// ExitError indicates a fatal error occurred (resolution failure, I/O error, etc.).
	ExitError = 1

	// ExitWarning indicates the tool completed with a partial answer.
	// For example:
	//   - a module name matched several candidates and needs -select
	//   - a symbol's file resolved but the defining line was not found
	ExitWarning = 2
)
