package util

import (
	"fmt"
	"os"
)

// Process exit codes
const (
	// ExitInvalidInput indicates invalid flags or configuration
	ExitInvalidInput = 2

	// ExitRuntimeError indicates I/O errors, API failures, or runtime issues
	ExitRuntimeError = 3
)

// ExitWithError prints an error message to stderr and exits with the given code
func ExitWithError(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
