package process

import (
	"fmt"
	"time"
)

// Invocation describes a single run of the binary.
type Invocation struct {
	// Args is the argument vector, not including the binary itself.
	Args []string

	// Dir is the working directory for the child process.
	Dir string

	// Stdin, when non-empty, is written to the child's standard input.
	Stdin string

	// Env holds extra KEY=value entries appended after the executor's
	// base environment, so they win for keys they name.
	Env []string

	// Timeout overrides the executor's default timeout when positive.
	Timeout time.Duration
}

// Result holds the captured outcome of a completed invocation.
// ExitCode is -1 when the process was terminated by cancellation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// SpawnError reports that the binary could not be located or launched,
// as opposed to a command that ran and exited non-zero.
type SpawnError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying launch error.
func (e *SpawnError) Unwrap() error {
	return e.Err
}
