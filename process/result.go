package process

import (
	"strings"
	"time"
)

// Result is what a finished process left behind.
type Result struct {
	// Stdout is everything the process wrote to standard output.
	Stdout []byte
	// Stderr is everything the process wrote to standard error.
	Stderr []byte
	// ExitCode is the exit status, -1 when the process died from a signal.
	ExitCode int
	// Duration is the wall time from start to exit.
	Duration time.Duration
}

// StdoutText returns stdout as a string.
func (r *Result) StdoutText() string {
	if r == nil {
		return ""
	}
	return string(r.Stdout)
}

// StderrText returns stderr with surrounding whitespace removed.
func (r *Result) StderrText() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Stderr))
}
