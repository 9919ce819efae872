package process

import (
	"io"
	"strings"
	"time"
)

// DefaultGracePeriod is the wait between SIGTERM and SIGKILL when a
// Command does not set its own.
const DefaultGracePeriod = 5 * time.Second

// Command describes one external program invocation: a recognizer, a
// format probe, or a transcoder.
type Command struct {
	// Binary is the executable path or a name resolved via PATH.
	Binary string
	// Args are passed verbatim, without shell interpretation.
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env holds extra key=value pairs appended to the parent environment.
	Env []string
	// Stdin feeds the process. May be nil.
	Stdin io.Reader
	// GracePeriod is how long a canceled process gets after SIGTERM before
	// the whole process group is killed.
	GracePeriod time.Duration
	// OnStart, when set, is called with the pid once the process is running.
	OnStart func(pid int)
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Args, " ")
}

func (c Command) gracePeriod() time.Duration {
	if c.GracePeriod > 0 {
		return c.GracePeriod
	}
	return DefaultGracePeriod
}
