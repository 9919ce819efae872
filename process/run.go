package process

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kbukum/speechkit/errors"
)

// Run executes cmd and waits for it to exit, buffering both output streams.
//
// Failures are AppErrors: a process that cannot be started is
// ENGINE_UNAVAILABLE, a non-zero exit is PROCESS_FAILURE carrying stderr, and
// a canceled context is TIMEOUT. On cancellation the process group gets
// SIGTERM, then SIGKILL after the grace period.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	var stdout bytes.Buffer
	return execute(ctx, cmd, &stdout, func() []byte { return stdout.Bytes() })
}

func execute(ctx context.Context, cmd Command, stdout io.Writer, collect func() []byte) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.InvalidInput("binary", "process binary is required")
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // running configured binaries is the point
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	c.Stdin = cmd.Stdin

	var stderr bytes.Buffer
	c.Stdout = stdout
	c.Stderr = &stderr

	// Own process group so cancellation reaches children of the binary too.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = cmd.gracePeriod()

	start := time.Now()
	if err := c.Start(); err != nil {
		return nil, errors.EngineUnavailable(cmd.Binary, err).WithDetail("binary", cmd.Binary)
	}
	if cmd.OnStart != nil {
		cmd.OnStart(c.Process.Pid)
	}
	waitErr := c.Wait()

	result := &Result{
		Stdout:   collect(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}
	if waitErr == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return result, errors.Timeout(cmd.Binary).WithCause(ctx.Err())
	}
	return result, errors.ProcessFailure(cmd.Binary, result.ExitCode, string(result.Stderr)).WithCause(waitErr)
}

// mergeEnv appends extra to the parent environment. Nil inherits it as is.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}
	return append(os.Environ(), extra...)
}
