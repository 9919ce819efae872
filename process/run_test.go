package process_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/process"
)

func TestRunEcho(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "echo",
		Args:   []string{"hello", "world"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", result.ExitCode)
	}
	if out := strings.TrimSpace(result.StdoutText()); out != "hello world" {
		t.Fatalf("expected 'hello world', got %q", out)
	}
}

func TestRunStdin(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "cat",
		Stdin:  strings.NewReader("from stdin"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := string(result.Stdout); out != "from stdin" {
		t.Fatalf("expected 'from stdin', got %q", out)
	}
}

func TestRunExitCodeIsProcessFailure(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo 'error: failed to load model' >&2; exit 2"},
	})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if result.ExitCode != 2 {
		t.Fatalf("expected exit code 2, got %d", result.ExitCode)
	}

	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeProcessFailure {
		t.Fatalf("expected PROCESS_FAILURE, got %s", appErr.Code)
	}
	if appErr.Details["exit_code"] != 2 {
		t.Errorf("expected exit_code 2 in details, got %v", appErr.Details["exit_code"])
	}
	if !strings.Contains(appErr.Details["stderr"].(string), "failed to load model") {
		t.Errorf("expected stderr in details, got %v", appErr.Details["stderr"])
	}
	if errors.IsRetryable(err) {
		t.Error("a failed run must not be retryable")
	}
}

func TestRunMissingBinaryIsEngineUnavailable(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "definitely-not-a-real-binary-xyz",
	})
	if result != nil {
		t.Errorf("expected no result for a process that never started, got %+v", result)
	}
	if !errors.HasCode(err, errors.ErrCodeEngineUnavailable) {
		t.Fatalf("expected ENGINE_UNAVAILABLE, got %v", err)
	}
	if !errors.IsRetryable(err) {
		t.Error("start failures are retryable")
	}
}

func TestRunStderr(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo oops >&2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stderr := result.StderrText(); stderr != "oops" {
		t.Fatalf("expected 'oops' on stderr, got %q", stderr)
	}
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := process.Run(ctx, process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 500 * time.Millisecond,
	})
	if !errors.HasCode(err, errors.ErrCodeTimeout) {
		t.Fatalf("expected TIMEOUT from context cancellation, got %v", err)
	}
	if result.Duration > 5*time.Second {
		t.Fatalf("process took too long to kill: %v", result.Duration)
	}
}

func TestRunEmptyBinary(t *testing.T) {
	_, err := process.Run(context.Background(), process.Command{})
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for empty binary, got %v", err)
	}
}

func TestRunEnv(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo $SPEECHKIT_TEST_VAR"},
		Env:    []string{"SPEECHKIT_TEST_VAR=hello123"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := strings.TrimSpace(result.StdoutText()); out != "hello123" {
		t.Fatalf("expected 'hello123', got %q", out)
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  process.Command
		want string
	}{
		{process.Command{Binary: "whisper-cli"}, "whisper-cli"},
		{process.Command{Binary: "whisper-cli", Args: []string{"-m", "model.bin", "-f", "a.wav"}}, "whisper-cli -m model.bin -f a.wav"},
	}
	for _, tc := range tests {
		if got := tc.cmd.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestStreamDeliversChunksInOrder(t *testing.T) {
	script := `printf '[00:00:00.000 --> 00:00:01.000] one\n'; sleep 0.05; printf '[00:00:01.000 --> 00:00:02.000] two\n'`

	var mu sync.Mutex
	var chunks []string
	result, err := process.Stream(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", script},
	}, func(chunk []byte) {
		mu.Lock()
		chunks = append(chunks, string(chunk))
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined := strings.Join(chunks, "")
	if joined != result.StdoutText() {
		t.Errorf("chunks %q do not add up to stdout %q", joined, result.StdoutText())
	}
	if strings.Index(joined, "one") > strings.Index(joined, "two") {
		t.Errorf("chunks out of order: %q", joined)
	}
	if len(chunks) < 2 {
		t.Errorf("expected output separated by a pause to arrive in at least 2 chunks, got %d", len(chunks))
	}
}

func TestStreamFailureKeepsPartialOutput(t *testing.T) {
	var got strings.Builder
	result, err := process.Stream(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo partial; echo boom >&2; exit 3"},
	}, func(chunk []byte) { got.Write(chunk) })

	if !errors.HasCode(err, errors.ErrCodeProcessFailure) {
		t.Fatalf("expected PROCESS_FAILURE, got %v", err)
	}
	if result.ExitCode != 3 || result.StderrText() != "boom" {
		t.Errorf("unexpected result: exit %d stderr %q", result.ExitCode, result.StderrText())
	}
	if got.String() != "partial\n" {
		t.Errorf("expected chunks before failure to be delivered, got %q", got.String())
	}
}

func TestStreamNilCallback(t *testing.T) {
	result, err := process.Stream(context.Background(), process.Command{
		Binary: "echo",
		Args:   []string{"quiet"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StdoutText() != "quiet\n" {
		t.Errorf("unexpected stdout %q", result.StdoutText())
	}
}

func TestRunOnStart(t *testing.T) {
	var pid int
	_, err := process.Run(context.Background(), process.Command{
		Binary:  "true",
		OnStart: func(p int) { pid = p },
	})
	if err != nil {
		t.Fatal(err)
	}
	if pid <= 0 {
		t.Errorf("expected OnStart with a pid, got %d", pid)
	}

	called := false
	_, _ = process.Run(context.Background(), process.Command{
		Binary:  "definitely-not-a-real-binary-xyz",
		OnStart: func(int) { called = true },
	})
	if called {
		t.Error("OnStart must not run when the process never started")
	}
}
