package ffmpeg

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// skipIfNoShell skips subprocess tests on systems without a POSIX shell
func skipIfNoShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
}

func TestRunnerSuccess(t *testing.T) {
	skipIfNoShell(t)

	r := NewRunner(zerolog.Nop(), 0)
	res := r.Run(context.Background(), []string{"sh", "-c", "exit 0", "out.mp4"})

	if !res.Success {
		t.Fatalf("expected success, got failure: %s", res.Message)
	}
	if res.OutputPath != "out.mp4" {
		t.Errorf("output path should be the last argument, got %q", res.OutputPath)
	}
}

func TestRunnerNonZeroExit(t *testing.T) {
	skipIfNoShell(t)

	r := NewRunner(zerolog.Nop(), 0)
	res := r.Run(context.Background(), []string{"sh", "-c", "echo broken stream >&2; exit 3"})

	if res.Success {
		t.Fatal("expected failure for non-zero exit")
	}
	if !strings.Contains(res.Message, "exit code 3") {
		t.Errorf("message should carry the exit code: %q", res.Message)
	}
	if !strings.Contains(res.Message, "broken stream") {
		t.Errorf("message should carry captured stderr: %q", res.Message)
	}
}

func TestRunnerExecutableNotFound(t *testing.T) {
	r := NewRunner(zerolog.Nop(), 0)
	res := r.Run(context.Background(), []string{"clipmark-no-such-tool-xyzzy"})

	if res.Success {
		t.Fatal("expected failure for missing executable")
	}
	if !strings.Contains(res.Message, "not installed or not on PATH") {
		t.Errorf("unexpected message: %q", res.Message)
	}
}

func TestRunnerTimeout(t *testing.T) {
	skipIfNoShell(t)

	r := NewRunner(zerolog.Nop(), 100*time.Millisecond)
	res := r.Run(context.Background(), []string{"sh", "-c", "sleep 5"})

	if res.Success {
		t.Fatal("expected timeout failure")
	}
	if res.Message != "execution time exceeded" {
		t.Errorf("unexpected timeout message: %q", res.Message)
	}
}

func TestRunnerCancellation(t *testing.T) {
	skipIfNoShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	r := NewRunner(zerolog.Nop(), 0)
	res := r.Run(ctx, []string{"sh", "-c", "sleep 5"})

	if res.Success {
		t.Fatal("expected cancelled run to report failure result")
	}
	if res.Message != "cancelled" {
		t.Errorf("unexpected cancellation message: %q", res.Message)
	}
}

func TestRunnerEmptyCommand(t *testing.T) {
	r := NewRunner(zerolog.Nop(), 0)
	res := r.Run(context.Background(), nil)
	if res.Success {
		t.Fatal("expected failure for empty command")
	}
}
