package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single subprocess run. A tunable, not a
// correctness-critical constant.
const DefaultTimeout = 10 * time.Minute

// CommandResult classifies the outcome of one subprocess invocation.
type CommandResult struct {
	Success    bool
	Message    string
	OutputPath string
}

// Runner executes a prepared command vector as a child process. Run blocks,
// so callers keep it off the UI goroutine.
type Runner struct {
	logger  zerolog.Logger
	timeout time.Duration
}

// NewRunner creates a runner with the given timeout; zero means DefaultTimeout.
func NewRunner(logger zerolog.Logger, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{
		logger:  logger.With().Str("component", "runner").Logger(),
		timeout: timeout,
	}
}

// Run executes argv (argv[0] must resolve on PATH or be absolute) and
// classifies the outcome. Failures are reported, never retried here; retry
// policy belongs to the caller. Captured output is logged for the operator
// only, nothing parses it.
func (r *Runner) Run(ctx context.Context, argv []string) CommandResult {
	if len(argv) == 0 {
		return CommandResult{Success: false, Message: "empty command"}
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Debug().Strs("argv", argv).Msg("executing command")

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	// Byte buffers tolerate malformed sequences; output is never rejected
	// for undecodable bytes.
	for _, line := range strings.Split(stderr.String(), "\n") {
		if line != "" {
			r.logger.Debug().Str("stderr", line).Msg("tool output")
		}
	}

	switch {
	case err == nil:
		r.logger.Info().Dur("elapsed", elapsed).Msg("command completed")
		return CommandResult{
			Success:    true,
			OutputPath: argv[len(argv)-1],
		}

	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		r.logger.Error().Dur("timeout", r.timeout).Msg("command timed out")
		return CommandResult{Success: false, Message: "execution time exceeded"}

	case errors.Is(ctx.Err(), context.Canceled):
		return CommandResult{Success: false, Message: "cancelled"}

	case errors.Is(err, exec.ErrNotFound):
		r.logger.Error().Str("tool", argv[0]).Msg("executable not found")
		return CommandResult{
			Success: false,
			Message: fmt.Sprintf("%s is not installed or not on PATH", argv[0]),
		}

	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			r.logger.Error().Int("exit_code", exitErr.ExitCode()).Msg("command failed")
			return CommandResult{
				Success: false,
				Message: fmt.Sprintf("exit code %d: %s", exitErr.ExitCode(), tail(stderr.String(), 500)),
			}
		}
		r.logger.Error().Err(err).Msg("command failed to start")
		return CommandResult{Success: false, Message: err.Error()}
	}
}

// tail returns at most n trailing bytes of s, trimmed.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
