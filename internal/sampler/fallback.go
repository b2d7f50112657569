package sampler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/clipmark/clipmark/internal/ffmpeg"
	"github.com/clipmark/clipmark/pkg/util"
)

// DefaultKillGrace is how long a terminated child gets before force-kill.
const DefaultKillGrace = 3 * time.Second

// FallbackOptions configures subprocess-based image extraction, used when
// direct decoding produced no frames.
type FallbackOptions struct {
	Tool    string // resolved ffmpeg executable
	Input   string
	OutDir  string
	Start   float64
	End     float64
	Quality int
	// FPS for the frame-rate filter; <= 0 writes every decoded frame
	FPS       float64
	KillGrace time.Duration
}

// Fallback extracts images by running the external tool with a numbered
// output pattern, polling for completion while honoring cancellation:
// terminate first, force-kill after the grace period. Returns the number of
// images found on disk afterwards, which is what cancelled runs report too.
func (s *Sampler) Fallback(ctx context.Context, opts FallbackOptions) (int, error) {
	stem := util.Stem(opts.Input)
	stamp := s.now().Format("20060102_150405")
	prefix := fmt.Sprintf("%s_%s_frame", stem, stamp)
	pattern := filepath.Join(opts.OutDir, prefix+"%06d.jpg")

	args := ffmpeg.ImageFallbackArgs(opts.Tool, opts.Input, pattern,
		opts.Start, opts.End, opts.Quality, opts.FPS)

	s.logger.Info().Strs("argv", args).Msg("falling back to subprocess extraction")

	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start fallback extraction: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	grace := opts.KillGrace
	if grace <= 0 {
		grace = DefaultKillGrace
	}

	var runErr error
	select {
	case runErr = <-done:

	case <-ctx.Done():
		s.logger.Info().Msg("terminating fallback extraction")
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-done:
		case <-time.After(grace):
			s.logger.Warn().Msg("fallback extraction did not terminate, killing")
			_ = cmd.Process.Kill()
			<-done
		}
	}

	count := countImages(opts.OutDir, prefix)

	if ctx.Err() != nil {
		// Cancelled: partial output counts, not an error
		return count, nil
	}
	if runErr != nil {
		return count, fmt.Errorf("fallback extraction failed: %w", runErr)
	}
	return count, nil
}

func countImages(dir, prefix string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".jpg") {
			count++
		}
	}
	return count
}
