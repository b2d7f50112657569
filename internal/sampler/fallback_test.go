package sampler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeFakeTool(t *testing.T, script string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFallbackCountsProducedImages(t *testing.T) {
	outDir := t.TempDir()

	// Fake tool produces three numbered frames regardless of its arguments
	script := fmt.Sprintf(
		`for i in 000001 000002 000003; do : > %s/clip_20260901_120000_frame$i.jpg; done`,
		outDir)
	tool := writeFakeTool(t, script)

	s := New(zerolog.Nop(), WithClock(func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	}))

	count, err := s.Fallback(context.Background(), FallbackOptions{
		Tool:    tool,
		Input:   "clip.mp4",
		OutDir:  outDir,
		Start:   0,
		End:     1,
		Quality: 2,
	})
	if err != nil {
		t.Fatalf("Fallback failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 images counted, got %d", count)
	}
}

func TestFallbackToolFailure(t *testing.T) {
	tool := writeFakeTool(t, "exit 1")

	s := New(zerolog.Nop())
	_, err := s.Fallback(context.Background(), FallbackOptions{
		Tool:   tool,
		Input:  "clip.mp4",
		OutDir: t.TempDir(),
		Start:  0,
		End:    1,
	})
	if err == nil {
		t.Fatal("expected error for failing tool")
	}
}

func TestFallbackCancellationTerminates(t *testing.T) {
	outDir := t.TempDir()

	// Fake tool writes one frame then hangs until signalled
	script := fmt.Sprintf(
		`: > %s/clip_20260901_120000_frame000001.jpg; sleep 30`, outDir)
	tool := writeFakeTool(t, script)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	s := New(zerolog.Nop(), WithClock(func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	}))

	start := time.Now()
	count, err := s.Fallback(ctx, FallbackOptions{
		Tool:      tool,
		Input:     "clip.mp4",
		OutDir:    outDir,
		Start:     0,
		End:       1,
		KillGrace: time.Second,
	})
	if err != nil {
		t.Fatalf("cancelled fallback must not report an error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected partial count 1, got %d", count)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("cancellation did not terminate the child promptly")
	}
}
