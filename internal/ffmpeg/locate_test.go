package ffmpeg

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocateOnPath(t *testing.T) {
	skipIfNoShell(t)

	path, err := Locate("sh", nil)
	if err != nil {
		t.Fatalf("Locate failed for tool on PATH: %v", err)
	}
	if path == "" {
		t.Error("empty path for resolved tool")
	}
}

func TestLocateExtraDir(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "clipmark-fake-tool")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	path, err := Locate("clipmark-fake-tool", []string{dir})
	if err != nil {
		t.Fatalf("Locate failed for tool in extra dir: %v", err)
	}
	if path != bin {
		t.Errorf("got %q, want %q", path, bin)
	}
}

func TestLocateMissing(t *testing.T) {
	_, err := Locate("clipmark-no-such-tool-xyzzy", nil)
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}
