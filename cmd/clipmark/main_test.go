package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/clipmark/clipmark/internal/segment"
)

func resetExportFlags() {
	flagStart = ""
	flagEnd = ""
	flagIn = ""
	flagOut = ""
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	resetExportFlags()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestExportImportsAndWritesCSV(t *testing.T) {
	dir := t.TempDir()

	src := segment.NewStore()
	src.Add(segment.New("match_AB.mp4", 63.0, 125.0))
	in := filepath.Join(dir, "in.csv")
	if err := src.ExportFile(in); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out.csv")
	if err := runCommand(t, "export", "match_AB.mp4", "--in", in, "--out", out); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("output CSV not written: %v", err)
	}
	defer f.Close()
	segs, err := segment.ReadCSV(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Start != 63 || segs[0].End != 125 {
		t.Errorf("range not preserved: %v -> %v", segs[0].Start, segs[0].End)
	}
}

func TestExportMarkedRange(t *testing.T) {
	out := filepath.Join(t.TempDir(), "marked.csv")
	err := runCommand(t, "export", "match_AB.mp4",
		"--start", "00:01:03", "--end", "00:02:05", "--out", out)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	segs, err := segment.ReadCSV(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 || segs[0].Start != 63 || segs[0].End != 125 {
		t.Errorf("unexpected export contents: %+v", segs)
	}
	if segs[0].File != "match_AB.mp4" || segs[0].Type != "AB" {
		t.Errorf("file or type not derived: %+v", segs[0])
	}
}

func TestExportRejectsEmpty(t *testing.T) {
	if err := runCommand(t, "export", "match_AB.mp4"); err == nil {
		t.Error("expected an error when no segments are given")
	}
}
