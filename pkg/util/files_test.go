package util

import (
	"strings"
	"testing"
)

func TestStem(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/videos/match_AB.mp4", "match_AB"},
		{"clip.mkv", "clip"},
		{"noext", "noext"},
	}
	for _, tc := range cases {
		if got := Stem(tc.path); got != tc.want {
			t.Errorf("Stem(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestTruncateName(t *testing.T) {
	if got := TruncateName("short.csv", 100); got != "short.csv" {
		t.Errorf("short name modified: %q", got)
	}

	long := strings.Repeat("a", 150) + ".csv"
	got := TruncateName(long, 100)
	if len([]rune(got)) != 100 {
		t.Errorf("expected 100 runes, got %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, ".csv") {
		t.Errorf("extension lost: %q", got)
	}
}
