package util

import (
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Stem returns the file name without directory or extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CleanupFiles removes multiple files, ignoring errors
func CleanupFiles(paths ...string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}

// TruncateName shortens a file name to max runes while keeping its extension.
func TruncateName(name string, max int) string {
	if len([]rune(name)) <= max {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	keep := max - len([]rune(ext))
	if keep < 1 {
		keep = 1
	}
	runes := []rune(stem)
	if len(runes) > keep {
		runes = runes[:keep]
	}
	return string(runes) + ext
}
