package ffmpeg

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrToolNotFound indicates the external media tool could not be resolved.
// Callers disable the extraction feature with an explanatory message rather
// than treating this as fatal.
var ErrToolNotFound = errors.New("ffmpeg not found on PATH or at known install locations")

// wellKnownDirs are checked after PATH lookup fails.
var wellKnownDirs = []string{
	"/usr/local/bin",
	"/opt/homebrew/bin",
	"/usr/bin",
	"C:\\ffmpeg\\bin",
	"C:\\Program Files\\ffmpeg\\bin",
}

// Locate resolves the named tool ("ffmpeg", "ffprobe") to an executable
// path. PATH wins; extra configured directories and the built-in well-known
// locations are tried afterwards.
func Locate(name string, extraDirs []string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	binary := name
	if runtime.GOOS == "windows" {
		binary += ".exe"
	}

	for _, dir := range append(append([]string{}, extraDirs...), wellKnownDirs...) {
		candidate := filepath.Join(dir, binary)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", ErrToolNotFound
}
