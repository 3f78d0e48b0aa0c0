// Package rootscan walks upward from a starting directory looking for an
// installation root that satisfies a caller-provided probe.
package rootscan

import (
	"os"
	"path/filepath"
)

// Probe reports whether dir is an acceptable installation root.
type Probe func(dir string) bool

// Locate resolves start to an absolute path and walks toward the filesystem
// root, returning the first directory the probe accepts. The scan includes
// start itself and stops at the filesystem root.
func Locate(start string, probe Probe) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", NotFoundError{Start: start, Reason: err.Error()}
	}
	if info, statErr := os.Stat(abs); statErr != nil || !info.IsDir() {
		return "", NotFoundError{Start: start, Reason: "starting directory does not exist"}
	}

	dir := abs
	for {
		if probe(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", NotFoundError{Start: abs, Reason: "no directory on the path satisfied the probe"}
		}
		dir = parent
	}
}
