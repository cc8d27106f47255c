package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoProject is returned by FindRoot when no project marker is found.
var ErrNoProject = errors.New("no tickline project found")

// FindRoot walks up from startDir looking for a project: a directory holding
// a .tickline cache or a tickline.yaml config. It returns the absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, ".tickline") || hasFile(dir, ConfigFileName) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrNoProject
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
