// Package project locates the llmtxt project directory, the directory that
// holds .llmtxt/config.yaml.
package project

import (
	"os"
	"path/filepath"

	"github.com/example/llmtxt/internal/config"
)

// Find walks up from start looking for a directory with a config file.
// It returns the first such directory, or false when the filesystem root is
// reached without finding one.
func Find(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}

	for {
		if info, err := os.Stat(config.Path(dir)); err == nil && !info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Dir returns the project directory for the working directory: the nearest
// ancestor with a config file, or the working directory itself.
func Dir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if dir, ok := Find(cwd); ok {
		return dir, nil
	}
	return cwd, nil
}
