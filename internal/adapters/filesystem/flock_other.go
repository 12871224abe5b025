//go:build !unix

package filesystem

import (
	"errors"
	"io/fs"
	"os"
)

// lockMarker claims the marker by exclusive creation where flock is unavailable.
func lockMarker(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return nil, errLocked
	}
	return f, err
}

func unlockMarker(f *os.File) {
	f.Close()
}
