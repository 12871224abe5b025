// Package apperr defines the error kinds shared by every layer.
// Callers wrap these sentinels with context and classify with errors.Is.
package apperr

import "errors"

var (
	// ErrLockTimeout means the save lock could not be acquired in time. Retryable.
	ErrLockTimeout = errors.New("another save operation is in progress, please wait and try again")

	// ErrPermissionDenied means the caller may not manage artifacts. Nothing was mutated.
	ErrPermissionDenied = errors.New("insufficient permissions")

	// ErrValidation means the request was rejected before any mutation.
	ErrValidation = errors.New("invalid request")

	// ErrFilesystem wraps read/write/unlink failures.
	ErrFilesystem = errors.New("filesystem error")

	// ErrDatabase wraps history table failures.
	ErrDatabase = errors.New("database error")

	// ErrNotFound means the requested history entry does not exist for this owner.
	ErrNotFound = errors.New("history item not found")
)

// Kind returns the sentinel that err wraps, or nil if it wraps none of them.
func Kind(err error) error {
	for _, k := range []error{ErrLockTimeout, ErrPermissionDenied, ErrValidation, ErrNotFound, ErrFilesystem, ErrDatabase} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Retryable reports whether the caller may retry the same request unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}
