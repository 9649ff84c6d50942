package logwriter

import (
	"errors"
	"fmt"
)

// ErrWriteFailed matches every WriteError with errors.Is.
var ErrWriteFailed = errors.New("log write failed")

// WriteError reports an append that did not complete.
type WriteError struct {
	Path  string // Log file
	Op    string // "lock", "open", "write" or "close"
	Cause error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("log write failed [file=%s, op=%s]: %v", e.Path, e.Op, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *WriteError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrWriteFailed.
func (e *WriteError) Is(target error) bool {
	return target == ErrWriteFailed
}

func newWriteError(path, op string, cause error) *WriteError {
	return &WriteError{Path: path, Op: op, Cause: cause}
}
