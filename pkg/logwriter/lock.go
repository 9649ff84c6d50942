package logwriter

import "os"

// LockSuffix is appended to a log path to name its lock file.
const LockSuffix = ".lock"

// FileLock provides cross-process mutual exclusion using flock(2).
// It guards the rotate-then-append sequence of one log file when several
// processes write to it. On platforms without flock it is a no-op and only
// the in-process mutex of the Writer applies.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a FileLock backed by the file at path. Call
// Lock/Unlock to acquire and release.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}
