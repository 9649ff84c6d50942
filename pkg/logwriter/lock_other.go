//go:build !unix

package logwriter

// Lock is a no-op without flock(2).
func (fl *FileLock) Lock() error { return nil }

// Unlock is a no-op without flock(2).
func (fl *FileLock) Unlock() error { return nil }
