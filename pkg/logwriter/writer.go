// Package logwriter appends rendered entries to log files, rotating them
// first.
//
// Each Append is one critical section per file: rotation check, render,
// append. Goroutines of one process are serialised by a per-file mutex and,
// when file locking is on, processes sharing a file are serialised by an
// advisory flock(2) on "<file>.lock". Without file locking, concurrent
// processes can race and lose or duplicate rotations.
package logwriter

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"spry-hq/sprylog/pkg/archive"
	"spry-hq/sprylog/pkg/format"
)

// Writer appends entries to log files.
type Writer struct {
	archiver *archive.Archiver
	fileLock bool
	logger   *slog.Logger

	mu    sync.Mutex
	paths map[string]*sync.Mutex
}

// Option configures a Writer.
type Option func(*Writer)

// WithFileLock enables or disables the cross-process lock file.
func WithFileLock(enabled bool) Option {
	return func(w *Writer) { w.fileLock = enabled }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) { w.logger = logger }
}

// New creates a Writer that rotates with archiver. File locking is on by
// default.
func New(archiver *archive.Archiver, opts ...Option) *Writer {
	w := &Writer{
		archiver: archiver,
		fileLock: true,
		logger:   slog.Default().With("component", "logwriter"),
		paths:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Append renders tmpl with fields and appends the line to path, preceded by
// a newline. An empty path writes nothing and is not an error. The boolean
// reports whether bytes were written.
func (w *Writer) Append(path, tmpl string, fields format.Fields) (bool, error) {
	if path == "" {
		return false, nil
	}
	return w.write(path, format.Render(tmpl, fields))
}

// AppendError is Append for the error log: an empty tmpl falls back to the
// error layout.
func (w *Writer) AppendError(path, tmpl string, fields format.Fields) (bool, error) {
	if path == "" {
		return false, nil
	}
	return w.write(path, format.RenderError(tmpl, fields))
}

// MaybeRotate runs a rotation check on path under the same locks as Append.
func (w *Writer) MaybeRotate(path string) (archive.Outcome, error) {
	if path == "" {
		return archive.Outcome{}, nil
	}

	unlock, err := w.lock(path)
	if err != nil {
		return archive.Outcome{}, newWriteError(path, "lock", err)
	}
	defer unlock()

	return w.archiver.MaybeRotate(path)
}

func (w *Writer) write(path, line string) (bool, error) {
	archive.EnsureDir(path, w.logger)

	unlock, err := w.lock(path)
	if err != nil {
		return false, newWriteError(path, "lock", err)
	}
	defer unlock()

	incoming := strings.Count(line, "\n") + 1
	if _, err := w.archiver.MaybeRotateFor(path, incoming); err != nil {
		// The entry is still appended: a failed rotation must not lose it.
		w.logger.Warn("rotation failed, appending without rotation",
			"file", path,
			"error", err,
		)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return false, newWriteError(path, "open", err)
	}

	n, err := f.WriteString("\n" + line)
	if err != nil {
		_ = f.Close()
		return n > 0, newWriteError(path, "write", err)
	}
	if err := f.Close(); err != nil {
		return n > 0, newWriteError(path, "close", err)
	}

	return n > 0, nil
}

// lock acquires the in-process mutex of path and, if enabled, its lock file.
func (w *Writer) lock(path string) (func(), error) {
	mu := w.pathMutex(path)
	mu.Lock()

	if !w.fileLock {
		return mu.Unlock, nil
	}

	fl := NewFileLock(path + LockSuffix)
	if err := fl.Lock(); err != nil {
		mu.Unlock()
		return nil, err
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			w.logger.Warn("failed to release lock file",
				"file", path,
				"error", err,
			)
		}
		mu.Unlock()
	}, nil
}

func (w *Writer) pathMutex(path string) *sync.Mutex {
	key := filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	mu, ok := w.paths[key]
	if !ok {
		mu = &sync.Mutex{}
		w.paths[key] = mu
	}
	return mu
}
