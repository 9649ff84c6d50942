// Package tail follows a live log file the way `tail -F` does.
//
// The log engine rotates files in place: an archive rollover truncates the
// file and a trim rewrites it shorter. A Follower watches the file's
// directory with fsnotify and starts over from the beginning whenever the
// file shrinks below the read offset or is replaced by a new file.
package tail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("tail: follower closed")

// Follower emits the lines appended to one file.
type Follower struct {
	path      string
	fromStart bool
	logger    *slog.Logger

	watcher *fsnotify.Watcher
	file    *os.File
	info    os.FileInfo
	offset  int64

	mu        sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// Option configures a Follower.
type Option func(*Follower)

// FromStart emits the current content of the file before following it.
func FromStart() Option {
	return func(f *Follower) { f.fromStart = true }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Follower) { f.logger = logger }
}

// Open starts watching path. The file does not need to exist yet; it is
// picked up when it is created. Lines are delivered by Run.
func Open(path string, opts ...Option) (*Follower, error) {
	f := &Follower{
		path:   filepath.Clean(path),
		logger: slog.Default().With("component", "tail"),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(f.path), err)
	}
	f.watcher = watcher

	if err := f.reopen(!f.fromStart); err != nil && !errors.Is(err, os.ErrNotExist) {
		watcher.Close()
		return nil, err
	}
	return f, nil
}

// Run calls fn for every line until ctx is cancelled or Close is called.
// Content already present when Open was called is emitted first when
// FromStart was given.
func (f *Follower) Run(ctx context.Context, fn func(line string)) error {
	if err := f.locked(func() error { return f.drain(fn) }); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-f.done:
			return ErrClosed

		case event, ok := <-f.watcher.Events:
			if !ok {
				return ErrClosed
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}

			err := f.locked(func() error {
				switch {
				case event.Has(fsnotify.Create):
					if err := f.reopen(false); err != nil && !errors.Is(err, os.ErrNotExist) {
						return err
					}
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					f.closeFile()
					return nil
				}
				return f.drain(fn)
			})
			if err != nil {
				return err
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return ErrClosed
			}
			f.logger.Warn("file watcher error", "path", f.path, "error", err)
		}
	}
}

// Close stops watching and releases the file.
func (f *Follower) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.done)
		err = f.watcher.Close()

		f.mu.Lock()
		f.closeFile()
		f.mu.Unlock()
	})
	return err
}

// locked runs fn while holding the file, unless the follower is closed.
func (f *Follower) locked(fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	select {
	case <-f.done:
		return ErrClosed
	default:
	}
	return fn()
}

// drain emits everything between the read offset and the end of the file.
func (f *Follower) drain(fn func(string)) error {
	if f.file == nil {
		if err := f.reopen(false); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
	}

	info, err := os.Stat(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	switch {
	case !os.SameFile(info, f.info):
		f.logger.Debug("file replaced, reopening", "path", f.path)
		if err := f.reopen(false); err != nil {
			return err
		}
	case info.Size() < f.offset:
		f.logger.Debug("file truncated, restarting", "path", f.path, "size", info.Size(), "offset", f.offset)
		if _, err := f.file.Seek(0, io.SeekStart); err != nil {
			return err
		}
		f.offset = 0
	}

	data, err := io.ReadAll(f.file)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return nil
	}
	f.offset += int64(len(data))

	for _, line := range splitLines(string(data)) {
		fn(line)
	}
	return nil
}

// reopen opens the file, positioned at its end when atEnd is set and at
// its beginning otherwise.
func (f *Follower) reopen(atEnd bool) error {
	f.closeFile()

	file, err := os.Open(f.path)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}

	var offset int64
	if atEnd {
		if offset, err = file.Seek(0, io.SeekEnd); err != nil {
			file.Close()
			return err
		}
	}

	f.file, f.info, f.offset = file, info, offset
	return nil
}

func (f *Follower) closeFile() {
	if f.file != nil {
		f.file.Close()
		f.file = nil
	}
}

// splitLines splits appended content into lines. Every entry starts with
// a newline, so a leading separator does not open an empty line.
func splitLines(chunk string) []string {
	chunk = strings.TrimPrefix(chunk, "\n")
	chunk = strings.TrimSuffix(chunk, "\n")
	if chunk == "" {
		return nil
	}
	return strings.Split(chunk, "\n")
}
