package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// ErrArchiveWrite is returned when the compressed copy of a log file could
// not be written. The live file is left untouched in that case.
var ErrArchiveWrite = errors.New("archive write failed")

// Mode describes what a rotation did to the live file.
type Mode string

const (
	// ModeArchive moved the whole content into a new archive and emptied
	// the live file.
	ModeArchive Mode = "archive"

	// ModeTrim kept only the most recent lines in place.
	ModeTrim Mode = "trim"
)

// Config holds the rotation policy of one Archiver.
type Config struct {
	// MaxLines is the line count above which a file is rotated.
	// 0 disables rotation.
	MaxLines int

	// Archive selects full rollover into gzip archives. When false the
	// live file is trimmed to its last MaxLines lines instead.
	Archive bool

	// MaxArchives is the number of archives kept per log file.
	// 0 keeps every archive.
	MaxArchives int
}

// Outcome reports the result of a rotation check.
type Outcome struct {
	Rotated     bool
	Mode        Mode
	LinesBefore int
	LinesAfter  int

	// Archive is the path of the archive written by ModeArchive.
	Archive string

	// Pruned lists the archives removed by retention.
	Pruned []string
}

// Observer is notified about rotations. The metrics collector implements it.
type Observer interface {
	RecordRotation(mode Mode, pruned int)
	RecordArchiveFailure()
}

// Archiver enforces the line limit of log files. It holds no per-file
// state and does not lock; callers serialise access to a path.
type Archiver struct {
	cfg      Config
	now      func() time.Time
	logger   *slog.Logger
	observer Observer

	create func(path string, t time.Time) (*os.File, string, error)
}

// Option configures an Archiver.
type Option func(*Archiver)

// WithClock sets the time source used to name archives.
func WithClock(now func() time.Time) Option {
	return func(a *Archiver) { a.now = now }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archiver) { a.logger = logger }
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(a *Archiver) { a.observer = o }
}

// New creates an Archiver with the given policy.
func New(cfg Config, opts ...Option) *Archiver {
	a := &Archiver{
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default().With("component", "archive"),
		create: createArchive,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the rotation policy.
func (a *Archiver) Config() Config {
	return a.cfg
}

// MaybeRotate rotates path when it holds more than MaxLines lines.
func (a *Archiver) MaybeRotate(path string) (Outcome, error) {
	return a.MaybeRotateFor(path, 0)
}

// MaybeRotateFor rotates path when its line count plus incoming would exceed
// MaxLines. A trim keeps room for the incoming lines so the file is at the
// limit once they are appended. An archive rollover empties the file, so an
// entry longer than the limit still lands in full and is rotated on the
// next call.
func (a *Archiver) MaybeRotateFor(path string, incoming int) (Outcome, error) {
	var out Outcome
	if a.cfg.MaxLines <= 0 || path == "" {
		return out, nil
	}
	if incoming < 0 {
		incoming = 0
	}

	EnsureDir(path, a.logger)

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return out, fmt.Errorf("read %s: %w", path, err)
	}

	lines := CountLines(string(content))
	out.LinesBefore = lines
	out.LinesAfter = lines
	if lines == 0 || lines+incoming <= a.cfg.MaxLines {
		return out, nil
	}

	if a.cfg.Archive {
		return a.rollover(path, content, out)
	}
	return a.trim(path, string(content), incoming, out)
}

func (a *Archiver) rollover(path string, content []byte, out Outcome) (Outcome, error) {
	name, err := a.writeArchive(path, content)
	if err != nil {
		if a.observer != nil {
			a.observer.RecordArchiveFailure()
		}
		a.logger.Error("failed to write archive, live file kept",
			"file", path,
			"error", err,
		)
		return out, err
	}

	if err := os.Truncate(path, 0); err != nil {
		return out, fmt.Errorf("truncate %s after archiving to %s: %w", path, name, err)
	}

	out.Rotated = true
	out.Mode = ModeArchive
	out.Archive = name
	out.LinesAfter = 0

	pruned, err := a.Prune(path)
	out.Pruned = pruned
	if a.observer != nil {
		a.observer.RecordRotation(ModeArchive, len(pruned))
	}
	if err != nil {
		a.logger.Warn("failed to prune archives",
			"file", path,
			"error", err,
		)
	}

	a.logger.Debug("log file archived",
		"file", path,
		"archive", name,
		"lines", out.LinesBefore,
		"pruned", len(pruned),
	)
	return out, nil
}

func (a *Archiver) trim(path, content string, incoming int, out Outcome) (Outcome, error) {
	keep := a.cfg.MaxLines - incoming
	if keep < 0 {
		keep = 0
	}

	lines := splitLines(content)
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}

	var data string
	if len(lines) > 0 {
		data = "\n" + strings.Join(lines, "\n")
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return out, fmt.Errorf("trim %s: %w", path, err)
	}

	out.Rotated = true
	out.Mode = ModeTrim
	out.LinesAfter = len(lines)
	if a.observer != nil {
		a.observer.RecordRotation(ModeTrim, 0)
	}

	a.logger.Debug("log file trimmed",
		"file", path,
		"lines_before", out.LinesBefore,
		"lines_after", out.LinesAfter,
	)
	return out, nil
}

// writeArchive compresses content into a new archive next to path. A
// partially written archive is removed before returning an error.
func (a *Archiver) writeArchive(path string, content []byte) (string, error) {
	f, name, err := a.create(path, a.now())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}

	fail := func(err error) (string, error) {
		_ = f.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("%w: %s: %w", ErrArchiveWrite, name, err)
	}

	gz := gzip.NewWriter(f)
	if _, err := gz.Write(content); err != nil {
		return fail(err)
	}
	if err := gz.Close(); err != nil {
		return fail(err)
	}
	if err := f.Sync(); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("%w: %s: %w", ErrArchiveWrite, name, err)
	}

	return name, nil
}

// CountLines counts the physical lines of a log file. Entries are written
// with a leading newline, so one leading newline is a separator rather than
// an empty line. Empty content has no lines.
func CountLines(content string) int {
	content = strings.TrimPrefix(content, "\n")
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

func splitLines(content string) []string {
	content = strings.TrimPrefix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// EnsureDir creates the parent directory of path. Failure is only logged:
// the write that follows reports the real error.
func EnsureDir(path string, logger *slog.Logger) {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err == nil {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil && logger != nil {
		logger.Debug("failed to create log directory",
			"dir", dir,
			"error", err,
		)
	}
}
