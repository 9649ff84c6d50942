package logging

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"strings"
	"sync"
	"time"

	"spry-hq/sprylog/pkg/archive"
	"spry-hq/sprylog/pkg/config"
	"spry-hq/sprylog/pkg/errclass"
	"spry-hq/sprylog/pkg/format"
	"spry-hq/sprylog/pkg/logwriter"
	"spry-hq/sprylog/pkg/redact"
)

// stopFunction is the frame narrow backtraces of Stop start from.
const stopFunction = "(*Logger).Stop"

// EmptyRequest is logged instead of a dump when a request has no parameters.
const EmptyRequest = "Empty"

// Response describes the outcome of a request for Stop and Response.
type Response struct {
	Code     int
	Messages []string

	// PrivateData is logged by Stop in its own delimited entry.
	PrivateData any
}

// Logger writes categorised API entries and classified runtime errors.
// It never returns errors and never panics: a failed write is reported as
// false, logged to the diagnostics logger and published to observers.
type Logger struct {
	cfg      config.LoggerConfig
	writer   *logwriter.Writer
	redactor *redact.Redactor
	now      func() time.Time
	logger   *slog.Logger

	archiveObserver archive.Observer

	mu        sync.RWMutex
	observers []Observer
}

// Option configures a Logger.
type Option func(*Logger)

// WithClock sets the time source of %date_time%.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// WithDiagnostics sets the logger used for the engine's own diagnostics.
func WithDiagnostics(logger *slog.Logger) Option {
	return func(l *Logger) { l.logger = logger }
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(l *Logger) { l.observers = append(l.observers, o) }
}

// WithArchiveObserver registers an observer of rotations.
func WithArchiveObserver(o archive.Observer) Option {
	return func(l *Logger) { l.archiveObserver = o }
}

// WithWriter replaces the writer built from the configuration.
func WithWriter(w *logwriter.Writer) Option {
	return func(l *Logger) { l.writer = w }
}

// New creates a Logger from cfg. Defaults are applied to a copy of cfg, so
// a partially filled configuration is usable as is.
func New(cfg config.LoggerConfig, opts ...Option) *Logger {
	cfg.Prefix = maps.Clone(cfg.Prefix)
	full := config.Config{Logger: cfg}
	config.ApplyDefaults(&full)
	cfg = full.Logger

	l := &Logger{
		cfg:      cfg,
		redactor: redact.New(cfg.RedactKeys...),
		now:      time.Now,
		logger:   slog.Default().With("component", "logging"),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.writer == nil {
		archiveOpts := []archive.Option{
			archive.WithClock(l.now),
			archive.WithLogger(l.logger),
		}
		if l.archiveObserver != nil {
			archiveOpts = append(archiveOpts, archive.WithObserver(l.archiveObserver))
		}
		arch := archive.New(archive.Config{
			MaxLines:    cfg.MaxLines,
			Archive:     cfg.Archive,
			MaxArchives: cfg.MaxArchives,
		}, archiveOpts...)
		l.writer = logwriter.New(arch,
			logwriter.WithFileLock(cfg.UsesFileLock()),
			logwriter.WithLogger(l.logger),
		)
	}

	return l
}

// Config returns the resolved configuration.
func (l *Logger) Config() config.LoggerConfig {
	return l.cfg
}

// Writer returns the underlying writer, shared with rotation sweeps.
func (l *Logger) Writer() *logwriter.Writer {
	return l.writer
}

// AddObserver registers an Observer after construction.
func (l *Logger) AddObserver(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, o)
}

// Message logs v with the message prefix. Values other than strings are
// dumped.
func (l *Logger) Message(ctx context.Context, v any) bool {
	return l.write(ctx, config.CategoryMessage, format.Dump(v))
}

// Warning logs v with the warning prefix.
func (l *Logger) Warning(ctx context.Context, v any) bool {
	return l.write(ctx, config.CategoryWarning, format.Dump(v))
}

// Error logs v with the error prefix.
func (l *Logger) Error(ctx context.Context, v any) bool {
	return l.write(ctx, config.CategoryError, format.Dump(v))
}

// Stop logs a hard stop: "Response Code (<code>) - <messages>" followed by
// the backtrace from the caller of Stop. Private data, when present, is
// written as a second entry between START and END markers. Stop reports
// whether the stop entry itself was written.
func (l *Logger) Stop(ctx context.Context, resp Response) (written bool) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("stop entry failed", "panic", r)
		}
	}()

	msg := fmt.Sprintf("Response Code (%d) - %s", resp.Code, strings.Join(resp.Messages, ", "))
	if bt := errclass.RenderBacktrace(errclass.CaptureFrom(stopFunction, l.cfg.BacktraceDepth)); bt != "" {
		msg += "\n" + strings.TrimSuffix(bt, "\n")
	}
	written = l.write(ctx, config.CategoryStop, msg)

	if !isEmpty(resp.PrivateData) {
		l.writePrivate(ctx, resp.PrivateData)
	}
	return written
}

func (l *Logger) writePrivate(ctx context.Context, data any) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Warn("private data could not be rendered", "panic", r)
		}
	}()

	block := " [START PRIVATE DATA]\n" + format.Dump(data) + "\n[END PRIVATE DATA]\n"
	l.write(ctx, config.CategoryStop, block)
}

// Response logs a completed request: "Response Code (<code>)" followed by
// " - <messages>" when there are messages.
func (l *Logger) Response(ctx context.Context, resp Response) bool {
	msg := fmt.Sprintf("Response Code (%d)", resp.Code)
	if len(resp.Messages) > 0 {
		msg += " - " + strings.Join(resp.Messages, ", ")
	}
	return l.write(ctx, config.CategoryResponse, msg)
}

// Request logs the inbound parameters with sensitive values masked. A nil
// params falls back to the parameters of the request in ctx. No parameters
// log EmptyRequest.
func (l *Logger) Request(ctx context.Context, params map[string]any) bool {
	if params == nil {
		if info, ok := RequestFrom(ctx); ok {
			params = info.Params
		}
	}

	msg := EmptyRequest
	if len(params) > 0 {
		msg = format.DumpBody(l.redactor.Redact(params))
	}
	return l.write(ctx, config.CategoryRequest, msg)
}

// OnUncaughtError classifies sig and writes it to the error log with the
// backtrace of the caller. Signals without a message are ignored.
func (l *Logger) OnUncaughtError(ctx context.Context, sig errclass.Signal) bool {
	return l.writeError(ctx, sig, errclass.Capture(1, l.cfg.BacktraceDepth))
}

// OnProcessExit logs the last error of a terminating process, if any.
func (l *Logger) OnProcessExit(ctx context.Context, last *errclass.Signal) bool {
	if last == nil || last.Code == 0 || last.Message == "" {
		return false
	}
	return l.writeError(ctx, *last, errclass.Capture(1, l.cfg.BacktraceDepth))
}

// LogPanic writes a recovered panic value to the error log as a fatal
// error located at the panicking frame. It must be called from the
// deferred function that recovered.
func (l *Logger) LogPanic(ctx context.Context, v any) bool {
	frames := panicFrames(errclass.Capture(1, l.cfg.BacktraceDepth+8), l.cfg.BacktraceDepth)

	sig := errclass.Signal{
		Code:    errclass.SeverityError,
		Message: fmt.Sprintf("panic: %v", v),
	}
	if len(frames) > 0 {
		sig.File = frames[0].File
		sig.Line = frames[0].Line
	}
	return l.writeError(ctx, sig, frames)
}

// Recover logs a panic in progress and re-panics with the same value, so
// the host's own panic handling is unchanged. Use it directly with defer:
//
//	defer logger.Recover(ctx)
func (l *Logger) Recover(ctx context.Context) {
	if r := recover(); r != nil {
		l.LogPanic(ctx, r)
		panic(r)
	}
}

// panicFrames drops the frames of the panic machinery so the trace starts
// at the function that panicked, including runtime panics such as an
// index out of range.
func panicFrames(frames []errclass.Frame, depth int) []errclass.Frame {
	for i, f := range frames {
		if f.Function == "runtime.gopanic" {
			frames = frames[i+1:]
			for len(frames) > 1 && strings.HasPrefix(frames[0].Function, "runtime.") {
				frames = frames[1:]
			}
			break
		}
	}
	if depth > 0 && len(frames) > depth {
		frames = frames[:depth]
	}
	return frames
}

func (l *Logger) write(ctx context.Context, category, msg string) bool {
	if l.cfg.APIFile == "" {
		return false
	}
	if !l.cfg.LogsNonInteractive() && IsNonInteractive(ctx) {
		return false
	}

	entry := l.entry(ctx, category, l.prefix(category)+msg)
	written, err := l.writer.Append(l.cfg.APIFile, l.cfg.Format, format.Fields{
		format.DateTime:  entry.Time.Format(format.TimeLayout),
		format.IP:        entry.IP,
		format.RequestID: entry.RequestID,
		format.Path:      entry.Path,
		format.Msg:       entry.Message,
	})
	if err != nil {
		l.logger.Warn("failed to write log entry",
			"category", category,
			"file", l.cfg.APIFile,
			"error", err,
		)
		l.notifyFailure(category, err)
		return false
	}

	if written {
		l.notify(func(o Observer) {
			o.APILogWritten(APIEvent{
				Date:      entry.Time,
				IP:        entry.IP,
				RequestID: entry.RequestID,
				Path:      entry.Path,
				Message:   entry.Message,
				Category:  category,
			})
		})
	}
	return written
}

func (l *Logger) writeError(ctx context.Context, sig errclass.Signal, frames []errclass.Frame) bool {
	if sig.Message == "" || l.cfg.ErrorFile == "" {
		return false
	}

	rec := errclass.Classify(sig, frames)
	entry := l.entry(ctx, CategoryPHP, rec.Display)

	written, err := l.writer.AppendError(l.cfg.ErrorFile, l.cfg.ErrorFormat, format.Fields{
		format.DateTime:  entry.Time.Format(format.TimeLayout),
		format.IP:        entry.IP,
		format.RequestID: entry.RequestID,
		format.Path:      entry.Path,
		format.Errno:     rec.Errno,
		format.Errstr:    rec.Display,
		format.Errfile:   rec.File,
		format.Errline:   errclass.LineText(rec.Line),
		format.Backtrace: rec.Backtrace(),
	})
	if err != nil {
		l.logger.Warn("failed to write error entry",
			"file", l.cfg.ErrorFile,
			"kind", rec.Kind,
			"error", err,
		)
		l.notifyFailure(CategoryPHP, err)
		return false
	}

	if written {
		l.notify(func(o Observer) {
			o.ErrorLogWritten(ErrorEvent{
				Date:      entry.Time,
				IP:        entry.IP,
				RequestID: entry.RequestID,
				Path:      entry.Path,
				Message:   rec.Display,
				Kind:      rec.Kind,
				Errno:     rec.Errno,
				Errstr:    rec.Display,
				Errfile:   rec.File,
				Errline:   rec.Line,
			})
		})
	}
	return written
}

func (l *Logger) entry(ctx context.Context, category, msg string) Entry {
	info, _ := RequestFrom(ctx)
	return Entry{
		Time:      l.now(),
		IP:        ResolveIP(ctx),
		RequestID: info.ID,
		Path:      info.Path,
		Category:  category,
		Message:   msg,
	}
}

// prefix returns the configured prefix of category, falling back to the
// built-in one.
func (l *Logger) prefix(category string) string {
	if p, ok := l.cfg.Prefix[category]; ok {
		return p
	}
	return config.DefaultPrefixes()[category]
}

func (l *Logger) notify(fn func(Observer)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, o := range l.observers {
		fn(o)
	}
}

func (l *Logger) notifyFailure(category string, err error) {
	l.notify(func(o Observer) { o.WriteFailed(category, err) })
}

// isEmpty reports whether v carries no data: nil, a zero scalar or an
// empty collection.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String, reflect.Chan:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return rv.IsZero()
}
