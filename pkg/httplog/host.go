package httplog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"spry-hq/sprylog/pkg/errclass"
	"spry-hq/sprylog/pkg/logging"
)

// MetricsRecorder records served requests.
type MetricsRecorder interface {
	RecordHTTPRequest(path string, status int, duration time.Duration)
}

// Host is the request lifecycle that a logging.Runtime attaches to.
type Host struct {
	mu           sync.RWMutex
	paramHooks   []func(context.Context, map[string]any)
	stopHooks    []func(context.Context, logging.Response)
	filters      []func(context.Context, logging.Response) logging.Response
	errorHandler func(context.Context, errclass.Signal)
	exitHooks    []func(context.Context, *errclass.Signal)

	metrics MetricsRecorder
	logger  *slog.Logger
}

var _ logging.Registrar = (*Host)(nil)

// Option configures a Host.
type Option func(*Host)

// WithMetrics records every request served by the middleware.
func WithMetrics(m MetricsRecorder) Option {
	return func(h *Host) { h.metrics = m }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) { h.logger = logger }
}

// NewHost creates a Host without hooks.
func NewHost(opts ...Option) *Host {
	h := &Host{logger: slog.Default().With("component", "httplog")}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnRequestParams registers fn to run once the request parameters are parsed.
func (h *Host) OnRequestParams(fn func(ctx context.Context, params map[string]any)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paramHooks = append(h.paramHooks, fn)
}

// OnStop registers fn to run when a handler aborts a request.
func (h *Host) OnStop(fn func(ctx context.Context, resp logging.Response)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopHooks = append(h.stopHooks, fn)
}

// FilterResponse appends fn to the response filter chain.
func (h *Host) FilterResponse(fn func(ctx context.Context, resp logging.Response) logging.Response) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.filters = append(h.filters, fn)
}

// SetErrorHandler installs fn as the handler for handler panics and
// reported errors. A later call replaces the previous handler.
func (h *Host) SetErrorHandler(fn func(ctx context.Context, sig errclass.Signal)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errorHandler = fn
}

// OnExit registers fn to run from Shutdown.
func (h *Host) OnExit(fn func(ctx context.Context, last *errclass.Signal)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exitHooks = append(h.exitHooks, fn)
}

// ReportError passes sig to the error handler, if one is installed.
func (h *Host) ReportError(ctx context.Context, sig errclass.Signal) {
	h.mu.RLock()
	handler := h.errorHandler
	h.mu.RUnlock()

	if handler != nil {
		handler(ctx, sig)
	}
}

// Shutdown runs the exit hooks with the last error of the process, which
// may be nil.
func (h *Host) Shutdown(ctx context.Context, last *errclass.Signal) {
	h.mu.RLock()
	hooks := slices.Clone(h.exitHooks)
	h.mu.RUnlock()

	ctx = logging.WithNonInteractive(ctx)
	for _, fn := range hooks {
		fn(ctx, last)
	}
}

// Abort runs the stop hooks for resp and answers the request with its code
// and messages. The middleware skips the response filters for an aborted
// request.
func (h *Host) Abort(w http.ResponseWriter, r *http.Request, resp logging.Response) {
	h.mu.RLock()
	hooks := slices.Clone(h.stopHooks)
	h.mu.RUnlock()

	for _, fn := range hooks {
		fn(r.Context(), resp)
	}

	if rw, ok := w.(*responseWriter); ok {
		rw.aborted = true
	}
	http.Error(w, strings.Join(resp.Messages, ", "), resp.Code)
}

func (h *Host) runParams(ctx context.Context, params map[string]any) {
	h.mu.RLock()
	hooks := slices.Clone(h.paramHooks)
	h.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, params)
	}
}

func (h *Host) filter(ctx context.Context, resp logging.Response) logging.Response {
	h.mu.RLock()
	filters := slices.Clone(h.filters)
	h.mu.RUnlock()

	for _, fn := range filters {
		resp = fn(ctx, resp)
	}
	return resp
}

// panicSignal builds the fatal error reported for a recovered panic. It
// must be called from the deferred function that recovered.
func panicSignal(v any) errclass.Signal {
	sig := errclass.Signal{
		Code:    errclass.SeverityError,
		Message: fmt.Sprintf("panic: %v", v),
	}

	frames := errclass.Capture(1, 32)
	for i, f := range frames {
		if f.Function != "runtime.gopanic" {
			continue
		}
		for _, f := range frames[i+1:] {
			if !strings.HasPrefix(f.Function, "runtime.") {
				sig.File, sig.Line = f.File, f.Line
				break
			}
		}
		break
	}
	return sig
}
