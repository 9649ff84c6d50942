package logging

import (
	"context"
	"sync"

	"spry-hq/sprylog/pkg/errclass"
)

// Registrar is implemented by the host that drives request handling. Init
// uses it to attach the Logger to the host's lifecycle events.
type Registrar interface {
	// OnRequestParams registers fn to run once the request parameters
	// are known.
	OnRequestParams(fn func(ctx context.Context, params map[string]any))

	// OnStop registers fn to run when a request is aborted.
	OnStop(fn func(ctx context.Context, resp Response))

	// FilterResponse registers fn in the chain that builds every response.
	FilterResponse(fn func(ctx context.Context, resp Response) Response)

	// SetErrorHandler installs fn as the global runtime error handler.
	SetErrorHandler(fn func(ctx context.Context, sig errclass.Signal))

	// OnExit registers fn to run at process exit with the last error.
	OnExit(fn func(ctx context.Context, last *errclass.Signal))
}

// Runtime is the composition root of a process: it owns the Logger and
// attaches it to the host exactly once.
type Runtime struct {
	logger *Logger

	once        sync.Once
	mu          sync.Mutex
	initialized bool
}

// NewRuntime creates a Runtime around logger.
func NewRuntime(logger *Logger) *Runtime {
	return &Runtime{logger: logger}
}

// Logger returns the runtime's Logger.
func (r *Runtime) Logger() *Logger {
	return r.logger
}

// Init registers the request, stop and response hooks with reg, and the
// runtime error and exit handlers when an error file is configured. Only
// the first call has an effect; it reports whether this call initialised.
func (r *Runtime) Init(reg Registrar) bool {
	first := false
	r.once.Do(func() {
		first = true
		l := r.logger

		reg.OnRequestParams(func(ctx context.Context, params map[string]any) {
			l.Request(ctx, params)
		})
		reg.OnStop(func(ctx context.Context, resp Response) {
			l.Stop(ctx, resp)
		})
		reg.FilterResponse(func(ctx context.Context, resp Response) Response {
			l.Response(ctx, resp)
			return resp
		})

		if l.cfg.ErrorFile != "" {
			reg.SetErrorHandler(func(ctx context.Context, sig errclass.Signal) {
				l.OnUncaughtError(ctx, sig)
			})
			reg.OnExit(func(ctx context.Context, last *errclass.Signal) {
				l.OnProcessExit(ctx, last)
			})
		}

		r.mu.Lock()
		r.initialized = true
		r.mu.Unlock()

		l.logger.Debug("log hooks registered",
			"api_file", l.cfg.APIFile,
			"error_file", l.cfg.ErrorFile,
		)
	})
	return first
}

// Initialized reports whether Init has run.
func (r *Runtime) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}
