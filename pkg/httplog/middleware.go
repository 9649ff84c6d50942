package httplog

import (
	"net/http"
	"time"

	"spry-hq/sprylog/pkg/logging"
)

// maxFormMemory bounds multipart form parsing.
const maxFormMemory = 1 << 20

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	aborted    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the status code before writing.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called if not already done.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware drives the host's hooks around next.
func (h *Host) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		params := Params(r)

		ctx := logging.WithRequest(r.Context(), logging.RequestInfo{
			ID:         GetRequestID(r.Context()),
			Path:       r.URL.Path,
			RemoteAddr: r.RemoteAddr,
			Params:     params,
		})
		r = r.WithContext(ctx)
		rw := newResponseWriter(w)

		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				h.ReportError(ctx, panicSignal(v))
				h.logger.Error("panic in handler", "error", v, "path", r.URL.Path)

				if !rw.written {
					http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
				rw.statusCode = http.StatusInternalServerError
			}

			if !rw.aborted {
				h.filter(ctx, logging.Response{Code: rw.statusCode})
			}
			if h.metrics != nil {
				h.metrics.RecordHTTPRequest(r.URL.Path, rw.statusCode, time.Since(start))
			}
		}()

		h.runParams(ctx, params)
		next.ServeHTTP(rw, r)
	})
}

// Params merges the query string and the form body of r. Single values are
// stored as strings and repeated keys as []string.
func Params(r *http.Request) map[string]any {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && err != http.ErrNotMultipart {
		// ParseMultipartForm has already parsed the query and url-encoded body.
		_ = r.ParseForm()
	}

	params := make(map[string]any, len(r.Form))
	for k, vs := range r.Form {
		switch len(vs) {
		case 0:
			params[k] = ""
		case 1:
			params[k] = vs[0]
		default:
			params[k] = append([]string(nil), vs...)
		}
	}
	return params
}
