// Package httplog attaches a logging.Logger to net/http request handling.
//
// Host implements logging.Registrar: Runtime.Init registers the logger's
// hooks on it, and Host.Middleware fires them for every request.
//
//	host := httplog.NewHost()
//	logging.NewRuntime(logger).Init(host)
//
//	r := chi.NewRouter()
//	r.Use(httplog.RequestID, host.Middleware)
//
// For each request the middleware attaches a logging.RequestInfo to the
// context, runs the request-parameter hooks with the merged query and form
// values, and runs the response filters with the final status code. A panic
// in a handler is reported to the error handler as a fatal error and
// answered with 500. Handlers abort a request with Host.Abort, which runs
// the stop hooks.
//
// Only r.RemoteAddr identifies the client; forwarding headers are ignored.
package httplog
