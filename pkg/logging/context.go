package logging

import (
	"context"
	"net"
)

// LoopbackIP is written as %ip% for non-interactive invocations that carry
// no remote address.
const LoopbackIP = "127.0.0.1"

// UnknownIP is written as %ip% when the remote address is missing or is not
// a valid IP address.
const UnknownIP = "-"

type contextKey string

const (
	requestKey        contextKey = "request"
	nonInteractiveKey contextKey = "non_interactive"
)

// RequestInfo describes the request being served. The host adapter attaches
// it to the context of every call made on behalf of a request.
type RequestInfo struct {
	ID         string
	Path       string
	RemoteAddr string
	Params     map[string]any
}

// WithRequest attaches request metadata to the context.
func WithRequest(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestKey, info)
}

// RequestFrom retrieves the request metadata from the context.
func RequestFrom(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestKey).(RequestInfo)
	return info, ok
}

// WithNonInteractive marks the context as a CLI, cron or background
// invocation even when it carries request metadata.
func WithNonInteractive(ctx context.Context) context.Context {
	return context.WithValue(ctx, nonInteractiveKey, true)
}

// IsNonInteractive reports whether ctx belongs to an invocation without a
// client: it was marked with WithNonInteractive or carries no request.
func IsNonInteractive(ctx context.Context) bool {
	if marked, _ := ctx.Value(nonInteractiveKey).(bool); marked {
		return true
	}
	_, ok := RequestFrom(ctx)
	return !ok
}

// ResolveIP returns the client IP for %ip%. Only the RemoteAddr supplied by
// the host adapter is used, and it must parse as an IP address (optionally
// with a port). Without an address, non-interactive invocations resolve to
// LoopbackIP and requests to UnknownIP.
func ResolveIP(ctx context.Context) string {
	info, _ := RequestFrom(ctx)
	if info.RemoteAddr == "" {
		if IsNonInteractive(ctx) {
			return LoopbackIP
		}
		return UnknownIP
	}

	host := info.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return UnknownIP
}
