package logging

import (
	"context"
	"strings"
	"sync"
	"testing"

	"spry-hq/sprylog/pkg/config"
	"spry-hq/sprylog/pkg/errclass"
)

type fakeHost struct {
	params   []func(context.Context, map[string]any)
	stops    []func(context.Context, Response)
	filters  []func(context.Context, Response) Response
	handlers []func(context.Context, errclass.Signal)
	exits    []func(context.Context, *errclass.Signal)
}

func (h *fakeHost) OnRequestParams(fn func(context.Context, map[string]any)) {
	h.params = append(h.params, fn)
}

func (h *fakeHost) OnStop(fn func(context.Context, Response)) {
	h.stops = append(h.stops, fn)
}

func (h *fakeHost) FilterResponse(fn func(context.Context, Response) Response) {
	h.filters = append(h.filters, fn)
}

func (h *fakeHost) SetErrorHandler(fn func(context.Context, errclass.Signal)) {
	h.handlers = append(h.handlers, fn)
}

func (h *fakeHost) OnExit(fn func(context.Context, *errclass.Signal)) {
	h.exits = append(h.exits, fn)
}

func TestRuntime_InitOnce(t *testing.T) {
	l, _ := newTestLogger(t, nil)
	rt := NewRuntime(l)
	host := &fakeHost{}

	if rt.Initialized() {
		t.Fatal("runtime initialized before Init")
	}
	if !rt.Init(host) {
		t.Error("first Init should report initialization")
	}
	if rt.Init(host) {
		t.Error("second Init should be a no-op")
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rt.Init(host)
		}()
	}
	wg.Wait()

	if !rt.Initialized() {
		t.Error("runtime should be initialized")
	}
	counts := []int{len(host.params), len(host.stops), len(host.filters), len(host.handlers), len(host.exits)}
	for i, n := range counts {
		if n != 1 {
			t.Errorf("hook %d registered %d times, want 1", i, n)
		}
	}
}

func TestRuntime_ErrorHandlersNeedErrorFile(t *testing.T) {
	l, _ := newTestLogger(t, func(c *config.LoggerConfig) { c.ErrorFile = "" })
	host := &fakeHost{}

	NewRuntime(l).Init(host)

	if len(host.handlers) != 0 || len(host.exits) != 0 {
		t.Errorf("error handlers installed without error file: %d, %d", len(host.handlers), len(host.exits))
	}
	if len(host.params) != 1 || len(host.stops) != 1 || len(host.filters) != 1 {
		t.Error("request hooks should still be registered")
	}
}

func TestRuntime_HooksWriteEntries(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) {
		c.Format = "%msg%"
		c.ErrorFormat = "%errstr%"
	})
	rt := NewRuntime(l)
	host := &fakeHost{}
	rt.Init(host)

	ctx := requestCtx()
	host.params[0](ctx, map[string]any{"token": "t0k3n"})
	resp := host.filters[0](ctx, Response{Code: 201, Messages: []string{"created"}})
	host.stops[0](ctx, Response{Code: 409})
	host.handlers[0](ctx, errclass.Signal{Code: errclass.SeverityStrict, Message: "deprecated call"})
	host.exits[0](ctx, &errclass.Signal{Code: errclass.SeverityParse, Message: "unexpected EOF"})

	if resp.Code != 201 || len(resp.Messages) != 1 {
		t.Errorf("response filter must pass the response through, got %+v", resp)
	}

	api := readLog(t, files.api)
	for _, want := range []string{
		"Spry Request: \n(\n    [token] => xxxxxx...\n)\n",
		"Spry Response: Response Code (201) - created",
		"Spry STOPPED: Response Code (409) - ",
	} {
		if !strings.Contains(api, want) {
			t.Errorf("api log missing %q:\n%s", want, api)
		}
	}
	if strings.Contains(api, "t0k3n") {
		t.Error("token leaked into the api log")
	}

	if got, want := readLog(t, files.error), "\nPHP Strict: deprecated call\nPHP Parse Error: unexpected EOF"; got != want {
		t.Errorf("error log = %q, want %q", got, want)
	}
}
