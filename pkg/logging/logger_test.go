package logging

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"spry-hq/sprylog/pkg/config"
	"spry-hq/sprylog/pkg/errclass"
)

var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type testFiles struct {
	api   string
	error string
}

func newTestLogger(t *testing.T, mutate func(*config.LoggerConfig), opts ...Option) (*Logger, testFiles) {
	t.Helper()

	dir := t.TempDir()
	files := testFiles{
		api:   filepath.Join(dir, "api.log"),
		error: filepath.Join(dir, "error.log"),
	}
	cfg := config.LoggerConfig{
		APIFile:           files.api,
		ErrorFile:         files.error,
		LogNonInteractive: config.Bool(true),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return New(cfg, opts...), files
}

func requestCtx() context.Context {
	return WithRequest(context.Background(), RequestInfo{
		ID:         "req-1",
		Path:       "/users",
		RemoteAddr: "10.0.0.1:5555",
	})
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(content)
}

type recordingObserver struct {
	mu       sync.Mutex
	api      []APIEvent
	errors   []ErrorEvent
	failures []string
}

func (o *recordingObserver) APILogWritten(e APIEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.api = append(o.api, e)
}

func (o *recordingObserver) ErrorLogWritten(e ErrorEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, e)
}

func (o *recordingObserver) WriteFailed(category string, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, category)
}

func TestLogger_Categories(t *testing.T) {
	tests := []struct {
		name string
		log  func(*Logger, context.Context, any) bool
		want string
	}{
		{"message", (*Logger).Message, "\n2024-05-01 10:00:00 10.0.0.1 req-1 /users - Spry: hello"},
		{"warning", (*Logger).Warning, "\n2024-05-01 10:00:00 10.0.0.1 req-1 /users - Spry Warning: hello"},
		{"error", (*Logger).Error, "\n2024-05-01 10:00:00 10.0.0.1 req-1 /users - Spry ERROR: hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, files := newTestLogger(t, nil)

			if !tt.log(l, requestCtx(), "hello") {
				t.Fatal("expected entry to be written")
			}
			if got := readLog(t, files.api); got != tt.want {
				t.Errorf("log = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger_StructuredMessage(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) { c.Format = "%msg%" })

	l.Message(requestCtx(), map[string]any{"user": "bob", "id": 7})

	want := "\nSpry: Array\n(\n    [id] => 7\n    [user] => bob\n)\n"
	if got := readLog(t, files.api); got != want {
		t.Errorf("log = %q, want %q", got, want)
	}
}

func TestLogger_Prefixes(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) {
		c.Format = "%msg%"
		c.Prefix = map[string]string{config.CategoryMessage: "[app] "}
	})
	ctx := requestCtx()

	l.Message(ctx, "custom")
	l.Warning(ctx, "fallback")

	if got, want := readLog(t, files.api), "\n[app] custom\nSpry Warning: fallback"; got != want {
		t.Errorf("log = %q, want %q", got, want)
	}
}

func TestNew_PartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	prefix := map[string]string{config.CategoryMessage: "[app] "}

	l := New(config.LoggerConfig{APIFile: path, Format: "%msg%", Prefix: prefix})

	if !l.Message(context.Background(), "hello") {
		t.Fatal("Message() outside a request = false, want true by default")
	}
	if !l.Warning(context.Background(), "careful") {
		t.Fatal("Warning() outside a request = false, want true by default")
	}
	if got, want := readLog(t, path), "\n[app] hello\nSpry Warning: careful"; got != want {
		t.Errorf("api log = %q, want %q", got, want)
	}
	if !l.Config().UsesFileLock() {
		t.Error("file lock should default to enabled")
	}
	if len(prefix) != 1 {
		t.Errorf("caller's prefix map was modified: %v", prefix)
	}
}

func TestLogger_UnconfiguredFileIsNoOp(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) {
		c.APIFile = ""
		c.ErrorFile = ""
	})

	if l.Message(requestCtx(), "x") {
		t.Error("expected nothing written without an API file")
	}
	if l.OnUncaughtError(requestCtx(), errclass.Signal{Code: errclass.SeverityError, Message: "x"}) {
		t.Error("expected nothing written without an error file")
	}
	if _, err := os.Stat(files.api); !os.IsNotExist(err) {
		t.Errorf("api file should not exist, stat err = %v", err)
	}
}

func TestLogger_NonInteractive(t *testing.T) {
	tests := []struct {
		name              string
		logNonInteractive bool
		ctx               context.Context
		want              bool
		wantIP            string
	}{
		{"cli allowed", true, context.Background(), true, LoopbackIP},
		{"cli suppressed", false, context.Background(), false, ""},
		{"marked request suppressed", false, WithNonInteractive(requestCtx()), false, ""},
		{"request always logged", false, requestCtx(), true, "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, files := newTestLogger(t, func(c *config.LoggerConfig) {
				c.Format = "%ip%"
				c.LogNonInteractive = config.Bool(tt.logNonInteractive)
			})

			if got := l.Message(tt.ctx, "x"); got != tt.want {
				t.Fatalf("Message() = %v, want %v", got, tt.want)
			}
			if tt.want {
				if got := readLog(t, files.api); got != "\n"+tt.wantIP {
					t.Errorf("ip = %q, want %q", got, tt.wantIP)
				}
			}
		})
	}
}

func TestLogger_Stop(t *testing.T) {
	l, files := newTestLogger(t, nil)

	if !l.Stop(requestCtx(), Response{Code: 403, Messages: []string{"forbidden"}}) {
		t.Fatal("expected stop entry to be written")
	}

	got := readLog(t, files.api)
	if !strings.Contains(got, "Spry STOPPED: Response Code (403) - forbidden") {
		t.Errorf("stop line missing: %q", got)
	}
	if !strings.Contains(got, " - - Trace: ") || !strings.Contains(got, "TestLogger_Stop") {
		t.Errorf("expected backtrace through the caller: %q", got)
	}
	if strings.Contains(got, "CaptureFrom") {
		t.Errorf("backtrace must start at Stop: %q", got)
	}
	if strings.Contains(got, "PRIVATE DATA") {
		t.Errorf("no private data expected: %q", got)
	}
}

func TestLogger_StopMessages(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) { c.Format = "%msg%" })

	l.Stop(requestCtx(), Response{Code: 500, Messages: []string{"a", "b"}})
	l.Stop(requestCtx(), Response{Code: 404})

	got := readLog(t, files.api)
	if !strings.Contains(got, "\nSpry STOPPED: Response Code (500) - a, b\n") {
		t.Errorf("joined messages missing: %q", got)
	}
	if !strings.Contains(got, "\nSpry STOPPED: Response Code (404) - \n") {
		t.Errorf("empty messages keep the dash: %q", got)
	}
}

func TestLogger_StopPrivateData(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) { c.Format = "%msg%" })

	l.Stop(requestCtx(), Response{
		Code:        402,
		Messages:    []string{"payment required"},
		PrivateData: map[string]any{"card": "4111"},
	})

	want := "\nSpry STOPPED:  [START PRIVATE DATA]\nArray\n(\n    [card] => 4111\n)\n\n[END PRIVATE DATA]\n"
	if got := readLog(t, files.api); !strings.HasSuffix(got, want) {
		t.Errorf("private data block = %q, want suffix %q", got, want)
	}
}

func TestLogger_SelfReferencingValues(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) { c.Format = "%msg%" })

	m := map[string]any{"a": 1}
	m["self"] = m

	if !l.Stop(requestCtx(), Response{Code: 500, PrivateData: m}) {
		t.Fatal("expected stop entry to be written")
	}
	if !l.Message(requestCtx(), m) {
		t.Fatal("expected self-referencing message to be written")
	}

	got := readLog(t, files.api)
	if !strings.Contains(got, "[START PRIVATE DATA]\nArray\n(\n    [a] => 1\n    [self] => *RECURSION*\n)\n") {
		t.Errorf("private data block missing recursion marker: %q", got)
	}
	if !strings.Contains(got, "Spry: Array") {
		t.Errorf("message dump missing: %q", got)
	}
}

func TestLogger_StopEmptyPrivateData(t *testing.T) {
	for _, pd := range []any{nil, "", map[string]any{}, []string{}, 0} {
		l, files := newTestLogger(t, func(c *config.LoggerConfig) { c.Format = "%msg%" })
		l.Stop(requestCtx(), Response{Code: 400, PrivateData: pd})

		if got := readLog(t, files.api); strings.Contains(got, "PRIVATE DATA") {
			t.Errorf("private data %#v should be skipped: %q", pd, got)
		}
	}
}

type explodingValue struct{ n int }

func (explodingValue) String() string { panic("cannot render") }

func TestLogger_StopSurvivesMalformedPrivateData(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) { c.Format = "%msg%" })

	var written bool
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Stop panicked: %v", r)
			}
		}()
		written = l.Stop(requestCtx(), Response{Code: 500, PrivateData: explodingValue{n: 1}})
	}()

	if !written {
		t.Error("stop entry should be written before private data")
	}
	if got := readLog(t, files.api); !strings.Contains(got, "Response Code (500)") {
		t.Errorf("stop line missing: %q", got)
	}
}

func TestLogger_Response(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) { c.Format = "%msg%" })
	ctx := requestCtx()

	l.Response(ctx, Response{Code: 200})
	l.Response(ctx, Response{Code: 422, Messages: []string{"name required", "email invalid"}})

	want := "\nSpry Response: Response Code (200)" +
		"\nSpry Response: Response Code (422) - name required, email invalid"
	if got := readLog(t, files.api); got != want {
		t.Errorf("log = %q, want %q", got, want)
	}
}

func TestLogger_Request(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) { c.Format = "%msg%" })

	l.Request(requestCtx(), map[string]any{"username": "bob", "password": "secret123"})

	got := readLog(t, files.api)
	if strings.Contains(got, "secret123") {
		t.Fatalf("password leaked: %q", got)
	}
	want := "\nSpry Request: \n(\n    [password] => xxxxxx...\n    [username] => bob\n)\n"
	if got != want {
		t.Errorf("log = %q, want %q", got, want)
	}
}

func TestLogger_RequestEmpty(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) { c.Format = "%msg%" })

	l.Request(requestCtx(), map[string]any{})

	if got, want := readLog(t, files.api), "\nSpry Request: Empty"; got != want {
		t.Errorf("log = %q, want %q", got, want)
	}
}

func TestLogger_RequestParamsFromContext(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) {
		c.Format = "%msg%"
		c.RedactKeys = []string{"otp"}
	})
	ctx := WithRequest(context.Background(), RequestInfo{
		Params: map[string]any{"OTP": "123456", "page": "2"},
	})

	l.Request(ctx, nil)

	got := readLog(t, files.api)
	if strings.Contains(got, "123456") {
		t.Errorf("extra redact key leaked: %q", got)
	}
	if !strings.Contains(got, "[page] => 2") {
		t.Errorf("params from context missing: %q", got)
	}
}

func TestLogger_OnUncaughtError(t *testing.T) {
	obs := &recordingObserver{}
	l, files := newTestLogger(t, nil, WithObserver(obs))

	ok := l.OnUncaughtError(requestCtx(), errclass.Signal{
		Code:    errclass.SeverityWarning,
		Message: "[SQL Error] duplicate key",
		File:    "/app/repo.go",
		Line:    12,
	})
	if !ok {
		t.Fatal("expected error entry to be written")
	}

	got := readLog(t, files.error)
	if !strings.HasPrefix(got, "\n2024-05-01 10:00:00 SQL Error: duplicate key /app/repo.go [Line: 12]\n") {
		t.Errorf("error line = %q", got)
	}
	if !strings.Contains(got, "TestLogger_OnUncaughtError") {
		t.Errorf("backtrace should include the caller: %q", got)
	}
	if _, err := os.Stat(files.api); !os.IsNotExist(err) {
		t.Error("errors must not be written to the API log")
	}

	if len(obs.errors) != 1 {
		t.Fatalf("error events = %d, want 1", len(obs.errors))
	}
	ev := obs.errors[0]
	if ev.Kind != errclass.KindSQL || ev.Errno != "SQL Error" || ev.Errline != 12 || ev.RequestID != "req-1" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestLogger_OnUncaughtErrorTemplate(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) {
		c.ErrorFormat = "%errno%|%errstr%|%errline%|%ip%|%request_id%"
	})

	l.OnUncaughtError(requestCtx(), errclass.Signal{Code: errclass.SeverityNotice, Message: "undefined index"})

	if got, want := readLog(t, files.error), "\n8|PHP Notice: undefined index|?|10.0.0.1|req-1"; got != want {
		t.Errorf("log = %q, want %q", got, want)
	}
}

func TestLogger_OnUncaughtErrorEmptyMessage(t *testing.T) {
	l, files := newTestLogger(t, nil)

	if l.OnUncaughtError(requestCtx(), errclass.Signal{Code: errclass.SeverityError}) {
		t.Error("empty message should be ignored")
	}
	if _, err := os.Stat(files.error); !os.IsNotExist(err) {
		t.Error("no error file expected")
	}
}

func TestLogger_OnProcessExit(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) { c.ErrorFormat = "%errstr%" })
	ctx := context.Background()

	if l.OnProcessExit(ctx, nil) {
		t.Error("nil signal should be ignored")
	}
	if l.OnProcessExit(ctx, &errclass.Signal{Message: "no type"}) {
		t.Error("signal without code should be ignored")
	}
	if !l.OnProcessExit(ctx, &errclass.Signal{Code: errclass.SeverityError, Message: "out of memory"}) {
		t.Fatal("expected exit error to be written")
	}

	if got, want := readLog(t, files.error), "\nPHP Fatal Error: out of memory"; got != want {
		t.Errorf("log = %q, want %q", got, want)
	}
}

//go:noinline
func panickingHandler(l *Logger, ctx context.Context) {
	defer l.Recover(ctx)
	panic("boom")
}

func TestLogger_Recover(t *testing.T) {
	l, files := newTestLogger(t, nil)

	var repanicked any
	func() {
		defer func() { repanicked = recover() }()
		panickingHandler(l, requestCtx())
	}()

	if repanicked != "boom" {
		t.Errorf("Recover must re-panic with the original value, got %v", repanicked)
	}

	got := readLog(t, files.error)
	if !strings.Contains(got, "PHP Fatal Error: panic: boom") {
		t.Errorf("panic not logged: %q", got)
	}
	if !strings.Contains(got, "Function: spry-hq/sprylog/pkg/logging.panickingHandler") {
		t.Errorf("trace should start at the panicking function: %q", got)
	}
	if strings.Contains(got, "runtime.gopanic") {
		t.Errorf("panic machinery should be dropped: %q", got)
	}
}

func TestLogger_ObserverEvents(t *testing.T) {
	obs := &recordingObserver{}
	l, _ := newTestLogger(t, nil, WithObserver(obs))

	l.Warning(requestCtx(), "disk at 90%")

	if len(obs.api) != 1 {
		t.Fatalf("api events = %d, want 1", len(obs.api))
	}
	ev := obs.api[0]
	if ev.Category != config.CategoryWarning || ev.Message != "Spry Warning: disk at 90%" ||
		ev.IP != "10.0.0.1" || ev.RequestID != "req-1" || ev.Path != "/users" || !ev.Date.Equal(testNow) {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestLogger_WriteFailure(t *testing.T) {
	obs := &recordingObserver{}
	l, files := newTestLogger(t, nil)
	l.AddObserver(obs)

	if err := os.Mkdir(files.api, 0o755); err != nil {
		t.Fatal(err)
	}

	if l.Message(requestCtx(), "x") {
		t.Error("write into a directory should fail")
	}
	if len(obs.failures) != 1 || obs.failures[0] != config.CategoryMessage {
		t.Errorf("failures = %v", obs.failures)
	}
	if len(obs.api) != 0 {
		t.Error("failed writes must not publish events")
	}
}

func TestLogger_RotationThroughFacade(t *testing.T) {
	l, files := newTestLogger(t, func(c *config.LoggerConfig) {
		c.Format = "%msg%"
		c.MaxLines = 3
		c.Archive = false
		c.Prefix = map[string]string{config.CategoryMessage: ""}
	})

	for _, m := range []string{"1", "2", "3", "4", "5"} {
		l.Message(requestCtx(), m)
	}

	if got, want := readLog(t, files.api), "\n3\n4\n5"; got != want {
		t.Errorf("log = %q, want %q", got, want)
	}
}
