package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spry-hq/sprylog/pkg/cli"
	"spry-hq/sprylog/pkg/httplog"
	"spry-hq/sprylog/pkg/logging"

	"github.com/goccy/go-json"
)

type testEnv struct {
	config   string
	apiFile  string
	errorLog string
}

func newTestEnv(t *testing.T, extra string) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		config:   filepath.Join(dir, "sprylog.yaml"),
		apiFile:  filepath.Join(dir, "logs", "api.log"),
		errorLog: filepath.Join(dir, "logs", "error.log"),
	}
	content := fmt.Sprintf(`logger:
  api_file: %s
  error_file: %s
  format: "%%ip%% %%msg%%"
%s
telemetry:
  logging:
    level: error
  metrics:
    enabled: true
`, env.apiFile, env.errorLog, extra)
	if err := os.WriteFile(env.config, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

// execute runs the root command with args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestLogCommand(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		category string
		want     string
	}{
		{"message", "\n127.0.0.1 Spry: nightly import finished"},
		{"warning", "\n127.0.0.1 Spry Warning: nightly import finished"},
		{"error", "\n127.0.0.1 Spry ERROR: nightly import finished"},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			if _, err := execute(t, "-c", env.config, "log", tt.category, "nightly", "import", "finished"); err != nil {
				t.Fatalf("log %s: %v", tt.category, err)
			}
			if api := readFile(t, env.apiFile); !strings.Contains(api, tt.want) {
				t.Errorf("api log missing %q:\n%s", tt.want, api)
			}
		})
	}
}

func TestLogCommand_UnknownCategory(t *testing.T) {
	env := newTestEnv(t, "")

	_, err := execute(t, "-c", env.config, "log", "shout", "hello")
	if err == nil {
		t.Fatal("unknown category should fail")
	}
	if code := cli.ExitCode(err); code != cli.ExitFailure {
		t.Errorf("exit code = %d, want %d", code, cli.ExitFailure)
	}
}

func TestRequestCommand(t *testing.T) {
	env := newTestEnv(t, "")

	if _, err := execute(t, "-c", env.config, "request", "user=alice", "password=secret"); err != nil {
		t.Fatalf("request: %v", err)
	}

	api := readFile(t, env.apiFile)
	for _, want := range []string{"Spry Request: ", "[user] => alice", "[password] => xxxxxx..."} {
		if !strings.Contains(api, want) {
			t.Errorf("api log missing %q:\n%s", want, api)
		}
	}
	if strings.Contains(api, "secret") {
		t.Error("password leaked into the api log")
	}
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]any
		wantErr bool
	}{
		{"none", nil, map[string]any{}, false},
		{"single", []string{"a=1"}, map[string]any{"a": "1"}, false},
		{"empty value", []string{"a="}, map[string]any{"a": ""}, false},
		{"value with equals", []string{"q=x=y"}, map[string]any{"q": "x=y"}, false},
		{"repeated", []string{"a=1", "a=2", "a=3"}, map[string]any{"a": []string{"1", "2", "3"}}, false},
		{"missing equals", []string{"oops"}, nil, true},
		{"missing key", []string{"=1"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseParams() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("parseParams() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRotateAndArchivesCommands(t *testing.T) {
	env := newTestEnv(t, "  max_lines: 3\n  archive: true\n  max_archives: 2")
	if err := os.MkdirAll(filepath.Dir(env.apiFile), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.apiFile, []byte("\none\ntwo\nthree\nfour\nfive"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "-c", env.config, "rotate")
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if !strings.Contains(out, "archived 5 lines") {
		t.Errorf("rotate output = %q", out)
	}
	if api := readFile(t, env.apiFile); api != "" {
		t.Errorf("live file should be empty after rollover, got %q", api)
	}

	out, err = execute(t, "-c", env.config, "archives", "list", "--output", "json")
	if err != nil {
		t.Fatalf("archives list: %v", err)
	}
	var rows []archiveRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("archives list output is not JSON: %v\n%s", err, out)
	}
	if len(rows) != 1 || rows[0].LogFile != env.apiFile {
		t.Fatalf("archives = %+v, want one archive of %s", rows, env.apiFile)
	}

	out, err = execute(t, "-c", env.config, "archives", "cat", rows[0].Path)
	if err != nil {
		t.Fatalf("archives cat: %v", err)
	}
	if !strings.Contains(out, "five") {
		t.Errorf("archive content = %q", out)
	}

	out, err = execute(t, "-c", env.config, "archives", "prune")
	if err != nil {
		t.Fatalf("archives prune: %v", err)
	}
	if !strings.Contains(out, "0 archive(s) removed") {
		t.Errorf("prune output = %q", out)
	}
}

func TestArchiveList_Table(t *testing.T) {
	list := archiveList{{LogFile: "/var/log/api.log", Path: "/var/log/api.log.2024-05-01_10-00-00.gz", Size: 2048}}
	table := list.Table()

	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(table.Rows))
	}
	row := table.Rows[0]
	if row[0] != "api.log" || row[1] != "api.log.2024-05-01_10-00-00.gz" || row[2] != "2.0 kB" {
		t.Errorf("row = %q", row)
	}
}

func TestValidateCommand(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := execute(t, "-c", env.config, "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Errorf("validate output = %q", out)
	}

	_, err = execute(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "validate")
	if code := cli.ExitCode(err); code != cli.ExitConfig {
		t.Errorf("missing config exit code = %d, want %d (err %v)", code, cli.ExitConfig, err)
	}

	bad := newTestEnv(t, "  max_lines: -1")
	_, err = execute(t, "-c", bad.config, "validate")
	if code := cli.ExitCode(err); code != cli.ExitConfig {
		t.Errorf("invalid config exit code = %d, want %d (err %v)", code, cli.ExitConfig, err)
	}
}

func TestNewRouter(t *testing.T) {
	env := newTestEnv(t, "")
	cfgFile = env.config
	a, err := newApp()
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.close()

	host := httplog.NewHost(httplog.WithMetrics(a.collector))
	logging.NewRuntime(a.logger).Init(host)
	router := newRouter(a, host)

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/ping", http.StatusOK, "pong"},
		{"/healthz", http.StatusOK, `"status":"ok"`},
		{"/readyz", http.StatusOK, `"status":"ready"`},
		{"/metrics", http.StatusOK, "sprylog_entries_written_total"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body missing %q:\n%s", tt.wantBody, rec.Body.String())
			}
		})
	}

	api := readFile(t, env.apiFile)
	for _, want := range []string{"192.0.2.1 Spry Request: Empty", "192.0.2.1 Spry Response: Response Code (200)"} {
		if !strings.Contains(api, want) {
			t.Errorf("api log missing %q:\n%s", want, api)
		}
	}
	if strings.Contains(api, "/healthz") || strings.Count(api, "Spry Response:") != 1 {
		t.Errorf("only /ping should be logged:\n%s", api)
	}
}

func TestNewRouter_RateLimit(t *testing.T) {
	env := newTestEnv(t, "server:\n  rate_limit: 1")
	cfgFile = env.config
	a, err := newApp()
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.close()

	router := newRouter(a, httplog.NewHost())

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/healthz should not be rate limited, got %d", rec.Code)
	}
}
