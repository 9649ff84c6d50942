package server

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"spry-hq/sprylog/pkg/config"
)

func TestServer_Lifecycle(t *testing.T) {
	cfg := &config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	srv := NewServer(cfg, handler)
	var hooked atomic.Bool
	srv.OnShutdown(func(context.Context) { hooked.Store(true) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	select {
	case <-srv.Ready():
	case <-time.After(3 * time.Second):
		t.Fatal("server did not become ready")
	}
	if !srv.IsRunning() {
		t.Error("IsRunning() = false after Ready")
	}

	resp, err := http.Get("http://" + srv.Addr().String() + "/ping")
	if err != nil {
		t.Fatalf("GET /ping: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("body = %q, want pong", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}

	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
	if !hooked.Load() {
		t.Error("shutdown hook did not run")
	}
}

func TestServer_ListenError(t *testing.T) {
	srv := NewServer(&config.ServerConfig{ListenAddress: "256.0.0.1:bad"}, http.NotFoundHandler())
	if err := srv.Start(context.Background()); err == nil {
		t.Error("Start() with an invalid address should fail")
	}
	if srv.Addr() != nil {
		t.Error("Addr() should be nil when listening failed")
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	srv := NewServer(&config.ServerConfig{}, http.NotFoundHandler())
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() before Start = %v", err)
	}
}
