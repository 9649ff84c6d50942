package cli

import (
	"context"
	"testing"
	"time"
)

func TestSetupSignalHandler(t *testing.T) {
	ctx, stop := SetupSignalHandler(context.Background())

	select {
	case <-ctx.Done():
		t.Fatal("context cancelled before any signal")
	case <-time.After(10 * time.Millisecond):
	}

	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Error("stop should cancel the context")
	}
}

func TestSetupSignalHandler_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := SetupSignalHandler(parent)
	defer stop()

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Error("parent cancellation should propagate")
	}
}
