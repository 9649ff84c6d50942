// Package server runs the sprylog sidecar's HTTP server.
//
// It owns the listener and the lifecycle: Start serves until the context is
// cancelled or the listener fails, then shuts down gracefully within
// ServerConfig.ShutdownTimeout. Routing is left to the caller.
//
//	srv := server.NewServer(&cfg.Server, router)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// The shutdown process:
//  1. Stops accepting new connections
//  2. Waits for active requests to complete (up to the shutdown timeout)
//  3. Runs the registered shutdown hooks
package server
