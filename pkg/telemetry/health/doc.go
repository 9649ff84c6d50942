// Package health provides the sidecar's liveness and readiness endpoints.
//
// Readiness is driven by registered checks; the serve command registers one
// FileWritable check per configured log destination so that a full disk or a
// permission change surfaces as a 503 on /readyz.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("api_file", health.FileWritable(cfg.Logger.APIFile))
//	health.Mount(router, checker, Version, GitCommit, BuildDate)
package health
