package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"spry-hq/sprylog/pkg/archive"
)

// CheckFunc performs a health check for a component. It returns nil if the
// component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// CheckResult represents the result of a single health check.
type CheckResult struct {
	// Status is "ok" or "unhealthy"
	Status string `json:"status"`

	// Message describes the failure of an unhealthy check
	Message string `json:"message,omitempty"`

	// Duration is how long the check took
	Duration time.Duration `json:"duration_ms,omitempty"`
}

// HealthStatus represents the overall health status of the sidecar.
type HealthStatus struct {
	// Status is the overall status: "ok", "ready" or "degraded"
	Status string `json:"status"`

	// Checks contains the status of individual components (for readiness)
	Checks map[string]CheckResult `json:"checks,omitempty"`

	// Timestamp is when the health check was performed
	Timestamp time.Time `json:"timestamp"`
}

// Checker manages health checks for the log destinations.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc

	checkTimeout time.Duration
}

// ErrCheckTimeout is returned when a health check times out.
var ErrCheckTimeout = errors.New("health check timeout")

// New creates a new health checker with the specified check timeout.
// If timeout is 0, defaults to 5 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}

	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
	}
}

// RegisterCheck registers a health check function for a named component.
// If a check with the same name already exists, it will be replaced.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = check
}

// CheckLiveness reports that the process is running.
func (c *Checker) CheckLiveness(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
	}
}

// CheckReadiness runs every registered check concurrently and aggregates
// the results. Any unhealthy check makes the status "degraded".
func (c *Checker) CheckReadiness(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()

			result := c.runCheck(ctx, check)

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}
	wg.Wait()

	status := "ready"
	for _, result := range results {
		if result.Status == "unhealthy" {
			status = "degraded"
		}
	}

	return HealthStatus{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// runCheck executes a single health check with timeout.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	errChan := make(chan error, 1)
	go func() {
		errChan <- check(checkCtx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return CheckResult{Status: "unhealthy", Message: err.Error(), Duration: time.Since(start)}
		}
		return CheckResult{Status: "ok", Duration: time.Since(start)}

	case <-checkCtx.Done():
		return CheckResult{Status: "unhealthy", Message: ErrCheckTimeout.Error(), Duration: time.Since(start)}
	}
}

// FileWritable returns a check that passes when path can be opened for
// appending, or, if it does not exist yet, when its directory exists.
func FileWritable(path string) CheckFunc {
	return func(ctx context.Context) error {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
		if err == nil {
			return f.Close()
		}
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}

		dir := filepath.Dir(path)
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("log directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("log directory %s is not a directory", dir)
		}
		return nil
	}
}

// LineLimit returns a check that fails when path holds more than twice
// maxLines lines. Rotation keeps a file near maxLines, so only a rotation
// that keeps failing gets there. A missing file and a maxLines of zero
// always pass.
func LineLimit(path string, maxLines int) CheckFunc {
	return func(ctx context.Context) error {
		if maxLines <= 0 {
			return nil
		}
		content, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if n := archive.CountLines(string(content)); n > 2*maxLines {
			return fmt.Errorf("rotation stalled: %s has %d lines, limit is %d", filepath.Base(path), n, maxLines)
		}
		return nil
	}
}
