package archive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Rotator performs a rotation check on one file. *Archiver implements it
// without locking; the log writer implements it under its file lock.
type Rotator interface {
	MaybeRotate(path string) (Outcome, error)
}

// Sweeper runs rotation checks on a cron schedule, so idle log files that
// crossed their limit are rotated without waiting for the next write.
type Sweeper struct {
	rotator  Rotator
	paths    []string
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewSweeper creates a sweeper over paths. Empty paths are skipped.
func NewSweeper(rotator Rotator, schedule string, paths ...string) *Sweeper {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return &Sweeper{
		rotator:  rotator,
		paths:    kept,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "archive.sweeper"),
	}
}

// Start schedules the sweep.
//
// Common cron expressions:
//   - "*/5 * * * *"  - Every 5 minutes
//   - "0 * * * *"    - Hourly
//   - "0 3 * * *"    - Daily at 3 AM
//
// If the schedule is empty, the sweeper does nothing.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping sweeper")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("rotation sweeper started",
		"schedule", s.schedule,
		"files", len(s.paths),
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Sweep checks every path once and returns the number of files rotated.
func (s *Sweeper) Sweep(ctx context.Context) int {
	rotated := 0
	for _, path := range s.paths {
		if ctx.Err() != nil {
			break
		}

		out, err := s.rotator.MaybeRotate(path)
		if err != nil {
			s.logger.Error("scheduled rotation failed",
				"file", path,
				"error", err,
			)
			continue
		}
		if out.Rotated {
			rotated++
			s.logger.Info("scheduled rotation completed",
				"file", path,
				"mode", out.Mode,
				"lines_before", out.LinesBefore,
				"pruned", len(out.Pruned),
			)
		}
	}

	if rotated == 0 {
		s.logger.Debug("scheduled sweep completed, nothing rotated")
	}
	return rotated
}

// Stop stops the sweeper and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("rotation sweeper stopped")
	}
}

// IsRunning returns true if the sweeper is scheduled.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled sweep time.
func (s *Sweeper) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
