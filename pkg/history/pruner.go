package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner caps the number of stored records.
type Pruner struct {
	store      Store
	maxRecords int64
	logger     *slog.Logger
}

// NewPruner creates a pruner keeping at most maxRecords. 0 keeps everything.
func NewPruner(store Store, maxRecords int64, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:      store,
		maxRecords: maxRecords,
		logger:     logger.With("component", "history.pruner"),
	}
}

// Prune deletes the oldest records beyond the cap and returns how many were
// removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.maxRecords <= 0 {
		return 0, nil
	}

	count, err := p.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	if count <= p.maxRecords {
		p.logger.Debug("record count within limit", "current", count, "max", p.maxRecords)
		return 0, nil
	}

	deleted, err := p.store.DeleteOldest(ctx, p.maxRecords)
	if err != nil {
		return 0, fmt.Errorf("prune by count failed: %w", err)
	}
	p.logger.Info("pruned run history", "deleted_count", deleted, "max_records", p.maxRecords)
	return deleted, nil
}

// Scheduler runs a Pruner on a cron schedule.
type Scheduler struct {
	pruner   *Pruner
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler. An empty schedule disables it.
func NewScheduler(pruner *Pruner, schedule string) *Scheduler {
	return &Scheduler{
		pruner:   pruner,
		schedule: schedule,
		cron:     cron.New(),
		logger:   pruner.logger,
	}
}

// Start registers the prune job and starts the cron runner. It returns
// immediately; the scheduler stops when ctx ends or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.runPruning(ctx) }); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("history prune scheduler started", "schedule", s.schedule, "max_records", s.pruner.maxRecords)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) runPruning(ctx context.Context) {
	if _, err := s.pruner.Prune(ctx); err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
	}
}

// Stop stops the scheduler and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("history prune scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled prune, or nil when not scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
