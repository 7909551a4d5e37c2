// Package cleanup prunes old audit-log entries on a cron schedule.
// Retention is opt-in: the audit log is append-only in normal operation
// and nothing is removed unless a schedule is configured.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"maru/internal/metrics"
	"maru/internal/moderation"
)

// Options configures a retention sweep.
type Options struct {
	// RetentionDays is how long entries are kept, counted from CreatedAt.
	RetentionDays int

	// DryRun reports what would be deleted without deleting anything.
	DryRun bool
}

// Result holds the outcome of one retention sweep.
type Result struct {
	TargetCount  int       `json:"target_count"`
	DeletedCount int       `json:"deleted_count"`
	DryRun       bool      `json:"dry_run"`
	Cutoff       time.Time `json:"cutoff"`
	ExecutedAt   time.Time `json:"executed_at"`
}

// Service runs retention sweeps over the audit log.
type Service struct {
	audit moderation.AuditStore
	cron  *cron.Cron

	running bool
}

// NewService creates a cleanup service over the given audit store.
func NewService(audit moderation.AuditStore) *Service {
	return &Service{
		audit: audit,
		cron:  cron.New(),
	}
}

// Sweep deletes audit entries older than the retention window and returns
// what happened. With DryRun set it only counts.
func (s *Service) Sweep(ctx context.Context, opts Options) (*Result, error) {
	if opts.RetentionDays <= 0 {
		return nil, fmt.Errorf("retention days must be positive, got %d", opts.RetentionDays)
	}

	cutoff := time.Now().AddDate(0, 0, -opts.RetentionDays)
	result := &Result{
		DryRun:     opts.DryRun,
		Cutoff:     cutoff,
		ExecutedAt: time.Now(),
	}

	// Count candidates first so a dry run reports the same number a real
	// sweep would delete.
	all, err := s.audit.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}
	for _, e := range all {
		if e.CreatedAt.Before(cutoff) {
			result.TargetCount++
		}
	}

	if opts.DryRun {
		log.Info().
			Int("target", result.TargetCount).
			Time("cutoff", cutoff).
			Msg("Retention sweep dry run")
		return result, nil
	}

	deleted, err := s.audit.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("prune audit entries: %w", err)
	}
	result.DeletedCount = deleted
	metrics.AuditEntriesPrunedTotal.Add(float64(deleted))

	log.Info().
		Int("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("Retention sweep completed")

	return result, nil
}

// Start schedules recurring sweeps. The schedule uses standard cron syntax.
func (s *Service) Start(schedule string, opts Options) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background(), opts); err != nil {
			log.Error().Err(err).Msg("Scheduled retention sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule retention sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	log.Info().
		Str("schedule", schedule).
		Int("retention_days", opts.RetentionDays).
		Msg("Retention scheduler started")

	return nil
}

// Stop halts the scheduler. In-flight sweeps finish.
func (s *Service) Stop() {
	if s.running {
		s.cron.Stop()
		s.running = false
		log.Info().Msg("Retention scheduler stopped")
	}
}
