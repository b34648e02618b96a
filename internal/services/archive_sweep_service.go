package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/promoforge/promoq/internal/repository"
)

// ArchiveSweepService periodically moves terminal tasks out of the in-memory
// registry into the Redis archive, and expires archived tasks past retention.
type ArchiveSweepService interface {
	Start(ctx context.Context)
	SweepOnce(ctx context.Context) int
}

// Terminal tasks stay in the registry briefly so status polls right after
// completion still hit memory; afterwards the archive serves them.
const terminalHold = 5 * time.Minute

type archiveSweepService struct {
	orchestrator OrchestratorService
	archive      repository.ArchiveRepository
	observations repository.ObservationRepository
	logger       *slog.Logger
	interval     time.Duration
	retention    time.Duration
	obsRetention time.Duration
	now          func() time.Time
}

func NewArchiveSweepService(orchestrator OrchestratorService, archive repository.ArchiveRepository, observations repository.ObservationRepository, logger *slog.Logger, intervalSeconds, retentionMinutes, observationRetentionMinutes int) ArchiveSweepService {
	if intervalSeconds <= 0 {
		intervalSeconds = 60
	}
	if retentionMinutes <= 0 {
		retentionMinutes = 240
	}
	if observationRetentionMinutes <= 0 {
		observationRetentionMinutes = retentionMinutes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &archiveSweepService{
		orchestrator: orchestrator,
		archive:      archive,
		observations: observations,
		logger:       logger,
		interval:     time.Duration(intervalSeconds) * time.Second,
		retention:    time.Duration(retentionMinutes) * time.Minute,
		obsRetention: time.Duration(observationRetentionMinutes) * time.Minute,
		now:          time.Now,
	}
}

func (s *archiveSweepService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce evicts terminal tasks past the hold from the registry and
// archives them, prunes archive entries past retention, and trims the
// observation log. Returns the number of tasks archived.
func (s *archiveSweepService) SweepOnce(ctx context.Context) int {
	evicted := s.orchestrator.EvictTerminalBefore(s.now().Add(-terminalHold))
	archived := 0
	for _, task := range evicted {
		if s.archive == nil {
			continue
		}
		if err := s.archive.Save(ctx, task); err != nil {
			s.logger.Warn("task archive failed", "taskId", task.ID, "err", err)
			continue
		}
		archived++
	}
	if s.archive != nil {
		removed, err := s.archive.CleanupExpired(ctx, 1000, s.now().Add(-s.retention))
		if err != nil {
			s.logger.Warn("archive cleanup failed", "err", err)
		} else if removed > 0 {
			s.logger.Info("archive cleanup removed", "count", removed)
		}
	}
	if s.observations != nil {
		// Observations past the allocator's window cannot change a replayed
		// aggregate, so the log is trimmed to the same horizon.
		trimmed, err := s.observations.TrimBefore(ctx, s.now().Add(-s.obsRetention))
		if err != nil {
			s.logger.Warn("observation log trim failed", "err", err)
		} else if trimmed > 0 {
			s.logger.Info("observation log trimmed", "count", trimmed)
		}
	}
	return archived
}
