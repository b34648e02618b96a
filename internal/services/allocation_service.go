package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/promoforge/promoq/internal/bandit"
	"github.com/promoforge/promoq/internal/metrics"
	"github.com/promoforge/promoq/internal/repository"
	"github.com/promoforge/promoq/pkg/domain"
)

// ObservationRecorder receives per-arm reward observations emitted by the
// pipeline while tasks run.
type ObservationRecorder interface {
	Record(armKey string, reward float64, at time.Time)
}

// AllocationService exposes the allocator's read side plus observation intake
// from outside callers (the HTTP surface and the feedback loop).
type AllocationService interface {
	ObservationRecorder
	Recommend(platforms []string, totalBudget float64) domain.AllocationRecommendation
	ShouldReallocate(currentSplit map[string]float64) bool
	Stats() []bandit.ArmStats
	// Restore replays the persisted observation log so recommendations
	// survive a restart warm.
	Restore(ctx context.Context) (int, error)
}

type allocationService struct {
	allocator *bandit.Allocator
	log       repository.ObservationRepository
	logger    *slog.Logger
}

func NewAllocationService(allocator *bandit.Allocator, log repository.ObservationRepository, logger *slog.Logger) AllocationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &allocationService{allocator: allocator, log: log, logger: logger}
}

func (s *allocationService) Record(armKey string, reward float64, at time.Time) {
	s.allocator.RecordObservation(armKey, reward, at)
	platform, _, _ := domain.SplitArmKey(armKey)
	metrics.ObservationsRecordedTotal.WithLabelValues(platform).Inc()
	if s.log == nil {
		return
	}
	// Persistence is best-effort; the in-memory allocator already has the
	// observation, so a Redis hiccup only costs warm-start fidelity.
	if err := s.log.Append(context.Background(), domain.Observation{ArmKey: armKey, Reward: reward, ObservedAt: at}); err != nil {
		s.logger.Warn("observation append failed", "arm", armKey, "err", err)
	}
}

func (s *allocationService) Recommend(platforms []string, totalBudget float64) domain.AllocationRecommendation {
	return s.allocator.RecommendAllocation(platforms, totalBudget)
}

func (s *allocationService) ShouldReallocate(currentSplit map[string]float64) bool {
	return s.allocator.ShouldReallocate(currentSplit)
}

func (s *allocationService) Stats() []bandit.ArmStats {
	return s.allocator.Stats()
}

func (s *allocationService) Restore(ctx context.Context) (int, error) {
	if s.log == nil {
		return 0, nil
	}
	return s.log.Replay(ctx, func(o domain.Observation) {
		s.allocator.RecordObservation(o.ArmKey, o.Reward, o.ObservedAt)
	})
}
