package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/promoforge/promoq/internal/bandit"
	"github.com/promoforge/promoq/internal/repository"
	"github.com/promoforge/promoq/pkg/domain"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestAllocationServicePersistsAndRestores(t *testing.T) {
	rdb := setupRedis(t)
	log := repository.NewObservationRepository(rdb, 100)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := NewAllocationService(bandit.NewAllocator(bandit.Options{Now: func() time.Time { return now }}), log, nil)
	first.Record("tiktok", 0.8, now.Add(-time.Minute))
	first.Record("youtube", 0.2, now.Add(-time.Minute))
	first.Record("tiktok", 0.9, now.Add(-30*time.Second))

	// A fresh allocator warm-started from the log should agree with the one
	// that lived through the observations.
	second := NewAllocationService(bandit.NewAllocator(bandit.Options{Now: func() time.Time { return now }}), log, nil)
	replayed, err := second.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if replayed != 3 {
		t.Fatalf("expected 3 replayed observations, got %d", replayed)
	}

	platforms := []string{"tiktok", "youtube"}
	a := first.Recommend(platforms, 100)
	b := second.Recommend(platforms, 100)
	for _, p := range platforms {
		if a.PlatformSplit[p] != b.PlatformSplit[p] {
			t.Fatalf("split for %s diverged after restore: %.4f vs %.4f", p, a.PlatformSplit[p], b.PlatformSplit[p])
		}
	}
	if a.PlatformSplit["tiktok"] <= a.PlatformSplit["youtube"] {
		t.Fatalf("expected tiktok favored, got %v", a.PlatformSplit)
	}
}

func TestAllocationServiceWithoutLog(t *testing.T) {
	svc := NewAllocationService(bandit.NewAllocator(bandit.Options{}), nil, nil)
	svc.Record("tiktok", 0.5, time.Now())
	if n, err := svc.Restore(context.Background()); err != nil || n != 0 {
		t.Fatalf("expected no-op restore, got n=%d err=%v", n, err)
	}
	if stats := svc.Stats(); len(stats) != 1 {
		t.Fatalf("expected 1 arm, got %d", len(stats))
	}
}

func TestArchiveSweepMovesTerminalTasks(t *testing.T) {
	rdb := setupRedis(t)
	archive := repository.NewArchiveRepository(rdb, time.UTC)

	clock := time.Now()
	orch := NewOrchestratorService(fullProviders(), nil, nil, func() time.Time { return clock }, 10, 3, 3, testEstimates(), 100)
	task, _, err := orch.Submit(context.Background(), domain.TypeContentGeneration, baseConfig())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitStatus(t, orch, task.ID, domain.StatusCompleted)

	obsLog := repository.NewObservationRepository(rdb, 100)
	if err := obsLog.Append(context.Background(), domain.Observation{ArmKey: "tiktok", Reward: 0.5, ObservedAt: clock.Add(-2 * time.Hour)}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := obsLog.Append(context.Background(), domain.Observation{ArmKey: "tiktok", Reward: 0.7, ObservedAt: clock}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	sweep := NewArchiveSweepService(orch, archive, obsLog, nil, 60, 240, 60).(*archiveSweepService)

	// Not past the hold yet: nothing moves.
	if archived := sweep.SweepOnce(context.Background()); archived != 0 {
		t.Fatalf("expected no archival inside the hold window, got %d", archived)
	}

	sweep.now = func() time.Time { return clock.Add(terminalHold + time.Minute) }
	if archived := sweep.SweepOnce(context.Background()); archived != 1 {
		t.Fatal("expected the completed task to be archived")
	}
	if _, err := orch.GetStatus(context.Background(), task.ID); err == nil {
		t.Fatal("expected task gone from the registry")
	}
	got, err := archive.Get(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("archive Get: %v", err)
	}
	if got.Status != domain.StatusCompleted || got.Results.TotalPostsPublished() == 0 {
		t.Fatalf("archived task lost its results: %+v", got)
	}

	// The stale observation falls outside the allocator window and is trimmed;
	// the fresh one survives for replay.
	remaining, err := obsLog.Replay(context.Background(), func(domain.Observation) {})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected 1 observation after trim, got %d", remaining)
	}

	// Past retention the archive forgets it too.
	sweep.now = func() time.Time { return clock.Add(241 * time.Minute) }
	sweep.SweepOnce(context.Background())
	if _, err := archive.Get(context.Background(), task.ID); err == nil {
		t.Fatal("expected archive entry expired after retention")
	}
}
