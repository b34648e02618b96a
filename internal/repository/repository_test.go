package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/promoforge/promoq/pkg/domain"
)

func setupRedis(t *testing.T) (context.Context, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return context.Background(), rdb
}

func TestObservationAppendAndReplay(t *testing.T) {
	ctx, rdb := setupRedis(t)
	repo := NewObservationRepository(rdb, 100)

	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	observations := []domain.Observation{
		{ArmKey: "tiktok", Reward: 1.2, ObservedAt: t0},
		{ArmKey: "instagram", Reward: 0.4, ObservedAt: t0.Add(time.Minute)},
		{ArmKey: "tiktok@18", Reward: 0.9, ObservedAt: t0.Add(2 * time.Minute)},
	}
	for _, obs := range observations {
		if err := repo.Append(ctx, obs); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	var replayed []domain.Observation
	n, err := repo.Replay(ctx, func(obs domain.Observation) {
		replayed = append(replayed, obs)
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if n != 3 || len(replayed) != 3 {
		t.Fatalf("replayed %d observations, want 3", n)
	}
	// Replay preserves append order so recency weighting reconstructs
	// identically.
	for i, obs := range replayed {
		if obs.ArmKey != observations[i].ArmKey {
			t.Errorf("replay[%d].ArmKey = %s, want %s", i, obs.ArmKey, observations[i].ArmKey)
		}
		if !obs.ObservedAt.Equal(observations[i].ObservedAt) {
			t.Errorf("replay[%d].ObservedAt = %v, want %v", i, obs.ObservedAt, observations[i].ObservedAt)
		}
	}
}

func TestObservationLogBounded(t *testing.T) {
	ctx, rdb := setupRedis(t)
	repo := NewObservationRepository(rdb, 5)

	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		obs := domain.Observation{ArmKey: "tiktok", Reward: float64(i), ObservedAt: t0.Add(time.Duration(i) * time.Second)}
		if err := repo.Append(ctx, obs); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	var rewards []float64
	n, err := repo.Replay(ctx, func(obs domain.Observation) { rewards = append(rewards, obs.Reward) })
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if n != 5 {
		t.Fatalf("log holds %d entries, want max 5", n)
	}
	if rewards[0] != 7 || rewards[4] != 11 {
		t.Errorf("log kept %v, want the newest five [7..11]", rewards)
	}
}

func TestObservationTrimBefore(t *testing.T) {
	ctx, rdb := setupRedis(t)
	repo := NewObservationRepository(rdb, 100)

	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		_ = repo.Append(ctx, domain.Observation{ArmKey: "a", Reward: 1, ObservedAt: t0.Add(time.Duration(i) * time.Hour)})
	}

	dropped, err := repo.TrimBefore(ctx, t0.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("TrimBefore: %v", err)
	}
	if dropped != 3 {
		t.Errorf("dropped %d, want 3", dropped)
	}
	n, _ := repo.Replay(ctx, func(domain.Observation) {})
	if n != 3 {
		t.Errorf("remaining %d, want 3", n)
	}
}

func archivedTask(id string, completedAt time.Time) *domain.Task {
	return &domain.Task{
		ID:          id,
		Type:        domain.TypeContentGeneration,
		Status:      domain.StatusCompleted,
		CreatedAt:   completedAt.Add(-10 * time.Minute),
		CompletedAt: &completedAt,
		Results:     domain.TaskResults{ContentGenerated: 2},
	}
}

func TestArchiveSaveAndGet(t *testing.T) {
	ctx, rdb := setupRedis(t)
	repo := NewArchiveRepository(rdb, time.UTC)

	end := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	task := archivedTask("task-1", end)
	if err := repo.Save(ctx, task); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "task-1" || got.Status != domain.StatusCompleted {
		t.Errorf("Get returned %+v", got)
	}
	if got.Results.ContentGenerated != 2 {
		t.Errorf("results not preserved: %+v", got.Results)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestArchiveCleanupExpired(t *testing.T) {
	ctx, rdb := setupRedis(t)
	repo := NewArchiveRepository(rdb, time.UTC)

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"old-1", "old-2", "fresh-1"} {
		end := base.Add(time.Duration(i) * time.Hour)
		if err := repo.Save(ctx, archivedTask(id, end)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	removed, err := repo.CleanupExpired(ctx, 100, base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed %d, want 2", removed)
	}

	if _, err := repo.Get(ctx, "old-1"); !errors.Is(err, ErrNotFound) {
		t.Error("old-1 should be gone")
	}
	if _, err := repo.Get(ctx, "fresh-1"); err != nil {
		t.Errorf("fresh-1 should survive: %v", err)
	}

	depth, err := repo.Depth(ctx)
	if err != nil {
		t.Fatalf("Depth: %v", err)
	}
	if depth != 1 {
		t.Errorf("Depth = %d, want 1", depth)
	}
}

func TestArchiveCleanupRespectsLimit(t *testing.T) {
	ctx, rdb := setupRedis(t)
	repo := NewArchiveRepository(rdb, time.UTC)

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		if err := repo.Save(ctx, archivedTask(id, base)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	removed, err := repo.CleanupExpired(ctx, 2, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed %d, want limit 2", removed)
	}
}
