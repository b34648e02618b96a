package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/promoforge/promoq/pkg/domain"
)

// ObservationRepository is an append-only log of bandit observations. The
// allocator itself stays in-memory; replaying the log at startup
// deterministically reconstructs its aggregates.
type ObservationRepository interface {
	Append(ctx context.Context, obs domain.Observation) error
	Replay(ctx context.Context, fn func(obs domain.Observation)) (int, error)
	TrimBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type observationRedisRepo struct {
	rdb     *redis.Client
	maxSize int64
}

func NewObservationRepository(rdb *redis.Client, maxSize int) ObservationRepository {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &observationRedisRepo{rdb: rdb, maxSize: int64(maxSize)}
}

func (r *observationRedisRepo) keyLog() string { return "promoq:observations" }

func (r *observationRedisRepo) Append(ctx context.Context, obs domain.Observation) error {
	b, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("marshal observation: %w", err)
	}
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, r.keyLog(), string(b))
	pipe.LTrim(ctx, r.keyLog(), -r.maxSize, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis RPUSH observation: %w", err)
	}
	return nil
}

func (r *observationRedisRepo) Replay(ctx context.Context, fn func(obs domain.Observation)) (int, error) {
	entries, err := r.rdb.LRange(ctx, r.keyLog(), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis LRANGE observations: %w", err)
	}
	replayed := 0
	for _, e := range entries {
		var obs domain.Observation
		if err := json.Unmarshal([]byte(e), &obs); err != nil {
			// Corrupt entries are skipped rather than poisoning the replay.
			continue
		}
		fn(obs)
		replayed++
	}
	return replayed, nil
}

func (r *observationRedisRepo) TrimBefore(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := r.rdb.LRange(ctx, r.keyLog(), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis LRANGE observations: %w", err)
	}
	drop := 0
	for _, e := range entries {
		var obs domain.Observation
		if err := json.Unmarshal([]byte(e), &obs); err != nil {
			drop++
			continue
		}
		if !obs.ObservedAt.Before(cutoff) {
			break
		}
		drop++
	}
	if drop == 0 {
		return 0, nil
	}
	if err := r.rdb.LTrim(ctx, r.keyLog(), int64(drop), -1).Err(); err != nil {
		return 0, fmt.Errorf("redis LTRIM observations: %w", err)
	}
	return drop, nil
}
