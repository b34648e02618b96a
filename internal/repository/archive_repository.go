package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/promoforge/promoq/pkg/domain"
)

var ErrNotFound = errors.New("not-found")

// ArchiveRepository keeps terminal tasks after the retention sweep drops them
// from the in-memory registry, so status lookups keep working for a while
// without the registry growing without bound.
type ArchiveRepository interface {
	Save(ctx context.Context, task *domain.Task) error
	Get(ctx context.Context, id string) (*domain.Task, error)
	CleanupExpired(ctx context.Context, limit int, before time.Time) (int, error)
	Depth(ctx context.Context) (int64, error)
}

type archiveRedisRepo struct {
	rdb *redis.Client
	tz  *time.Location
}

func NewArchiveRepository(rdb *redis.Client, tz *time.Location) ArchiveRepository {
	if tz == nil {
		tz = time.UTC
	}
	return &archiveRedisRepo{rdb: rdb, tz: tz}
}

func (r *archiveRedisRepo) keyArchiveHash() string { return "promoq:tasks:archive" }
func (r *archiveRedisRepo) keyTTLIndex() string    { return "promoq:tasks:archive:ttl" }

func (r *archiveRedisRepo) Save(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return errors.New("invalid task")
	}
	b, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	archivedAt := time.Now().In(r.tz)
	if task.CompletedAt != nil {
		archivedAt = *task.CompletedAt
	}
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, r.keyArchiveHash(), task.ID, string(b))
	pipe.ZAdd(ctx, r.keyTTLIndex(), &redis.Z{Score: float64(archivedAt.Unix()), Member: task.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis archive task: %w", err)
	}
	return nil
}

func (r *archiveRedisRepo) Get(ctx context.Context, id string) (*domain.Task, error) {
	js, err := r.rdb.HGet(ctx, r.keyArchiveHash(), id).Result()
	if err == redis.Nil || js == "" {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGET archived task: %w", err)
	}
	var t domain.Task
	if err := json.Unmarshal([]byte(js), &t); err != nil {
		return nil, fmt.Errorf("unmarshal archived task: %w", err)
	}
	return &t, nil
}

func (r *archiveRedisRepo) CleanupExpired(ctx context.Context, limit int, before time.Time) (int, error) {
	if limit <= 0 {
		limit = 1000
	}
	ids, err := r.rdb.ZRangeByScore(ctx, r.keyTTLIndex(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", before.Unix()),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ZRANGEBYSCORE archive ttl: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	pipe := r.rdb.TxPipeline()
	pipe.HDel(ctx, r.keyArchiveHash(), ids...)
	pipe.ZRem(ctx, r.keyTTLIndex(), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis archive cleanup: %w", err)
	}
	return len(ids), nil
}

func (r *archiveRedisRepo) Depth(ctx context.Context) (int64, error) {
	return r.rdb.HLen(ctx, r.keyArchiveHash()).Result()
}
