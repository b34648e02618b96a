package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

// ArchiveDepth is the slice of the archive repository the collector needs.
type ArchiveDepth interface {
	Depth(ctx context.Context) (int64, error)
}

// redisCollector surfaces the depth of the Redis-backed stores at scrape time
// so dashboards see archive growth and observation-log size without the
// service keeping its own gauges in sync.
type redisCollector struct {
	rdb     *redis.Client
	archive ArchiveDepth
	logger  *slog.Logger

	archiveDepthDesc *prometheus.Desc
	obsLogDepthDesc  *prometheus.Desc
}

func newRedisCollector(rdb *redis.Client, archive ArchiveDepth, logger *slog.Logger) *redisCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisCollector{
		rdb:     rdb,
		archive: archive,
		logger:  logger,
		archiveDepthDesc: prometheus.NewDesc(
			"promoq_task_archive_depth",
			"Current number of archived terminal tasks.",
			nil,
			nil,
		),
		obsLogDepthDesc: prometheus.NewDesc(
			"promoq_observation_log_depth",
			"Current length of the persisted observation log.",
			nil,
			nil,
		),
	}
}

func (c *redisCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.archiveDepthDesc
	ch <- c.obsLogDepthDesc
}

func (c *redisCollector) Collect(ch chan<- prometheus.Metric) {
	if c.rdb == nil {
		return
	}

	// Keep Redis reads bounded so scrapes do not hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if c.archive != nil {
		depth, err := c.archive.Depth(ctx)
		if err != nil {
			c.logger.Warn("prometheus archive depth failed", "err", err)
		} else {
			emitGauge(ch, c.archiveDepthDesc, float64(depth))
		}
	}

	obsLen, err := c.rdb.LLen(ctx, "promoq:observations").Result()
	if err != nil && err != redis.Nil {
		c.logger.Warn("prometheus redis collector failed", "err", err)
		return
	}
	emitGauge(ch, c.obsLogDepthDesc, float64(obsLen))
}

func emitGauge(ch chan<- prometheus.Metric, desc *prometheus.Desc, v float64, labelValues ...string) {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, v, labelValues...)
	if err != nil {
		return
	}
	ch <- m
}

var registerRedisCollectorOnce sync.Once

func RegisterRedisCollector(rdb *redis.Client, archive ArchiveDepth, logger *slog.Logger) {
	registerRedisCollectorOnce.Do(func() {
		prometheus.MustRegister(newRedisCollector(rdb, archive, logger))
	})
}
