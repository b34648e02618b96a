package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/promoforge/promoq/internal/backoff"
	"github.com/promoforge/promoq/internal/bandit"
	"github.com/promoforge/promoq/internal/metrics"
	"github.com/promoforge/promoq/internal/middleware"
	"github.com/promoforge/promoq/internal/providers"
	"github.com/promoforge/promoq/internal/ratelimit"
	"github.com/promoforge/promoq/internal/repository"
	"github.com/promoforge/promoq/internal/services"
	"github.com/promoforge/promoq/internal/tracing"
	"github.com/promoforge/promoq/pkg/config"
)

type Application struct {
	Config       *config.Config
	Engine       *gin.Engine
	Orchestrator services.OrchestratorService
	Allocations  services.AllocationService
	Sweeper      services.ArchiveSweepService
	Archive      repository.ArchiveRepository
	Logger       *slog.Logger
	TZ           *time.Location
	RateLimiter  ratelimit.Limiter
	Redis        *redis.Client

	TracingShutdown func(context.Context) error

	collabOverride *providers.Providers
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithProviders overrides the collaborator set chosen from config; tests use
// it to substitute fakes.
func WithProviders(collab providers.Providers) ApplicationOption {
	return func(app *Application) error {
		app.collabOverride = &collab
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	redisClient := providers.NewRedisProvider(cfg.RedisAddr, cfg.RedisPassword)
	limiter := ratelimit.NewTokenBucketLimiter(redisClient)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("UTC", 0)
	}

	level := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler).With("service", "promoq", "env", cfg.Env)
	slog.SetDefault(logger)

	tracingShutdown, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
		SampleRatio:  cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		logger.Warn("tracing setup failed, continuing without export", "err", err)
		tracingShutdown = func(context.Context) error { return nil }
	}

	allocator := bandit.NewAllocator(bandit.Options{
		Window:               time.Duration(cfg.Bandit.WindowMinutes) * time.Minute,
		MaxWindow:            cfg.Bandit.WindowMaxSize,
		HalfLife:             time.Duration(cfg.Bandit.HalfLifeMinutes) * time.Minute,
		ExplorationCoeff:     cfg.Bandit.ExplorationCoeff,
		MinShareFloor:        cfg.Bandit.MinShareFloor,
		ImprovementCapPct:    cfg.Bandit.ImprovementCapPct,
		ReallocateThreshold:  cfg.Bandit.ReallocateThreshold,
		ScheduleWindows:      cfg.Bandit.ScheduleWindows,
		ScheduleWindowLength: cfg.Bandit.ScheduleWindowLength,
	})
	obsLog := repository.NewObservationRepository(redisClient, cfg.Bandit.WindowMaxSize*16)
	allocations := services.NewAllocationService(allocator, obsLog, logger)
	if replayed, err := allocations.Restore(context.Background()); err != nil {
		logger.Warn("observation replay failed, starting cold", "err", err)
	} else if replayed > 0 {
		logger.Info("observation log replayed", "count", replayed)
	}

	app := &Application{
		Config:      cfg,
		Logger:      logger,
		TZ:          loc,
		RateLimiter: limiter,
		Redis:       redisClient,
		Allocations: allocations,

		TracingShutdown: tracingShutdown,
	}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	collab := app.buildProviders(cfg, logger)

	orchestrator := services.NewOrchestratorService(
		collab,
		allocations,
		logger,
		time.Now,
		cfg.MaxConcurrentTasks,
		cfg.MaxIdeasPerTask,
		cfg.MaxLinksPerIdea,
		cfg.Estimates,
		cfg.Bandit.RewardScale,
	)

	archive := repository.NewArchiveRepository(redisClient, loc)
	metrics.RegisterRedisCollector(redisClient, archive, logger)
	sweeper := services.NewArchiveSweepService(orchestrator, archive, obsLog, logger, cfg.ArchiveSweepSeconds, cfg.ArchiveRetentionMinutes, cfg.Bandit.WindowMinutes)
	go sweeper.Start(context.Background())

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestIDMiddleware(), middleware.LoggerMiddleware(logger))
	if cfg.Tracing.Enabled {
		engine.Use(middleware.TracingMiddleware(cfg.Tracing.ServiceName))
	}

	app.Engine = engine
	app.Orchestrator = orchestrator
	app.Sweeper = sweeper
	app.Archive = archive
	return app, nil
}

// buildProviders assembles the collaborator set from config: each capability
// independently picks the real integration when configured and the local
// stand-in otherwise.
func (app *Application) buildProviders(cfg *config.Config, logger *slog.Logger) providers.Providers {
	if app.collabOverride != nil {
		return *app.collabOverride
	}

	collab := providers.Providers{
		Catalog:   providers.NewStaticCatalog(),
		Links:     providers.StaticLinkGenerator{},
		Poster:    providers.SimulatedPoster{},
		Campaigns: providers.SimulatedCampaignManager{},
	}

	if cfg.GeminiAPIKey != "" {
		gen, err := providers.NewGeminiIdeaGenerator(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxIdeasPerTask, logger)
		if err != nil {
			logger.Warn("gemini init failed, using static ideas", "err", err)
			collab.Ideas = providers.StaticIdeaGenerator{}
		} else {
			collab.Ideas = gen
		}
	} else {
		collab.Ideas = providers.StaticIdeaGenerator{}
	}

	if cfg.RenderServiceURL != "" {
		artifacts := providers.NewLocalArtifactStore(cfg.ArtifactsDir)
		pollDelay := time.Duration(cfg.RenderPollDelaySeconds) * time.Second
		collab.Video = providers.NewRenderFarmVideoGenerator(
			cfg.RenderServiceURL,
			artifacts,
			cfg.RenderPollMaxAttempts,
			backoff.Policy{Kind: cfg.RenderPollBackoff, Base: pollDelay, Max: 6 * pollDelay},
		)
	} else {
		collab.Video = providers.CaptionOnlyVideoGenerator{}
	}

	return collab
}
