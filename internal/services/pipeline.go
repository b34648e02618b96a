package services

import (
	"context"
	"fmt"
	"time"

	"github.com/promoforge/promoq/internal/metrics"
	"github.com/promoforge/promoq/internal/providers"
	"github.com/promoforge/promoq/pkg/domain"
)

// runPipeline executes one task end to end. A single idea failing any of its
// stages is recorded and skipped; only failures outside the per-idea loop
// (idea/product resolution, panics) fail the whole task. Accumulated results
// survive either way.
func (s *orchestratorService) runPipeline(ctx context.Context, taskID string) {
	started := s.now()

	cfg, taskType, ok := s.snapshotConfig(taskID)
	if !ok {
		return
	}
	if !s.transition(taskID, domain.StatusPending, func(t *domain.Task) {
		t.Status = domain.StatusRunning
	}) {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.failTask(taskID, taskType, fmt.Sprintf("pipeline panic: %v", r), started)
		}
	}()

	ideas := s.resolveIdeas(ctx, cfg)
	products, err := s.resolveProducts(ctx, cfg)
	if err != nil {
		s.failTask(taskID, taskType, err.Error(), started)
		return
	}

	// Bounded prefix so a generous idea set cannot blow the cost budget.
	if len(ideas) > s.maxIdeas {
		ideas = ideas[:s.maxIdeas]
	}

	for _, idea := range ideas {
		if ctx.Err() != nil {
			// Cancel already moved the task to failed; stop producing.
			return
		}
		s.runIdea(ctx, taskID, cfg, idea, products)
	}

	completed := s.transition(taskID, domain.StatusRunning, func(t *domain.Task) {
		t.Results.EstimatedRevenue = s.estimateRevenue(t.Results)
		t.Status = domain.StatusCompleted
		end := s.now()
		t.CompletedAt = &end
	})
	if completed {
		metrics.TaskCompletedTotal.WithLabelValues(string(taskType), string(domain.StatusCompleted)).Inc()
		metrics.TaskProcessingLatencySeconds.WithLabelValues(string(taskType), string(domain.StatusCompleted)).Observe(s.now().Sub(started).Seconds())
		s.logger.Info("task completed", "taskId", taskID)
	}
}

func (s *orchestratorService) failTask(taskID string, taskType domain.TaskType, msg string, started time.Time) {
	failed := s.transition(taskID, domain.StatusRunning, func(t *domain.Task) {
		t.Status = domain.StatusFailed
		t.Error = msg
		end := s.now()
		t.CompletedAt = &end
	})
	if failed {
		metrics.TaskCompletedTotal.WithLabelValues(string(taskType), string(domain.StatusFailed)).Inc()
		metrics.TaskProcessingLatencySeconds.WithLabelValues(string(taskType), string(domain.StatusFailed)).Observe(s.now().Sub(started).Seconds())
		s.logger.Warn("task failed", "taskId", taskID, "err", msg)
	}
}

// resolveIdeas never fails: a degraded generator falls back to the static
// theme-scoped set so the pipeline keeps moving.
func (s *orchestratorService) resolveIdeas(ctx context.Context, cfg domain.AutomationConfig) []domain.ContentIdea {
	if s.collab.Ideas == nil {
		return providers.FallbackIdeas(cfg.ContentTheme)
	}
	ideas, err := s.collab.Ideas.Generate(ctx, cfg.ContentTheme, cfg.TargetAudience)
	if err != nil || len(ideas) == 0 {
		s.logger.Warn("idea generation degraded, using fallback", "theme", cfg.ContentTheme, "err", err)
		return providers.FallbackIdeas(cfg.ContentTheme)
	}
	return ideas
}

// resolveProducts is outside the per-idea loop; its errors are pipeline-fatal.
// An empty catalog result is fine and simply limits later stages.
func (s *orchestratorService) resolveProducts(ctx context.Context, cfg domain.AutomationConfig) ([]domain.Product, error) {
	if s.collab.Catalog == nil {
		return nil, nil
	}
	categories := cfg.ProductCategories
	if len(categories) == 0 {
		categories = []string{""}
	}
	var out []domain.Product
	for _, cat := range categories {
		products, err := s.collab.Catalog.Search(ctx, cat, s.maxLinks)
		if err != nil {
			return nil, fmt.Errorf("affiliate catalog search %q: %w", cat, err)
		}
		out = append(out, products...)
	}
	return out, nil
}

// runIdea executes stages (a)-(d) for one content idea. The first stage error
// is recorded against the task and the idea is abandoned; the caller moves on
// to the next one.
func (s *orchestratorService) runIdea(ctx context.Context, taskID string, cfg domain.AutomationConfig, idea domain.ContentIdea, products []domain.Product) {
	var topProduct *domain.Product
	if len(products) > 0 {
		topProduct = &products[0]
	}

	// (a) video content
	var content *domain.VideoContent
	if s.collab.CanGenerateVideo() {
		var err error
		content, err = s.collab.Video.Generate(ctx, idea, topProduct, cfg.Video)
		if err != nil {
			s.recordStageError(taskID, "video", fmt.Sprintf("video generation for %q: %v", idea.Title, err))
			return
		}
	} else {
		content = &domain.VideoContent{Script: idea.Description, Caption: idea.Title}
	}
	s.mutateResults(taskID, func(r *domain.TaskResults) { r.ContentGenerated++ })
	s.observeAcross(cfg.Platforms, s.estimates.RevenuePerPost*0.1)

	// (b) affiliate links
	if s.collab.Links != nil && len(products) > 0 {
		top := products
		if len(top) > s.maxLinks {
			top = top[:s.maxLinks]
		}
		links, err := s.collab.Links.Generate(ctx, top)
		if err != nil {
			s.recordStageError(taskID, "links", fmt.Sprintf("affiliate links for %q: %v", idea.Title, err))
			return
		}
		s.mutateResults(taskID, func(r *domain.TaskResults) { r.AffiliateLinks += len(links) })
		s.observeAcross(cfg.Platforms, s.estimates.RevenuePerLink*float64(len(links)))
	}

	// (c) posting
	if s.collab.CanPost() {
		posts, err := s.collab.Poster.Post(ctx, content, cfg.Platforms)
		if err != nil {
			s.recordStageError(taskID, "posting", fmt.Sprintf("posting %q: %v", idea.Title, err))
			return
		}
		completedAt := s.now()
		for _, p := range posts {
			if p.Success {
				platform := p.Platform
				s.mutateResults(taskID, func(r *domain.TaskResults) {
					if r.PostsPublished == nil {
						r.PostsPublished = map[string]int{}
					}
					r.PostsPublished[platform]++
				})
				s.observe(domain.PlatformArm(p.Platform), s.estimates.RevenuePerPost)
				s.observe(domain.SlotArm(p.Platform, completedAt.Hour()), s.estimates.RevenuePerPost)
			} else {
				// A zero-reward observation is still signal for the allocator.
				s.observe(domain.PlatformArm(p.Platform), 0)
			}
		}
	}

	// (d) ad campaigns
	if cfg.HasAdBudget() && s.collab.CanRunCampaigns() {
		for _, platform := range cfg.Platforms {
			if ctx.Err() != nil {
				return
			}
			campaign, err := s.collab.Campaigns.Create(ctx, platform, cfg.BudgetPerPlatform, cfg.TargetROAS, cfg.TargetAudience, content)
			if err != nil {
				s.recordStageError(taskID, "ads", fmt.Sprintf("ad campaign on %s for %q: %v", platform, idea.Title, err))
				continue
			}
			s.mutateResults(taskID, func(r *domain.TaskResults) { r.CampaignsCreated++ })
			s.observe(domain.PlatformArm(campaign.Platform), s.estimates.RevenuePerCampaign)
		}
	}
}

func (s *orchestratorService) recordStageError(taskID, stage, msg string) {
	metrics.StageFailuresTotal.WithLabelValues(stage).Inc()
	s.mutateResults(taskID, func(r *domain.TaskResults) {
		r.Errors = append(r.Errors, msg)
	})
	s.logger.Warn("stage failed", "taskId", taskID, "stage", stage, "err", msg)
}

func (s *orchestratorService) observe(armKey string, profit float64) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(armKey, profit/s.rewardScale, s.now())
}

// observeAcross attributes a non-platform-specific stage's profit evenly
// across the task's platforms.
func (s *orchestratorService) observeAcross(platforms []string, profit float64) {
	if s.recorder == nil || len(platforms) == 0 {
		return
	}
	share := profit / float64(len(platforms))
	for _, p := range platforms {
		s.recorder.Record(domain.PlatformArm(p), share/s.rewardScale, s.now())
	}
}

// estimateRevenue is a coarse order-of-magnitude estimator over accumulated
// counts, never authoritative accounting.
func (s *orchestratorService) estimateRevenue(r domain.TaskResults) float64 {
	return float64(r.TotalPostsPublished())*s.estimates.RevenuePerPost +
		float64(r.CampaignsCreated)*s.estimates.RevenuePerCampaign +
		float64(r.AffiliateLinks)*s.estimates.RevenuePerLink
}
