package providers

import (
	"context"

	"github.com/promoforge/promoq/pkg/domain"
)

// The pipeline consumes external collaborators through these narrow
// interfaces. Implementations live behind capability checks: the pipeline
// asks Providers once per task which collaborators are configured and routes
// accordingly, instead of nil-checking at every call site.

type ContentIdeaGenerator interface {
	// Generate must not fail hard on a degraded service: implementations
	// return their static fallback set instead of an error whenever they can.
	Generate(ctx context.Context, theme, audience string) ([]domain.ContentIdea, error)
}

type AffiliateCatalog interface {
	Search(ctx context.Context, category string, limit int) ([]domain.Product, error)
}

type VideoContentGenerator interface {
	Generate(ctx context.Context, idea domain.ContentIdea, product *domain.Product, opts domain.VideoOptions) (*domain.VideoContent, error)
}

type AffiliateLinkGenerator interface {
	Generate(ctx context.Context, products []domain.Product) ([]string, error)
}

type MultiPlatformPoster interface {
	Post(ctx context.Context, content *domain.VideoContent, platforms []string) ([]domain.PostResult, error)
}

type AdCampaignManager interface {
	Create(ctx context.Context, platform string, budget, targetROAS float64, audience string, creative *domain.VideoContent) (*domain.Campaign, error)
}

// Providers bundles the configured collaborators. Nil fields mean the
// capability is absent and the pipeline skips the corresponding stage.
type Providers struct {
	Ideas     ContentIdeaGenerator
	Catalog   AffiliateCatalog
	Video     VideoContentGenerator
	Links     AffiliateLinkGenerator
	Poster    MultiPlatformPoster
	Campaigns AdCampaignManager
}

func (p Providers) CanPost() bool          { return p.Poster != nil }
func (p Providers) CanRunCampaigns() bool  { return p.Campaigns != nil }
func (p Providers) CanGenerateVideo() bool { return p.Video != nil }
