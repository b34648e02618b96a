package providers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/promoforge/promoq/pkg/domain"
)

// SimulatedPoster stands in for real platform publishing APIs. Every post
// succeeds; the synthetic URLs make results traceable in dev.
type SimulatedPoster struct{}

func (SimulatedPoster) Post(ctx context.Context, content *domain.VideoContent, platforms []string) ([]domain.PostResult, error) {
	if content == nil {
		return nil, fmt.Errorf("no content to post")
	}
	out := make([]domain.PostResult, 0, len(platforms))
	for _, p := range platforms {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, domain.PostResult{
			Platform: p,
			Success:  true,
			PostURL:  fmt.Sprintf("https://%s.example/posts/%s", p, uuid.NewString()),
		})
	}
	return out, nil
}

// SimulatedCampaignManager stands in for platform ad APIs.
type SimulatedCampaignManager struct{}

func (SimulatedCampaignManager) Create(ctx context.Context, platform string, budget, targetROAS float64, audience string, creative *domain.VideoContent) (*domain.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if budget <= 0 {
		return nil, fmt.Errorf("campaign budget must be positive")
	}
	return &domain.Campaign{
		ID:       uuid.NewString(),
		Platform: platform,
		Budget:   budget,
	}, nil
}
