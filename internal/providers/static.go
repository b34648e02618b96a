package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/promoforge/promoq/pkg/domain"
)

// fallbackIdeas are the mandatory degraded-service idea sets, keyed by a
// substring of the content theme. The pipeline must make forward progress
// even with the generation service down.
var fallbackIdeas = map[string][]domain.ContentIdea{
	"tech": {
		{Title: "5 gadgets you didn't know you needed", Description: "Quick-cut showcase of affordable tech finds", Hashtags: []string{"#tech", "#gadgets", "#finds"}},
		{Title: "Unboxing the hype", Description: "First impressions of a trending device", Hashtags: []string{"#unboxing", "#tech"}},
		{Title: "Budget vs premium", Description: "Side-by-side comparison for everyday use", Hashtags: []string{"#techtok", "#review"}},
	},
	"fitness": {
		{Title: "10-minute no-equipment burn", Description: "Follow-along routine for busy mornings", Hashtags: []string{"#fitness", "#homeworkout"}},
		{Title: "Gear that actually helps", Description: "Honest look at popular fitness accessories", Hashtags: []string{"#fitfinds", "#gymtok"}},
		{Title: "Form check Friday", Description: "Common mistakes and easy fixes", Hashtags: []string{"#fitness", "#formcheck"}},
	},
	"beauty": {
		{Title: "Drugstore dupes that deliver", Description: "Affordable alternatives to cult favorites", Hashtags: []string{"#beauty", "#dupes"}},
		{Title: "5-minute everyday look", Description: "Minimal routine with maximum payoff", Hashtags: []string{"#grwm", "#beautytok"}},
	},
}

var genericIdeas = []domain.ContentIdea{
	{Title: "Top picks this week", Description: "Curated roundup with honest takes", Hashtags: []string{"#topfinds", "#musthaves"}},
	{Title: "Before you buy", Description: "What reviews don't tell you", Hashtags: []string{"#review", "#honest"}},
	{Title: "Worth the hype?", Description: "Testing a viral product so you don't have to", Hashtags: []string{"#viral", "#tested"}},
}

// FallbackIdeas returns the static idea set scoped by theme.
func FallbackIdeas(theme string) []domain.ContentIdea {
	lower := strings.ToLower(theme)
	for key, ideas := range fallbackIdeas {
		if strings.Contains(lower, key) {
			return append([]domain.ContentIdea(nil), ideas...)
		}
	}
	return append([]domain.ContentIdea(nil), genericIdeas...)
}

// StaticIdeaGenerator serves the fallback sets directly. It is the configured
// generator in dev mode and the safety net behind the Gemini generator.
type StaticIdeaGenerator struct{}

func (StaticIdeaGenerator) Generate(ctx context.Context, theme, audience string) ([]domain.ContentIdea, error) {
	return FallbackIdeas(theme), nil
}

// StaticCatalog is an in-process affiliate catalog for dev and tests, ranked
// by commission value like a real network response.
type StaticCatalog struct {
	Products []domain.Product
}

func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{Products: []domain.Product{
		{ID: "p-1001", Name: "Wireless Earbuds Pro", Category: "tech", CommissionValue: 8.40, AffiliateURL: "https://aff.example.com/p-1001"},
		{ID: "p-1002", Name: "Smart Ring Tracker", Category: "tech", CommissionValue: 12.10, AffiliateURL: "https://aff.example.com/p-1002"},
		{ID: "p-2001", Name: "Adjustable Kettlebell", Category: "fitness", CommissionValue: 9.75, AffiliateURL: "https://aff.example.com/p-2001"},
		{ID: "p-2002", Name: "Resistance Band Set", Category: "fitness", CommissionValue: 4.20, AffiliateURL: "https://aff.example.com/p-2002"},
		{ID: "p-3001", Name: "Vitamin C Serum", Category: "beauty", CommissionValue: 6.80, AffiliateURL: "https://aff.example.com/p-3001"},
	}}
}

func (c *StaticCatalog) Search(ctx context.Context, category string, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	category = strings.ToLower(strings.TrimSpace(category))
	out := make([]domain.Product, 0, limit)
	for _, p := range c.Products {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CommissionValue > out[j].CommissionValue })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// StaticLinkGenerator derives tracking links from catalog URLs.
type StaticLinkGenerator struct {
	TrackingTag string
}

func (g StaticLinkGenerator) Generate(ctx context.Context, products []domain.Product) ([]string, error) {
	tag := g.TrackingTag
	if tag == "" {
		tag = "promoq"
	}
	links := make([]string, 0, len(products))
	for _, p := range products {
		if p.AffiliateURL == "" {
			continue
		}
		sep := "?"
		if strings.Contains(p.AffiliateURL, "?") {
			sep = "&"
		}
		links = append(links, fmt.Sprintf("%s%stag=%s", p.AffiliateURL, sep, tag))
	}
	return links, nil
}

// CaptionOnlyVideoGenerator is the text fallback when no render farm is
// configured: it produces a script and caption but no video file.
type CaptionOnlyVideoGenerator struct{}

func (CaptionOnlyVideoGenerator) Generate(ctx context.Context, idea domain.ContentIdea, product *domain.Product, opts domain.VideoOptions) (*domain.VideoContent, error) {
	var b strings.Builder
	b.WriteString(idea.Title)
	if product != nil {
		fmt.Fprintf(&b, " featuring %s", product.Name)
	}
	b.WriteString(". ")
	b.WriteString(idea.Description)

	caption := idea.Title
	if len(idea.Hashtags) > 0 {
		caption += " " + strings.Join(idea.Hashtags, " ")
	}
	return &domain.VideoContent{Script: b.String(), Caption: caption}, nil
}
