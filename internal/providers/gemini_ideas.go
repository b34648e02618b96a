package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/promoforge/promoq/pkg/domain"
)

// GeminiIdeaGenerator produces content ideas with the Gemini API. Any failure
// degrades to the static fallback set so the pipeline keeps moving.
type GeminiIdeaGenerator struct {
	client   *genai.Client
	model    string
	logger   *slog.Logger
	maxIdeas int
}

func NewGeminiIdeaGenerator(ctx context.Context, apiKey, model string, maxIdeas int, logger *slog.Logger) (*GeminiIdeaGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if maxIdeas <= 0 {
		maxIdeas = 5
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiIdeaGenerator{client: client, model: model, logger: logger, maxIdeas: maxIdeas}, nil
}

func (g *GeminiIdeaGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiIdeaGenerator) Generate(ctx context.Context, theme, audience string) ([]domain.ContentIdea, error) {
	prompt := fmt.Sprintf(`Generate %d short-form video content ideas for the theme %q targeting %q.
Respond with a JSON array; each element has "title", "description", "hashtags" (array of strings) and "keywords" (array of strings).`,
		g.maxIdeas, theme, audience)

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.7)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		g.logger.Warn("idea generation degraded, using fallback set", "theme", theme, "err", err)
		return FallbackIdeas(theme), nil
	}

	text, err := extractText(resp)
	if err != nil {
		g.logger.Warn("idea generation returned no content, using fallback set", "theme", theme, "err", err)
		return FallbackIdeas(theme), nil
	}

	var ideas []domain.ContentIdea
	if err := json.Unmarshal([]byte(cleanJSONBlock(text)), &ideas); err != nil || len(ideas) == 0 {
		g.logger.Warn("idea generation returned unparsable JSON, using fallback set", "theme", theme, "err", err)
		return FallbackIdeas(theme), nil
	}
	if len(ideas) > g.maxIdeas {
		ideas = ideas[:g.maxIdeas]
	}
	return ideas, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return b.String(), nil
}

func cleanJSONBlock(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
