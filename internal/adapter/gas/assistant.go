package gas

import (
	"context"
	"fmt"
	"strings"

	"github.com/xeenaps/pkm/internal/domain/brainstorming"
	"github.com/xeenaps/pkm/internal/port/ai"
	"github.com/xeenaps/pkm/internal/port/assistant"
)

var _ assistant.Assistant = (*Client)(nil)

// Recommendations returns external literature suggestions for an idea.
func (c *Client) Recommendations(ctx context.Context, keywords []string, title string) ([]string, error) {
	if keywords == nil {
		keywords = []string{}
	}
	var r struct {
		External []string `json:"external"`
	}
	body := map[string]any{
		"action":   "getBrainstormingRecommendations",
		"keywords": keywords,
		"title":    title,
	}
	if err := c.post(ctx, "", body, &r); err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}
	if r.External == nil {
		return []string{}, nil
	}
	return r.External, nil
}

// TranslateBrainstorming returns the item with its text fields translated.
// Fields the endpoint leaves out come back empty.
func (c *Client) TranslateBrainstorming(ctx context.Context, item *brainstorming.Item, targetLang string) (*brainstorming.Item, error) {
	var r struct {
		Data *brainstorming.Item `json:"data"`
	}
	body := map[string]any{
		"action":     "translateBrainstorming",
		"data":       item,
		"targetLang": targetLang,
	}
	if err := c.post(ctx, "", body, &r); err != nil {
		return nil, fmt.Errorf("translate brainstorming: %w", err)
	}
	if r.Data == nil {
		return nil, fmt.Errorf("translate brainstorming: %w", ErrRejected)
	}
	return r.Data, nil
}

// Generator routes text generation through the endpoint's aiProxy action
// using the named upstream provider.
type Generator struct {
	client   *Client
	provider string
}

var _ ai.Generator = (*Generator)(nil)

// Generator returns an ai.Generator backed by the aiProxy action.
func (c *Client) Generator(provider string) *Generator {
	return &Generator{client: c, provider: provider}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	var r struct {
		Data string `json:"data"`
	}
	body := map[string]any{"action": "aiProxy", "provider": g.provider, "prompt": prompt}
	if err := g.client.post(ctx, "", body, &r); err != nil {
		return "", fmt.Errorf("ai proxy: %w", err)
	}
	return strings.TrimSpace(r.Data), nil
}
