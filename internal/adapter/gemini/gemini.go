// Package gemini generates text with Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/port/ai"
	"github.com/xeenaps/pkm/internal/resilience"
)

// models is the subset of genai.Models used here.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator implements ai.Generator on a genai client.
type Generator struct {
	models  models
	model   string
	breaker *resilience.Breaker
}

var _ ai.Generator = (*Generator)(nil)

// New creates a Gemini API client for model.
func New(ctx context.Context, apiKey, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", domain.ErrValidation)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Generator{models: client.Models, model: model}, nil
}

// SetBreaker attaches a circuit breaker to all calls.
func (g *Generator) SetBreaker(b *resilience.Breaker) {
	g.breaker = b
}

// Generate returns the trimmed text of the first candidate.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	var text string
	call := func(ctx context.Context) error {
		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err != nil {
			return fmt.Errorf("%w: gemini: %w", domain.ErrUnavailable, err)
		}
		text = strings.TrimSpace(resp.Text())
		if text == "" {
			return errors.New("gemini: empty response")
		}
		return nil
	}

	var err error
	if g.breaker != nil {
		err = g.breaker.ExecuteContext(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	return text, nil
}
