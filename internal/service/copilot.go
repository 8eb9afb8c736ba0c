package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	xotel "github.com/xeenaps/pkm/internal/adapter/otel"
	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/copilot"
	"github.com/xeenaps/pkm/internal/port/ai"
)

// Copilot runs prompts against the configured generator and records each
// call as a span and a metric.
type Copilot struct {
	gen      ai.Generator
	provider string
	model    string
	metrics  *xotel.Metrics
}

// NewCopilot creates a Copilot. provider and model only label telemetry.
func NewCopilot(gen ai.Generator, provider, model string) *Copilot {
	return &Copilot{gen: gen, provider: provider, model: model}
}

// SetMetrics enables AI call counters.
func (c *Copilot) SetMetrics(m *xotel.Metrics) { c.metrics = m }

// Generate sends prompt and returns the trimmed reply.
func (c *Copilot) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.gen == nil {
		return "", fmt.Errorf("%w: no ai provider configured", domain.ErrUnavailable)
	}
	ctx, span := xotel.StartAISpan(ctx, c.provider, c.model)
	start := time.Now()
	reply, err := c.gen.Generate(ctx, prompt)
	c.metrics.RecordAICall(ctx, c.provider, time.Since(start), err)
	xotel.EndSpan(span, err)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// Translate renders text in lang, given as a language code or label.
// Blank text is returned unchanged.
func (c *Copilot) Translate(ctx context.Context, text, lang string) (string, error) {
	l, err := copilot.LookupLanguage(lang)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	return c.Generate(ctx, copilot.TranslatePrompt(text, l))
}

// decode runs prompt and unmarshals the JSON object in the reply. A reply
// without usable JSON is reported as an unavailable upstream.
func decode[T any](ctx context.Context, c *Copilot, prompt string) (T, error) {
	var zero T
	reply, err := c.Generate(ctx, prompt)
	if err != nil {
		return zero, err
	}
	v, err := copilot.DecodeJSON[T](reply)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return v, nil
}

func parseMode(mode string) (copilot.Mode, error) {
	m := copilot.Mode(mode)
	if !m.Valid() {
		return "", fmt.Errorf("%w: unknown refine mode %q", domain.ErrValidation, mode)
	}
	return m, nil
}
