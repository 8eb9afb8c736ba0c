// Package ai defines the port for text generation.
package ai

import "context"

// Generator produces a completion for a single prompt. Replies are trimmed.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider names accepted in configuration.
const (
	ProviderGemini  = "gemini"
	ProviderLiteLLM = "litellm"
	ProviderGAS     = "gas"
)
