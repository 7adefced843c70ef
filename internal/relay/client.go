// Package relay bridges user prompts to an external generative-language
// API. Each call is single-turn: the prompt plus a fixed server-side
// persona instruction, nothing carried over between calls.
package relay

import (
	"context"
	"errors"
)

// Client is the interface to a generative-language provider.
type Client interface {
	// Complete sends one prompt under the given system instruction and
	// returns the reply text. Failures are reported as apperr values:
	// provider-reported errors as KindRelay with the provider's status,
	// malformed success responses as KindInternal.
	Complete(ctx context.Context, systemInstruction, prompt string) (string, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of generative-language provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Options configures provider construction.
type Options struct {
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	OpenAIAPIKey    string
	AnthropicAPIKey string
}

// NewClient creates a relay client for the named provider.
func NewClient(provider Provider, opts Options) (Client, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiClient(opts.GeminiAPIKey, opts.GeminiModel, opts.GeminiBaseURL)
	case ProviderOpenAI:
		return NewOpenAIClient(opts.OpenAIAPIKey)
	case ProviderAnthropic:
		return NewAnthropicClient(opts.AnthropicAPIKey)
	default:
		return nil, errors.New("unknown relay provider: " + string(provider))
	}
}
