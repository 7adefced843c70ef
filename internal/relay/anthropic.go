package relay

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mental-buddy/chat-service/internal/apperr"
	"github.com/mental-buddy/chat-service/pkg/metrics"
)

const defaultAnthropicModel = "claude-3-5-haiku-20241022"

// AnthropicClient is an alternate relay provider over the Anthropic API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Anthropic relay client.
func NewAnthropicClient(apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  defaultAnthropicModel,
	}, nil
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string { return "anthropic" }

// Complete sends the prompt as a single user turn under the system
// instruction.
func (c *AnthropicClient) Complete(ctx context.Context, systemInstruction, prompt string) (string, error) {
	start := time.Now()

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(c.model),
		MaxTokens: anthropic.F(int64(1024)),
		Messages: anthropic.F([]anthropic.MessageParam{
			{
				Role: anthropic.F(anthropic.MessageParamRoleUser),
				Content: anthropic.F([]anthropic.ContentBlockParamUnion{
					anthropic.TextBlockParam{
						Type: anthropic.F(anthropic.TextBlockParamTypeText),
						Text: anthropic.F(prompt),
					},
				}),
			},
		}),
	}
	if systemInstruction != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			{
				Type: anthropic.F(anthropic.TextBlockParamTypeText),
				Text: anthropic.F(systemInstruction),
			},
		})
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		metrics.RecordRelay(c.Name(), "provider_error", time.Since(start).Seconds())
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", apperr.Relay(apiErr.StatusCode, apiErr.Error())
		}
		return "", apperr.Relay(http.StatusInternalServerError, "language model request failed")
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content += block.Text
		}
	}
	if content == "" {
		metrics.RecordRelay(c.Name(), "parse_error", time.Since(start).Seconds())
		return "", apperr.Internal("failed to parse language model response", nil)
	}

	metrics.RecordRelay(c.Name(), "success", time.Since(start).Seconds())
	return content, nil
}
