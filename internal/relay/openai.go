package relay

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/mental-buddy/chat-service/internal/apperr"
	"github.com/mental-buddy/chat-service/pkg/metrics"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient is an alternate relay provider over the OpenAI API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI relay client.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  defaultOpenAIModel,
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string { return "openai" }

// Complete sends the prompt as a single user turn under the system
// instruction.
func (c *OpenAIClient) Complete(ctx context.Context, systemInstruction, prompt string) (string, error) {
	start := time.Now()

	messages := []openai.ChatCompletionMessage{}
	if systemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemInstruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		metrics.RecordRelay(c.Name(), "provider_error", time.Since(start).Seconds())
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", apperr.Relay(apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", apperr.Relay(http.StatusInternalServerError, "language model request failed")
	}

	if len(resp.Choices) == 0 {
		metrics.RecordRelay(c.Name(), "parse_error", time.Since(start).Seconds())
		return "", apperr.Internal("failed to parse language model response", nil)
	}

	metrics.RecordRelay(c.Name(), "success", time.Since(start).Seconds())
	return resp.Choices[0].Message.Content, nil
}
