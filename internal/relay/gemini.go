package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mental-buddy/chat-service/internal/apperr"
	"github.com/mental-buddy/chat-service/pkg/metrics"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiClient calls the generativelanguage generateContent endpoint. The
// wire format is built by hand: no Go SDK models it, and the shapes below
// are the provider contract.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient creates a Gemini relay client. baseURL may be empty for
// the production endpoint; tests point it at a local server.
func NewGeminiClient(apiKey, model, baseURL string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *geminiError `json:"error"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Complete sends the prompt as the sole conversational turn.
func (c *GeminiClient) Complete(ctx context.Context, systemInstruction, prompt string) (string, error) {
	start := time.Now()

	payload := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{ResponseMIMEType: "text/plain"},
	}
	if systemInstruction != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperr.Internal("failed to encode relay request", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Internal("failed to build relay request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordRelay(c.Name(), "transport_error", time.Since(start).Seconds())
		return "", apperr.Relay(http.StatusInternalServerError, "language model request failed")
	}
	defer resp.Body.Close()

	var parsed geminiResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&parsed)

	if resp.StatusCode != http.StatusOK {
		metrics.RecordRelay(c.Name(), "provider_error", time.Since(start).Seconds())
		// Prefer the provider's own message and code when it reported one.
		msg := "language model request failed"
		status := resp.StatusCode
		if decodeErr == nil && parsed.Error != nil {
			if parsed.Error.Message != "" {
				msg = parsed.Error.Message
			}
			if parsed.Error.Code != 0 {
				status = parsed.Error.Code
			}
		}
		return "", apperr.Relay(status, msg)
	}

	if decodeErr != nil {
		metrics.RecordRelay(c.Name(), "parse_error", time.Since(start).Seconds())
		return "", apperr.Internal("failed to parse language model response", decodeErr)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		metrics.RecordRelay(c.Name(), "parse_error", time.Since(start).Seconds())
		return "", apperr.Internal("failed to parse language model response", nil)
	}

	metrics.RecordRelay(c.Name(), "success", time.Since(start).Seconds())
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
