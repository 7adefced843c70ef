package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mental-buddy/chat-service/internal/apperr"
)

func newTestGeminiClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGeminiClient("test-key", "gemini-2.0-flash", server.URL)
	if err != nil {
		t.Fatalf("NewGeminiClient() error = %v", err)
	}
	return client
}

func TestGeminiComplete(t *testing.T) {
	var gotBody geminiRequest
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if !strings.Contains(r.URL.Path, "gemini-2.0-flash:generateContent") {
			t.Errorf("path = %s, want generateContent for the configured model", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q, want test-key", r.URL.Query().Get("key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"role":  "model",
						"parts": []map[string]string{{"text": "Hello there."}},
					},
					"finishReason": "STOP",
				},
			},
		})
	})

	reply, err := client.Complete(context.Background(), "be kind", "hello")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "Hello there." {
		t.Errorf("reply = %q, want %q", reply, "Hello there.")
	}

	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Parts[0].Text != "hello" {
		t.Errorf("request contents = %+v, want single user turn with prompt", gotBody.Contents)
	}
	if gotBody.SystemInstruction == nil || gotBody.SystemInstruction.Parts[0].Text != "be kind" {
		t.Errorf("systemInstruction missing or wrong: %+v", gotBody.SystemInstruction)
	}
}

func TestGeminiCompleteProviderError(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"code":    429,
				"message": "quota exceeded",
				"status":  "RESOURCE_EXHAUSTED",
			},
		})
	})

	_, err := client.Complete(context.Background(), "", "hello")
	if err == nil {
		t.Fatal("Complete() error = nil, want relay error")
	}
	if apperr.KindOf(err) != apperr.KindRelay {
		t.Errorf("kind = %v, want KindRelay", apperr.KindOf(err))
	}
	if got := apperr.Message(err); got != "quota exceeded" {
		t.Errorf("message = %q, want provider message", got)
	}
	if got := apperr.HTTPStatus(err); got != 429 {
		t.Errorf("status = %d, want provider code 429", got)
	}
}

func TestGeminiCompleteProviderErrorWithoutBody(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Complete(context.Background(), "", "hello")
	if err == nil {
		t.Fatal("Complete() error = nil, want relay error")
	}
	if got := apperr.HTTPStatus(err); got != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want upstream HTTP status %d", got, http.StatusServiceUnavailable)
	}
}

func TestGeminiCompleteMalformedResponse(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not JSON", "oops"},
		{"no candidates", `{"candidates":[]}`},
		{"empty parts", `{"candidates":[{"content":{"parts":[]}}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			_, err := client.Complete(context.Background(), "", "hello")
			if err == nil {
				t.Fatal("Complete() error = nil, want internal error")
			}
			if apperr.KindOf(err) != apperr.KindInternal {
				t.Errorf("kind = %v, want KindInternal", apperr.KindOf(err))
			}
		})
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	if _, err := NewGeminiClient("", "", ""); err == nil {
		t.Error("NewGeminiClient(\"\") error = nil, want error")
	}
}
