package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mental-buddy/chat-service/internal/apperr"
	"github.com/mental-buddy/chat-service/pkg/logger"
)

type stubRelay struct {
	reply string
	err   error
}

func (s *stubRelay) Complete(ctx context.Context, systemInstruction, prompt string) (string, error) {
	return s.reply, s.err
}

func (s *stubRelay) Name() string { return "stub" }

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRelayChat(t *testing.T) {
	h := NewRelayHandler(&stubRelay{reply: "I hear you."}, logger.NewNop())

	rec := postJSON(t, h.Chat, `{"message":"I feel anxious"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp RelayResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Reply != "I hear you." {
		t.Errorf("reply = %q", resp.Reply)
	}
}

func TestRelayChatValidation(t *testing.T) {
	h := NewRelayHandler(&stubRelay{reply: "ok"}, logger.NewNop())

	cases := []struct {
		name string
		body string
	}{
		{"empty message", `{"message":""}`},
		{"whitespace message", `{"message":"   "}`},
		{"bad JSON", `{"message":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h.Chat, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRelayChatProviderError(t *testing.T) {
	h := NewRelayHandler(&stubRelay{err: apperr.Relay(429, "quota exceeded")}, logger.NewNop())

	rec := postJSON(t, h.Chat, `{"message":"hello"}`)
	if rec.Code != 429 {
		t.Fatalf("status = %d, want the provider status 429", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["error"] != "quota exceeded" {
		t.Errorf("error = %q, want provider message", resp["error"])
	}
}
