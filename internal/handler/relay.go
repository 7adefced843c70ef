package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mental-buddy/chat-service/internal/apperr"
	"github.com/mental-buddy/chat-service/internal/middleware"
	"github.com/mental-buddy/chat-service/internal/relay"
	"github.com/mental-buddy/chat-service/pkg/logger"
)

// RelayHandler exposes the bare message relay: one prompt in, one reply
// out, with the persona instruction attached server-side.
type RelayHandler struct {
	client relay.Client
	logger *logger.Logger
}

// NewRelayHandler creates a new relay handler.
func NewRelayHandler(client relay.Client, log *logger.Logger) *RelayHandler {
	return &RelayHandler{
		client: client,
		logger: log,
	}
}

// RelayRequest is the bare relay request body.
type RelayRequest struct {
	Message string `json:"message"`
}

// RelayResponse is the bare relay success body.
type RelayResponse struct {
	Reply string `json:"reply"`
}

// Chat handles POST /api/v1/chat
func (h *RelayHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prompt := strings.TrimSpace(req.Message)
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.client.Complete(ctx, relay.SystemInstruction, prompt)
	if err != nil {
		h.logger.Error("relay request failed",
			zap.String("correlation_id", middleware.GetCorrelationID(ctx)),
			zap.Error(err))
		writeError(w, apperr.HTTPStatus(err), apperr.Message(err))
		return
	}

	writeJSON(w, http.StatusOK, &RelayResponse{Reply: reply})
}
