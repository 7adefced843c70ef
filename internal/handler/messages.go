package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mental-buddy/chat-service/internal/middleware"
	"github.com/mental-buddy/chat-service/internal/model"
	"github.com/mental-buddy/chat-service/internal/service"
	"github.com/mental-buddy/chat-service/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	controller *service.Controller
	logger     *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(controller *service.Controller, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		controller: controller,
		logger:     log,
	}
}

// List handles GET /api/v1/chats/:id/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	chatID := chi.URLParam(r, "id")

	if err := middleware.ValidateChatID(chatID); err != nil {
		writeAppError(w, err)
		return
	}

	messages, lastSeq, err := h.controller.ListMessages(ctx, userID, chatID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{
		Messages:     messages,
		LastSequence: lastSeq,
	})
}

// Send handles POST /api/v1/chats/:id/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	chatID := chi.URLParam(r, "id")

	if err := middleware.ValidateChatID(chatID); err != nil {
		writeAppError(w, err)
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.controller.SendMessage(ctx, userID, chatID, &req)
	if err != nil {
		writeAppError(w, err)
		return
	}

	status := http.StatusCreated
	if resp.Error != "" || (resp.UserMessage == nil && resp.AIMessage == nil && resp.Reply == "") {
		// Relay failures and attachment-only aborts did not produce a
		// completed exchange.
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// React handles POST /api/v1/chats/:id/messages/:messageID/reaction
func (h *MessageHandler) React(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	chatID := chi.URLParam(r, "id")
	messageID := chi.URLParam(r, "messageID")

	if err := middleware.ValidateChatID(chatID); err != nil {
		writeAppError(w, err)
		return
	}
	if err := middleware.ValidateMessageID(messageID); err != nil {
		writeAppError(w, err)
		return
	}

	var req model.ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.controller.SetReaction(ctx, userID, chatID, messageID, &req)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
