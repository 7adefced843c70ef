package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mental-buddy/chat-service/internal/middleware"
	"github.com/mental-buddy/chat-service/internal/model"
	"github.com/mental-buddy/chat-service/internal/service"
	"github.com/mental-buddy/chat-service/pkg/logger"
)

// ChatHandler handles chat and session endpoints.
type ChatHandler struct {
	controller *service.Controller
	logger     *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(controller *service.Controller, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		controller: controller,
		logger:     log,
	}
}

// Session handles GET /api/v1/session
func (h *ChatHandler) Session(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	state := h.controller.State(ctx, userID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":   state,
		"name":    middleware.GetUserName(ctx),
		"picture": middleware.GetUserPicture(ctx),
	})
}

// EndSession handles DELETE /api/v1/session. Called on sign-out; drops
// the transient state so the next request starts a fresh session.
func (h *ChatHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	h.controller.EndSession(userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "session ended"})
}

// ToggleSecretMode handles POST /api/v1/session/secret-mode
func (h *ChatHandler) ToggleSecretMode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	enabled, notice := h.controller.ToggleSecretMode(ctx, userID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"secret_mode": enabled,
		"notices":     []model.Notice{notice},
	})
}

// Create handles POST /api/v1/chats
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	chat, err := h.controller.CreateChat(ctx, userID)
	if err != nil {
		h.logger.Error("failed to create chat", zap.Error(err))
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, chat)
}

// List handles GET /api/v1/chats
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	chats, err := h.controller.ListChats(ctx, userID)
	if err != nil {
		h.logger.Error("failed to list chats", zap.Error(err))
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.ListChatsResponse{
		Chats: chats,
		Total: len(chats),
	})
}

// Get handles GET /api/v1/chats/:id
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	chatID := chi.URLParam(r, "id")

	if err := middleware.ValidateChatID(chatID); err != nil {
		writeAppError(w, err)
		return
	}

	chat, err := h.controller.GetChat(ctx, userID, chatID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chat)
}

// Select handles POST /api/v1/chats/:id/select
func (h *ChatHandler) Select(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	chatID := chi.URLParam(r, "id")

	if err := middleware.ValidateChatID(chatID); err != nil {
		writeAppError(w, err)
		return
	}

	if err := h.controller.SelectChat(ctx, userID, chatID); err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.controller.State(ctx, userID))
}

// Rename handles PUT /api/v1/chats/:id
func (h *ChatHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	chatID := chi.URLParam(r, "id")

	if err := middleware.ValidateChatID(chatID); err != nil {
		writeAppError(w, err)
		return
	}

	var req model.RenameChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chat, err := h.controller.RenameChat(ctx, userID, chatID, req.Title)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chat)
}

// Delete handles DELETE /api/v1/chats/:id
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	chatID := chi.URLParam(r, "id")

	if err := middleware.ValidateChatID(chatID); err != nil {
		writeAppError(w, err)
		return
	}

	if err := h.controller.DeleteChat(ctx, userID, chatID); err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.controller.State(ctx, userID))
}
