package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mental-buddy/chat-service/internal/middleware"
	"github.com/mental-buddy/chat-service/internal/model"
	"github.com/mental-buddy/chat-service/internal/service"
	"github.com/mental-buddy/chat-service/internal/store"
	"github.com/mental-buddy/chat-service/pkg/logger"
	"github.com/mental-buddy/chat-service/pkg/metrics"
)

const heartbeatInterval = 30 * time.Second

// StreamHandler serves the live SSE views: the chat list, which
// re-delivers its full ordered contents on every change, and a chat's
// messages, replayed then followed live.
type StreamHandler struct {
	controller *service.Controller
	chats      *store.ChatStore
	messages   *store.MessageStore
	logger     *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(
	controller *service.Controller,
	chats *store.ChatStore,
	messages *store.MessageStore,
	log *logger.Logger,
) *StreamHandler {
	return &StreamHandler{
		controller: controller,
		chats:      chats,
		messages:   messages,
		logger:     log,
	}
}

func setSSEHeaders(w http.ResponseWriter) (http.Flusher, bool) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	return flusher, ok
}

// ChatList handles GET /api/v1/chats/stream
func (h *StreamHandler) ChatList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	flusher, ok := setSSEHeaders(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	updates, stop, err := h.chats.Watch(ctx, userID)
	if err != nil {
		sendSSEEvent(w, flusher, model.EventError, &model.ErrorEvent{
			Code:    "subscribe_error",
			Message: "Failed to subscribe to chats",
		})
		return
	}
	defer stop()

	sendSSEEvent(w, flusher, model.EventConnected, map[string]string{"user_id": userID})

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case chats, open := <-updates:
			if !open {
				sendSSEEvent(w, flusher, model.EventError, &model.ErrorEvent{
					Code:    "subscription_closed",
					Message: "Chat subscription ended",
				})
				return
			}
			sendSSEEvent(w, flusher, model.EventChats, &model.ChatsSnapshot{Chats: chats})
		case <-heartbeat.C:
			sendSSEEvent(w, flusher, model.EventHeartbeat, &model.HeartbeatEvent{Timestamp: time.Now()})
		}
	}
}

// ChatMessages handles GET /api/v1/chats/:id/stream
func (h *StreamHandler) ChatMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	chatID := chi.URLParam(r, "id")

	if err := middleware.ValidateChatID(chatID); err != nil {
		writeAppError(w, err)
		return
	}
	if _, err := h.controller.GetChat(ctx, userID, chatID); err != nil {
		writeAppError(w, err)
		return
	}

	flusher, ok := setSSEHeaders(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendSSEEvent(w, flusher, model.EventConnected, map[string]string{"chat_id": chatID})

	// Replay everything persisted so far, then follow live.
	replayed, lastSeq, err := h.messages.List(ctx, userID, chatID)
	if err != nil {
		h.logger.Error("failed to replay messages",
			zap.String("chat_id", chatID), zap.Error(err))
		sendSSEEvent(w, flusher, model.EventError, &model.ErrorEvent{
			Code:    "replay_error",
			Message: "Failed to replay messages",
		})
		return
	}

	for _, msg := range replayed {
		select {
		case <-ctx.Done():
			return
		default:
		}
		sendSSEEvent(w, flusher, model.EventMessage, msg)
	}

	sendSSEEvent(w, flusher, model.EventReplayComplete, &model.ReplayCompleteEvent{
		LastSequence: lastSeq,
		MessageCount: len(replayed),
	})

	live, stop, err := h.messages.Subscribe(ctx, userID, chatID, lastSeq)
	if err != nil {
		sendSSEEvent(w, flusher, model.EventError, &model.ErrorEvent{
			Code:    "subscribe_error",
			Message: "Failed to subscribe to messages",
		})
		return
	}
	defer stop()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("SSE client disconnected", zap.String("chat_id", chatID))
			return
		case msg := <-live:
			sendSSEEvent(w, flusher, model.EventMessage, msg)
		case <-heartbeat.C:
			sendSSEEvent(w, flusher, model.EventHeartbeat, &model.HeartbeatEvent{Timestamp: time.Now()})
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event model.StreamEventType, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
