package handler

import (
	"net/http"

	"github.com/mental-buddy/chat-service/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	storeClient *store.Client
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(storeClient *store.Client) *HealthHandler {
	return &HealthHandler{storeClient: storeClient}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.storeClient == nil || !h.storeClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "store not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
