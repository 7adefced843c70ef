// Package model defines data structures for the chat service.
package model

import (
	"time"
)

// DefaultChatTitle is the title given to a chat at creation, before the
// first exchange produces a derived title.
const DefaultChatTitle = "New Chat"

// Chat represents a conversation thread owned by a single user.
type Chat struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`

	// Secret is fixed at creation from the session's secret-mode toggle.
	// Messages in a secret chat are never persisted.
	Secret bool `json:"secret"`
}

// CreateChatRequest is the request to create a new chat. The title and
// secret flag are controlled by the session, so the body carries nothing
// today; the type exists so the endpoint can grow fields without breaking
// callers.
type CreateChatRequest struct{}

// RenameChatRequest is the request to rename a chat.
type RenameChatRequest struct {
	Title string `json:"title"`
}

// ListChatsResponse is the response for listing chats, ordered by
// last-updated time descending.
type ListChatsResponse struct {
	Chats []Chat `json:"chats"`
	Total int    `json:"total"`
}

// SessionState is the transient per-user controller state.
type SessionState struct {
	ActiveChatID      string `json:"active_chat_id,omitempty"`
	SecretMode        bool   `json:"secret_mode"`
	AIRequestInFlight bool   `json:"ai_request_in_flight"`
}

// Notice is a user-facing notification produced by a controller operation.
type Notice struct {
	Level string `json:"level"` // info, success, error
	Text  string `json:"text"`
}

// NoticeInfo builds an informational notice.
func NoticeInfo(text string) Notice { return Notice{Level: "info", Text: text} }

// NoticeSuccess builds a success notice.
func NoticeSuccess(text string) Notice { return Notice{Level: "success", Text: text} }

// NoticeError builds an error notice.
func NoticeError(text string) Notice { return Notice{Level: "error", Text: text} }
