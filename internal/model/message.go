package model

import (
	"time"
)

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Reaction is a per-message like/dislike marker with toggle semantics.
type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// Attachment describes a stored upload referenced by a message. Declared
// for forward compatibility; nothing populates it today because attachment
// delivery into messages is not implemented.
type Attachment struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Message is one turn in a chat. Messages are append-only and ordered by
// send time ascending; only the reaction changes after creation.
type Message struct {
	ID     string `json:"id"`
	ChatID string `json:"chat_id"`
	UserID string `json:"user_id"`

	Sender Sender    `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`

	Reaction   *Reaction   `json:"reaction,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`

	// Sequence is the storage-assigned stream position, populated on read.
	Sequence uint64 `json:"sequence,omitempty"`
}

// SendMessageRequest is the request to send a message in a chat.
type SendMessageRequest struct {
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// SendMessageResponse reports the outcome of the send workflow. In a secret
// chat both message fields are nil and Reply carries the display-only text.
type SendMessageResponse struct {
	UserMessage *Message `json:"user_message,omitempty"`
	AIMessage   *Message `json:"ai_message,omitempty"`
	Reply       string   `json:"reply,omitempty"`
	Notices     []Notice `json:"notices,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// ListMessagesResponse is the response for listing a chat's messages,
// ordered by send time ascending.
type ListMessagesResponse struct {
	Messages     []Message `json:"messages"`
	LastSequence uint64    `json:"last_sequence"`
}

// ReactionAction is a user action on a message.
type ReactionAction string

const (
	ActionLike    ReactionAction = "like"
	ActionDislike ReactionAction = "dislike"
	ActionCopy    ReactionAction = "copy"
)

// ReactionRequest is the request to react to (or copy) a message. Text is
// only consulted for copy actions in secret chats, where the message exists
// solely on the client.
type ReactionRequest struct {
	Action ReactionAction `json:"action"`
	Text   string         `json:"text,omitempty"`
}

// ReactionResponse reports the resulting reaction state, or the text to
// place on the clipboard for copy actions.
type ReactionResponse struct {
	Reaction *Reaction `json:"reaction,omitempty"`
	Text     string    `json:"text,omitempty"`
	Notices  []Notice  `json:"notices,omitempty"`
}
