package model

import (
	"time"
)

// StreamEventType labels events delivered on the live SSE feeds.
type StreamEventType string

const (
	EventConnected      StreamEventType = "connected"
	EventMessage        StreamEventType = "message"
	EventChats          StreamEventType = "chats"
	EventReplayComplete StreamEventType = "replay_complete"
	EventHeartbeat      StreamEventType = "heartbeat"
	EventError          StreamEventType = "error"
)

// ChatsSnapshot is the full ordered chat list re-delivered on every change.
type ChatsSnapshot struct {
	Chats []Chat `json:"chats"`
}

// ReplayCompleteEvent marks the end of message replay on a chat stream.
type ReplayCompleteEvent struct {
	LastSequence uint64 `json:"last_sequence"`
	MessageCount int    `json:"message_count"`
}

// HeartbeatEvent keeps an SSE connection alive.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEvent is a terminal error on a live feed. A broken subscription is
// reported here rather than as a transient notice, since it represents a
// broken view.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
