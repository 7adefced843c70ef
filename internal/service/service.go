// Package service implements the chat-session controller: per-user
// session state, chat lifecycle operations, and the send-message workflow.
package service

import (
	"context"
	"sync"

	"github.com/mental-buddy/chat-service/internal/model"
	"github.com/mental-buddy/chat-service/internal/relay"
	"github.com/mental-buddy/chat-service/pkg/logger"
)

// ChatStore is the persistence boundary for chat records. Implementations
// assign creation and last-updated timestamps at write time.
type ChatStore interface {
	Create(ctx context.Context, chat *model.Chat) error
	Get(ctx context.Context, userID, chatID string) (*model.Chat, error)
	List(ctx context.Context, userID string) ([]model.Chat, error)
	UpdateTitle(ctx context.Context, userID, chatID, title string) error
	Touch(ctx context.Context, userID, chatID string) error
	Delete(ctx context.Context, userID, chatID string) error
}

// MessageStore is the persistence boundary for messages and reactions.
type MessageStore interface {
	Append(ctx context.Context, msg *model.Message) (uint64, error)
	List(ctx context.Context, userID, chatID string) ([]model.Message, uint64, error)
	SetReaction(ctx context.Context, userID, chatID, messageID string, reaction *model.Reaction) error
	PurgeChat(ctx context.Context, userID, chatID string) error
}

// Controller owns the transient per-user session state (active chat,
// secret-mode toggle, in-flight flag) and coordinates every chat and
// message operation against the injected store and relay.
type Controller struct {
	chats    ChatStore
	messages MessageStore
	relay    relay.Client
	logger   *logger.Logger

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// sessionState is the controller's transient state for one user. The
// persisted chats and messages remain the source of truth; this only
// tracks which chat is active and the two toggles.
type sessionState struct {
	activeChatID string
	secretMode   bool
	inFlight     bool
}

// NewController creates a session controller.
func NewController(chats ChatStore, messages MessageStore, relayClient relay.Client, log *logger.Logger) *Controller {
	return &Controller{
		chats:    chats,
		messages: messages,
		relay:    relayClient,
		logger:   log,
		sessions: make(map[string]*sessionState),
	}
}

// ensureSession returns the user's session, creating it on first access.
// When a session is created and the user already has chats, the most
// recently updated one is selected exactly once; explicit selections made
// afterward always win because the session then already exists.
func (c *Controller) ensureSession(ctx context.Context, userID string) *sessionState {
	c.mu.Lock()
	if sess, ok := c.sessions[userID]; ok {
		c.mu.Unlock()
		return sess
	}
	sess := &sessionState{}
	c.sessions[userID] = sess
	c.mu.Unlock()

	if chats, err := c.chats.List(ctx, userID); err == nil && len(chats) > 0 {
		c.mu.Lock()
		if sess.activeChatID == "" {
			sess.activeChatID = chats[0].ID
		}
		c.mu.Unlock()
	}
	return sess
}

// EndSession drops the user's transient state, e.g. on logout.
func (c *Controller) EndSession(userID string) {
	c.mu.Lock()
	delete(c.sessions, userID)
	c.mu.Unlock()
}

// State reports the user's current session state.
func (c *Controller) State(ctx context.Context, userID string) model.SessionState {
	sess := c.ensureSession(ctx, userID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.SessionState{
		ActiveChatID:      sess.activeChatID,
		SecretMode:        sess.secretMode,
		AIRequestInFlight: sess.inFlight,
	}
}
