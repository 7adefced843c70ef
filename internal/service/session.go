package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mental-buddy/chat-service/internal/middleware"
	"github.com/mental-buddy/chat-service/internal/model"
	"github.com/mental-buddy/chat-service/pkg/metrics"
)

// CreateChat persists a new chat with the default title and the session's
// current secret-mode value, and makes it the active chat. Session state
// is untouched when persistence fails.
func (c *Controller) CreateChat(ctx context.Context, userID string) (*model.Chat, error) {
	sess := c.ensureSession(ctx, userID)

	c.mu.Lock()
	secret := sess.secretMode
	c.mu.Unlock()

	chat := &model.Chat{
		ID:     uuid.Must(uuid.NewV7()).String(),
		UserID: userID,
		Title:  model.DefaultChatTitle,
		Secret: secret,
	}
	if err := c.chats.Create(ctx, chat); err != nil {
		return nil, err
	}

	c.mu.Lock()
	sess.activeChatID = chat.ID
	c.mu.Unlock()

	metrics.ChatsTotal.WithLabelValues(strconv.FormatBool(secret)).Inc()
	c.logger.Info("chat created",
		zap.String("chat_id", chat.ID),
		zap.Bool("secret", secret),
	)
	return chat, nil
}

// SelectChat makes an existing chat the active one. No-op if already
// active.
func (c *Controller) SelectChat(ctx context.Context, userID, chatID string) error {
	sess := c.ensureSession(ctx, userID)

	c.mu.Lock()
	active := sess.activeChatID
	c.mu.Unlock()
	if active == chatID {
		return nil
	}

	if _, err := c.chats.Get(ctx, userID, chatID); err != nil {
		return err
	}

	c.mu.Lock()
	sess.activeChatID = chatID
	c.mu.Unlock()
	return nil
}

// ToggleSecretMode flips the session's secret-mode flag. The toggle only
// affects chats created afterward, never the active chat.
func (c *Controller) ToggleSecretMode(ctx context.Context, userID string) (bool, model.Notice) {
	sess := c.ensureSession(ctx, userID)

	c.mu.Lock()
	sess.secretMode = !sess.secretMode
	enabled := sess.secretMode
	c.mu.Unlock()

	if enabled {
		return true, model.NoticeInfo("Secret mode on: new chats will not be saved.")
	}
	return false, model.NoticeInfo("Secret mode off: new chats will be saved.")
}

// ListChats returns the user's chats ordered by last-updated descending.
func (c *Controller) ListChats(ctx context.Context, userID string) ([]model.Chat, error) {
	return c.chats.List(ctx, userID)
}

// GetChat returns one chat owned by the user.
func (c *Controller) GetChat(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	return c.chats.Get(ctx, userID, chatID)
}

// RenameChat validates, trims, and truncates the new title, then persists
// it along with a refreshed last-updated time.
func (c *Controller) RenameChat(ctx context.Context, userID, chatID, title string) (*model.Chat, error) {
	normalized, err := middleware.NormalizeTitle(title)
	if err != nil {
		return nil, err
	}
	if err := c.chats.UpdateTitle(ctx, userID, chatID, normalized); err != nil {
		return nil, err
	}
	return c.chats.Get(ctx, userID, chatID)
}

// DeleteChat removes a chat and all of its persisted messages and
// reactions. If the deleted chat was active, the most recently updated
// remaining chat becomes active, or none if no chats remain.
func (c *Controller) DeleteChat(ctx context.Context, userID, chatID string) error {
	sess := c.ensureSession(ctx, userID)

	// Purge messages before dropping the chat record: if the purge fails
	// the chat survives and the delete can be retried, whereas the other
	// order could leak orphaned messages.
	if err := c.messages.PurgeChat(ctx, userID, chatID); err != nil {
		return err
	}
	if err := c.chats.Delete(ctx, userID, chatID); err != nil {
		return err
	}

	c.mu.Lock()
	wasActive := sess.activeChatID == chatID
	c.mu.Unlock()

	if wasActive {
		next := ""
		if remaining, err := c.chats.List(ctx, userID); err == nil && len(remaining) > 0 {
			next = remaining[0].ID
		}
		c.mu.Lock()
		sess.activeChatID = next
		c.mu.Unlock()
	}

	c.logger.Info("chat deleted", zap.String("chat_id", chatID))
	return nil
}

// ListMessages returns a chat's messages in send order.
func (c *Controller) ListMessages(ctx context.Context, userID, chatID string) ([]model.Message, uint64, error) {
	if _, err := c.chats.Get(ctx, userID, chatID); err != nil {
		return nil, 0, err
	}
	return c.messages.List(ctx, userID, chatID)
}
