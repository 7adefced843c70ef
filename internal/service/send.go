package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mental-buddy/chat-service/internal/apperr"
	"github.com/mental-buddy/chat-service/internal/chatutil"
	"github.com/mental-buddy/chat-service/internal/middleware"
	"github.com/mental-buddy/chat-service/internal/model"
	"github.com/mental-buddy/chat-service/internal/relay"
	"github.com/mental-buddy/chat-service/pkg/metrics"
)

// SendMessage runs the send workflow against the given chat: persist the
// user turn (unless the chat is secret), call the relay, persist the
// reply, and update the title on the first exchange. A relay failure is
// reported inside the response rather than as an error, because the user
// turn may already be persisted; errors are returned only for aborts
// that leave no trace.
func (c *Controller) SendMessage(ctx context.Context, userID, chatID string, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	sess := c.ensureSession(ctx, userID)

	text := strings.TrimSpace(req.Text)
	if text == "" && req.Attachment == nil {
		return nil, apperr.Validation("message text is required")
	}
	if text != "" {
		if err := middleware.ValidateMessageText(text); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	if sess.activeChatID == "" {
		c.mu.Unlock()
		return nil, apperr.Validation("no chat is active")
	}
	if sess.inFlight {
		c.mu.Unlock()
		return nil, apperr.Validation("a reply is still being generated")
	}
	sess.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		sess.inFlight = false
		c.mu.Unlock()
	}()

	chat, err := c.chats.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	secret := chat.Secret

	// Sending into a chat selects it, matching the UI where the input is
	// only ever bound to the active chat. The lookup above has confirmed
	// the chat exists, so the active chat never points at a missing one.
	c.mu.Lock()
	sess.activeChatID = chatID
	c.mu.Unlock()

	resp := &model.SendMessageResponse{}

	if req.Attachment != nil {
		if secret {
			resp.Notices = append(resp.Notices, model.NoticeInfo("File attachments ignored in secret chats."))
		} else {
			resp.Notices = append(resp.Notices, model.NoticeError("File upload not yet implemented."))
		}
		if text == "" {
			return resp, nil
		}
	}

	if secret {
		metrics.SecretSendsTotal.Inc()
	} else {
		userMsg := &model.Message{
			ID:     uuid.Must(uuid.NewV7()).String(),
			ChatID: chatID,
			UserID: userID,
			Sender: model.SenderUser,
			Text:   text,
		}
		if _, err := c.messages.Append(ctx, userMsg); err != nil {
			return nil, err
		}
		if err := c.chats.Touch(ctx, userID, chatID); err != nil {
			c.logger.Warn("failed to touch chat after user message",
				zap.String("chat_id", chatID), zap.Error(err))
		}
		metrics.MessagesTotal.WithLabelValues(string(model.SenderUser)).Inc()
		resp.UserMessage = userMsg
	}

	reply, relayErr := c.relay.Complete(ctx, relay.SystemInstruction, text)
	if relayErr == nil && reply == "" {
		relayErr = apperr.Internal("received empty reply from language model", nil)
	}

	if relayErr != nil {
		errMsg := apperr.Message(relayErr)
		c.logger.Error("relay call failed",
			zap.String("chat_id", chatID), zap.Error(relayErr))
		resp.Error = errMsg
		resp.Notices = append(resp.Notices, model.NoticeError("AI Error: "+errMsg))
		return resp, nil
	}

	resp.Reply = reply

	if secret {
		return resp, nil
	}

	aiMsg := &model.Message{
		ID:     uuid.Must(uuid.NewV7()).String(),
		ChatID: chatID,
		UserID: userID,
		Sender: model.SenderAI,
		Text:   reply,
	}
	if _, err := c.messages.Append(ctx, aiMsg); err != nil {
		resp.Error = apperr.Message(err)
		resp.Notices = append(resp.Notices, model.NoticeError("Failed to save AI reply."))
		return resp, nil
	}
	if err := c.chats.Touch(ctx, userID, chatID); err != nil {
		c.logger.Warn("failed to touch chat after AI message",
			zap.String("chat_id", chatID), zap.Error(err))
	}
	metrics.MessagesTotal.WithLabelValues(string(model.SenderAI)).Inc()
	resp.AIMessage = aiMsg

	c.updateTitleIfDefault(ctx, userID, chatID)

	return resp, nil
}

// updateTitleIfDefault derives a title from the first user message once
// the chat's first exchange completes. The precondition checks the current
// persisted title, so after the first transition this is a no-op for the
// chat's lifetime. Failures are logged only; the title can be derived
// again on the next exchange.
func (c *Controller) updateTitleIfDefault(ctx context.Context, userID, chatID string) {
	chat, err := c.chats.Get(ctx, userID, chatID)
	if err != nil || chat.Title != model.DefaultChatTitle {
		return
	}

	messages, _, err := c.messages.List(ctx, userID, chatID)
	if err != nil {
		return
	}
	for _, msg := range messages {
		if msg.Sender != model.SenderUser {
			continue
		}
		title := chatutil.GenerateChatTitle(msg.Text)
		if title != model.DefaultChatTitle {
			if err := c.chats.UpdateTitle(ctx, userID, chatID, title); err != nil {
				c.logger.Warn("failed to update chat title",
					zap.String("chat_id", chatID), zap.Error(err))
			}
		}
		return
	}
}

// SetReaction applies a message action. Copy returns the text to place on
// the clipboard and never persists; like/dislike toggle the stored
// reaction and are rejected for secret chats.
func (c *Controller) SetReaction(ctx context.Context, userID, chatID, messageID string, req *model.ReactionRequest) (*model.ReactionResponse, error) {
	chat, err := c.chats.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	if req.Action == model.ActionCopy {
		text := req.Text
		if !chat.Secret {
			if messages, _, err := c.messages.List(ctx, userID, chatID); err == nil {
				for _, msg := range messages {
					if msg.ID == messageID {
						text = msg.Text
						break
					}
				}
			}
		}
		return &model.ReactionResponse{
			Text:    text,
			Notices: []model.Notice{model.NoticeSuccess("Copied to clipboard!")},
		}, nil
	}

	if req.Action != model.ActionLike && req.Action != model.ActionDislike {
		return nil, apperr.Validation("unknown reaction action")
	}

	if chat.Secret {
		return nil, apperr.Validation("Reactions disabled for secret chats.")
	}

	messages, _, err := c.messages.List(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	var current *model.Reaction
	found := false
	for _, msg := range messages {
		if msg.ID == messageID {
			current = msg.Reaction
			found = true
			break
		}
	}
	if !found {
		return nil, apperr.NotFound("message not found")
	}

	// Toggle: reacting with the current reaction clears it.
	reaction := model.Reaction(req.Action)
	var next *model.Reaction
	if current == nil || *current != reaction {
		next = &reaction
	}

	if err := c.messages.SetReaction(ctx, userID, chatID, messageID, next); err != nil {
		return nil, err
	}
	return &model.ReactionResponse{Reaction: next}, nil
}
