package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/mental-buddy/chat-service/internal/apperr"
	"github.com/mental-buddy/chat-service/internal/model"
)

// ChatBucket is the KV bucket holding one record per chat, keyed
// "<userID>.<chatID>" so a single-wildcard watch scopes to one user.
const ChatBucket = "CHATS"

// ChatStore persists chat records in a JetStream key-value bucket. Every
// mutation goes through the bucket, so watchers observe authoritative state
// only; creation and last-updated timestamps are stamped here, at write
// time, not by callers.
type ChatStore struct {
	kv jetstream.KeyValue
}

// NewChatStore binds to the chat bucket, creating it if needed.
func NewChatStore(ctx context.Context, client *Client) (*ChatStore, error) {
	kv, err := ensureBucket(ctx, client.JetStream(), jetstream.KeyValueConfig{
		Bucket:      ChatBucket,
		Description: "Chat records, one per thread",
		History:     1,
	})
	if err != nil {
		return nil, err
	}
	return &ChatStore{kv: kv}, nil
}

func ensureBucket(ctx context.Context, js jetstream.JetStream, cfg jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, cfg.Bucket)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, fmt.Errorf("failed to open bucket %s: %w", cfg.Bucket, err)
	}
	kv, err = js.CreateKeyValue(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
	}
	return kv, nil
}

func chatKey(userID, chatID string) string {
	return userID + "." + chatID
}

// Create persists a new chat record, stamping both timestamps.
func (s *ChatStore) Create(ctx context.Context, chat *model.Chat) error {
	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.LastUpdatedAt = now

	data, err := json.Marshal(chat)
	if err != nil {
		return apperr.Store("failed to encode chat", err)
	}
	if _, err := s.kv.Put(ctx, chatKey(chat.UserID, chat.ID), data); err != nil {
		return apperr.Store("failed to create chat", err)
	}
	return nil
}

// Get retrieves one chat owned by userID.
func (s *ChatStore) Get(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	entry, err := s.kv.Get(ctx, chatKey(userID, chatID))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, apperr.NotFound("chat not found")
		}
		return nil, apperr.Store("failed to read chat", err)
	}

	var chat model.Chat
	if err := json.Unmarshal(entry.Value(), &chat); err != nil {
		return nil, apperr.Store("failed to decode chat", err)
	}
	return &chat, nil
}

// List returns all of a user's chats ordered by last-updated descending.
func (s *ChatStore) List(ctx context.Context, userID string) ([]model.Chat, error) {
	watcher, err := s.kv.Watch(ctx, userID+".*", jetstream.IgnoreDeletes())
	if err != nil {
		return nil, apperr.Store("failed to list chats", err)
	}
	defer watcher.Stop()

	var chats []model.Chat
	for entry := range watcher.Updates() {
		if entry == nil {
			break // initial values delivered
		}
		var chat model.Chat
		if err := json.Unmarshal(entry.Value(), &chat); err != nil {
			continue
		}
		chats = append(chats, chat)
	}

	sortChats(chats)
	return chats, nil
}

func sortChats(chats []model.Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].LastUpdatedAt.After(chats[j].LastUpdatedAt)
	})
}

// UpdateTitle persists a new title and refreshes the last-updated time.
func (s *ChatStore) UpdateTitle(ctx context.Context, userID, chatID, title string) error {
	return s.update(ctx, userID, chatID, func(chat *model.Chat) {
		chat.Title = title
	})
}

// Touch refreshes a chat's last-updated time, reflecting message activity.
func (s *ChatStore) Touch(ctx context.Context, userID, chatID string) error {
	return s.update(ctx, userID, chatID, func(chat *model.Chat) {})
}

func (s *ChatStore) update(ctx context.Context, userID, chatID string, mutate func(*model.Chat)) error {
	chat, err := s.Get(ctx, userID, chatID)
	if err != nil {
		return err
	}

	mutate(chat)
	chat.LastUpdatedAt = time.Now().UTC()

	data, err := json.Marshal(chat)
	if err != nil {
		return apperr.Store("failed to encode chat", err)
	}
	if _, err := s.kv.Put(ctx, chatKey(userID, chatID), data); err != nil {
		return apperr.Store("failed to update chat", err)
	}
	return nil
}

// Delete removes a chat record. Message cleanup is the caller's
// responsibility via MessageStore.PurgeChat.
func (s *ChatStore) Delete(ctx context.Context, userID, chatID string) error {
	if _, err := s.Get(ctx, userID, chatID); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, chatKey(userID, chatID)); err != nil {
		return apperr.Store("failed to delete chat", err)
	}
	return nil
}

// Watch delivers the user's full ordered chat list on every underlying
// change, starting with one snapshot of current state. The feed ends when
// ctx is done or stop is called.
func (s *ChatStore) Watch(ctx context.Context, userID string) (<-chan []model.Chat, func(), error) {
	watcher, err := s.kv.Watch(ctx, userID+".*")
	if err != nil {
		return nil, nil, apperr.Store("failed to watch chats", err)
	}

	out := make(chan []model.Chat, 1)
	go func() {
		defer close(out)

		current := make(map[string]model.Chat)
		synced := false

		for entry := range watcher.Updates() {
			if entry == nil {
				synced = true
				out <- snapshot(current)
				continue
			}

			switch entry.Operation() {
			case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
				delete(current, entry.Key())
			default:
				var chat model.Chat
				if err := json.Unmarshal(entry.Value(), &chat); err != nil {
					continue
				}
				current[entry.Key()] = chat
			}

			if synced {
				out <- snapshot(current)
			}
		}
	}()

	stop := func() { watcher.Stop() }
	return out, stop, nil
}

func snapshot(current map[string]model.Chat) []model.Chat {
	chats := make([]model.Chat, 0, len(current))
	for _, chat := range current {
		chats = append(chats, chat)
	}
	sortChats(chats)
	return chats
}
