package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/mental-buddy/chat-service/internal/apperr"
	"github.com/mental-buddy/chat-service/internal/model"
)

const (
	// StreamName is the JetStream stream holding every persisted message.
	StreamName = "CHAT_MESSAGES"

	// SubjectPrefix roots the per-chat subject hierarchy.
	SubjectPrefix = "chat"

	// ReactionBucket holds one key per reacted message. Reactions are the
	// only mutable message field, so they live outside the append-only log.
	ReactionBucket = "CHAT_REACTIONS"

	listBatchSize = 100
)

// MessageStore persists messages as an append-only JetStream log, ordered
// by stream sequence, plus a KV bucket for reactions. Send timestamps are
// stamped at append time.
type MessageStore struct {
	client    *Client
	reactions jetstream.KeyValue
}

// NewMessageStore ensures the message stream and reaction bucket exist.
func NewMessageStore(ctx context.Context, client *Client) (*MessageStore, error) {
	js := client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err != nil {
		_, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:        StreamName,
			Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
			Retention:   jetstream.LimitsPolicy,
			MaxAge:      365 * 24 * time.Hour,
			Storage:     jetstream.FileStorage,
			Replicas:    1,
			Compression: jetstream.S2Compression,
			Description: "Persisted chat messages, append-only",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create stream: %w", err)
		}
	}

	reactions, err := ensureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket:      ReactionBucket,
		Description: "Per-message reaction state",
		History:     1,
	})
	if err != nil {
		return nil, err
	}

	return &MessageStore{client: client, reactions: reactions}, nil
}

// MessageSubject returns the subject a message is published on.
func MessageSubject(userID, chatID string, sender model.Sender) string {
	return fmt.Sprintf("%s.%s.%s.%s", SubjectPrefix, userID, chatID, sender)
}

// chatFilter matches every message in one chat.
func chatFilter(userID, chatID string) string {
	return fmt.Sprintf("%s.%s.%s.>", SubjectPrefix, userID, chatID)
}

func reactionKey(userID, chatID, messageID string) string {
	return userID + "." + chatID + "." + messageID
}

// Append publishes a message to the log, stamping its send time, and
// returns the storage-assigned sequence.
func (s *MessageStore) Append(ctx context.Context, msg *model.Message) (uint64, error) {
	msg.SentAt = time.Now().UTC()

	data, err := json.Marshal(msg)
	if err != nil {
		return 0, apperr.Store("failed to encode message", err)
	}

	ack, err := s.client.JetStream().Publish(ctx, MessageSubject(msg.UserID, msg.ChatID, msg.Sender), data)
	if err != nil {
		return 0, apperr.Store("failed to persist message", err)
	}

	msg.Sequence = ack.Sequence
	return ack.Sequence, nil
}

// List returns every message in a chat in send order, with reactions
// merged in, plus the last stream sequence seen.
func (s *MessageStore) List(ctx context.Context, userID, chatID string) ([]model.Message, uint64, error) {
	js := s.client.JetStream()

	consumer, err := js.CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject: chatFilter(userID, chatID),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, 0, apperr.Store("failed to read messages", err)
	}

	var messages []model.Message
	var lastSequence uint64

	for {
		batch, err := consumer.Fetch(listBatchSize, jetstream.FetchMaxWait(2*time.Second))
		if err != nil {
			return nil, 0, apperr.Store("failed to fetch messages", err)
		}

		count := 0
		for raw := range batch.Messages() {
			count++

			var msg model.Message
			if err := json.Unmarshal(raw.Data(), &msg); err != nil {
				continue
			}
			if meta, err := raw.Metadata(); err == nil {
				msg.Sequence = meta.Sequence.Stream
				lastSequence = meta.Sequence.Stream
			}
			messages = append(messages, msg)
		}

		if batch.Error() != nil && !errors.Is(batch.Error(), context.DeadlineExceeded) {
			return nil, 0, apperr.Store("failed to fetch messages", batch.Error())
		}
		if count < listBatchSize {
			break
		}
	}

	if err := s.mergeReactions(ctx, userID, chatID, messages); err != nil {
		return nil, 0, err
	}

	return messages, lastSequence, nil
}

func (s *MessageStore) mergeReactions(ctx context.Context, userID, chatID string, messages []model.Message) error {
	if len(messages) == 0 {
		return nil
	}

	watcher, err := s.reactions.Watch(ctx, userID+"."+chatID+".*", jetstream.IgnoreDeletes())
	if err != nil {
		return apperr.Store("failed to read reactions", err)
	}
	defer watcher.Stop()

	byKey := make(map[string]model.Reaction)
	for entry := range watcher.Updates() {
		if entry == nil {
			break
		}
		byKey[entry.Key()] = model.Reaction(entry.Value())
	}

	for i := range messages {
		if r, ok := byKey[reactionKey(userID, chatID, messages[i].ID)]; ok {
			reaction := r
			messages[i].Reaction = &reaction
		}
	}
	return nil
}

// SetReaction writes or clears the reaction on one message. A nil reaction
// clears it.
func (s *MessageStore) SetReaction(ctx context.Context, userID, chatID, messageID string, reaction *model.Reaction) error {
	key := reactionKey(userID, chatID, messageID)
	if reaction == nil {
		err := s.reactions.Delete(ctx, key)
		if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return apperr.Store("failed to clear reaction", err)
		}
		return nil
	}
	if _, err := s.reactions.Put(ctx, key, []byte(*reaction)); err != nil {
		return apperr.Store("failed to save reaction", err)
	}
	return nil
}

// Subscribe delivers messages for a chat live, starting after afterSeq
// (or from the beginning of the chat when afterSeq is zero). The feed ends
// when ctx is done or stop is called.
func (s *MessageStore) Subscribe(ctx context.Context, userID, chatID string, afterSeq uint64) (<-chan model.Message, func(), error) {
	cfg := jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{chatFilter(userID, chatID)},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	}
	if afterSeq > 0 {
		cfg.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		cfg.OptStartSeq = afterSeq + 1
	}

	consumer, err := s.client.JetStream().OrderedConsumer(ctx, StreamName, cfg)
	if err != nil {
		return nil, nil, apperr.Store("failed to subscribe to messages", err)
	}

	out := make(chan model.Message, 16)
	cc, err := consumer.Consume(func(raw jetstream.Msg) {
		var msg model.Message
		if err := json.Unmarshal(raw.Data(), &msg); err != nil {
			return
		}
		if meta, err := raw.Metadata(); err == nil {
			msg.Sequence = meta.Sequence.Stream
		}
		select {
		case out <- msg:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, nil, apperr.Store("failed to subscribe to messages", err)
	}

	// out is never closed; consumers must also select on their own ctx.
	stop := func() { cc.Stop() }
	return out, stop, nil
}

// PurgeChat removes every persisted message and reaction belonging to a
// chat. Called when the chat itself is deleted so no records are orphaned.
func (s *MessageStore) PurgeChat(ctx context.Context, userID, chatID string) error {
	stream, err := s.client.JetStream().Stream(ctx, StreamName)
	if err != nil {
		return apperr.Store("failed to open message stream", err)
	}
	if err := stream.Purge(ctx, jetstream.WithPurgeSubject(chatFilter(userID, chatID))); err != nil {
		return apperr.Store("failed to purge messages", err)
	}

	watcher, err := s.reactions.Watch(ctx, userID+"."+chatID+".*", jetstream.IgnoreDeletes())
	if err != nil {
		return apperr.Store("failed to purge reactions", err)
	}
	defer watcher.Stop()

	var keys []string
	for entry := range watcher.Updates() {
		if entry == nil {
			break
		}
		keys = append(keys, entry.Key())
	}
	for _, key := range keys {
		if err := s.reactions.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return apperr.Store("failed to purge reactions", err)
		}
	}
	return nil
}
