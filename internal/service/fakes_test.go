package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mental-buddy/chat-service/internal/apperr"
	"github.com/mental-buddy/chat-service/internal/model"
)

// fakeChatStore is an in-memory ChatStore with the same ordering and
// timestamp behavior as the NATS-backed one.
type fakeChatStore struct {
	mu    sync.Mutex
	chats map[string]*model.Chat // keyed userID+"/"+chatID
	now   time.Time
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{
		chats: make(map[string]*model.Chat),
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick advances the fake clock so successive writes get distinct
// last-updated times.
func (s *fakeChatStore) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *fakeChatStore) Create(ctx context.Context, chat *model.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tick()
	chat.CreatedAt = t
	chat.LastUpdatedAt = t
	cp := *chat
	s.chats[chat.UserID+"/"+chat.ID] = &cp
	return nil
}

func (s *fakeChatStore) Get(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[userID+"/"+chatID]
	if !ok {
		return nil, apperr.NotFound("chat not found")
	}
	cp := *chat
	return &cp, nil
}

func (s *fakeChatStore) List(ctx context.Context, userID string) ([]model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Chat
	for _, chat := range s.chats {
		if chat.UserID == userID {
			out = append(out, *chat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUpdatedAt.After(out[j].LastUpdatedAt)
	})
	return out, nil
}

func (s *fakeChatStore) UpdateTitle(ctx context.Context, userID, chatID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[userID+"/"+chatID]
	if !ok {
		return apperr.NotFound("chat not found")
	}
	chat.Title = title
	chat.LastUpdatedAt = s.tick()
	return nil
}

func (s *fakeChatStore) Touch(ctx context.Context, userID, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[userID+"/"+chatID]
	if !ok {
		return apperr.NotFound("chat not found")
	}
	chat.LastUpdatedAt = s.tick()
	return nil
}

func (s *fakeChatStore) Delete(ctx context.Context, userID, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, userID+"/"+chatID)
	return nil
}

// fakeMessageStore is an in-memory append-only MessageStore.
type fakeMessageStore struct {
	mu        sync.Mutex
	messages  []model.Message
	reactions map[string]model.Reaction // keyed messageID
	seq       uint64
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{reactions: make(map[string]model.Reaction)}
}

func (s *fakeMessageStore) Append(ctx context.Context, msg *model.Message) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	msg.Sequence = s.seq
	msg.SentAt = time.Now().UTC()
	s.messages = append(s.messages, *msg)
	return s.seq, nil
}

func (s *fakeMessageStore) List(ctx context.Context, userID, chatID string) ([]model.Message, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Message
	var last uint64
	for _, msg := range s.messages {
		if msg.UserID != userID || msg.ChatID != chatID {
			continue
		}
		if r, ok := s.reactions[msg.ID]; ok {
			cp := r
			msg.Reaction = &cp
		}
		out = append(out, msg)
		last = msg.Sequence
	}
	return out, last, nil
}

func (s *fakeMessageStore) SetReaction(ctx context.Context, userID, chatID, messageID string, reaction *model.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reaction == nil {
		delete(s.reactions, messageID)
		return nil
	}
	s.reactions[messageID] = *reaction
	return nil
}

func (s *fakeMessageStore) PurgeChat(ctx context.Context, userID, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.messages[:0]
	for _, msg := range s.messages {
		if msg.UserID == userID && msg.ChatID == chatID {
			delete(s.reactions, msg.ID)
			continue
		}
		kept = append(kept, msg)
	}
	s.messages = kept
	return nil
}

// count returns how many messages a chat holds.
func (s *fakeMessageStore) count(userID, chatID string) int {
	msgs, _, _ := s.List(context.Background(), userID, chatID)
	return len(msgs)
}

// fakeRelay is a scriptable relay Client.
type fakeRelay struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	prompts []string
	block   chan struct{} // when non-nil, Complete waits until closed
}

func (f *fakeRelay) Complete(ctx context.Context, systemInstruction, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeRelay) Name() string { return "fake" }

func (f *fakeRelay) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
