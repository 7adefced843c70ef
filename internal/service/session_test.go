package service

import (
	"context"
	"strings"
	"testing"

	"github.com/mental-buddy/chat-service/internal/apperr"
	"github.com/mental-buddy/chat-service/internal/model"
	"github.com/mental-buddy/chat-service/pkg/logger"
)

const testUser = "user-1"

func newTestController(relayClient *fakeRelay) (*Controller, *fakeChatStore, *fakeMessageStore) {
	chats := newFakeChatStore()
	messages := newFakeMessageStore()
	if relayClient == nil {
		relayClient = &fakeRelay{reply: "I hear you."}
	}
	return NewController(chats, messages, relayClient, logger.NewNop()), chats, messages
}

func TestCreateChat(t *testing.T) {
	c, _, _ := newTestController(nil)
	ctx := context.Background()

	chat, err := c.CreateChat(ctx, testUser)
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	if chat.Title != model.DefaultChatTitle {
		t.Errorf("title = %q, want %q", chat.Title, model.DefaultChatTitle)
	}
	if chat.Secret {
		t.Error("secret = true, want false with secret mode off")
	}
	if chat.CreatedAt.IsZero() || chat.LastUpdatedAt.IsZero() {
		t.Error("timestamps not assigned")
	}

	state := c.State(ctx, testUser)
	if state.ActiveChatID != chat.ID {
		t.Errorf("active chat = %q, want the new chat %q", state.ActiveChatID, chat.ID)
	}
}

func TestCreateChatInheritsSecretMode(t *testing.T) {
	c, _, _ := newTestController(nil)
	ctx := context.Background()

	enabled, notice := c.ToggleSecretMode(ctx, testUser)
	if !enabled {
		t.Fatal("ToggleSecretMode() = false, want true on first toggle")
	}
	if notice.Text == "" {
		t.Error("toggle notice is empty")
	}

	chat, err := c.CreateChat(ctx, testUser)
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	if !chat.Secret {
		t.Error("secret = false, want true with secret mode on")
	}

	// Toggling back must not affect the existing chat.
	if enabled, _ := c.ToggleSecretMode(ctx, testUser); enabled {
		t.Error("second toggle = true, want false")
	}
	got, err := c.GetChat(ctx, testUser, chat.ID)
	if err != nil {
		t.Fatalf("GetChat() error = %v", err)
	}
	if !got.Secret {
		t.Error("existing chat lost its secret flag after toggle")
	}
}

func TestSessionAutoSelectsMostRecentChat(t *testing.T) {
	c, chats, _ := newTestController(nil)
	ctx := context.Background()

	older, _ := c.CreateChat(ctx, testUser)
	newer, _ := c.CreateChat(ctx, testUser)
	if err := chats.Touch(ctx, testUser, newer.ID); err != nil {
		t.Fatal(err)
	}

	// A fresh session picks the most recently updated chat.
	c.EndSession(testUser)
	state := c.State(ctx, testUser)
	if state.ActiveChatID != newer.ID {
		t.Errorf("active chat = %q, want most recent %q", state.ActiveChatID, newer.ID)
	}

	// An explicit selection survives; auto-select happens only once.
	if err := c.SelectChat(ctx, testUser, older.ID); err != nil {
		t.Fatalf("SelectChat() error = %v", err)
	}
	state = c.State(ctx, testUser)
	if state.ActiveChatID != older.ID {
		t.Errorf("active chat = %q, want selected %q", state.ActiveChatID, older.ID)
	}
}

func TestSelectChatUnknown(t *testing.T) {
	c, _, _ := newTestController(nil)
	err := c.SelectChat(context.Background(), testUser, "missing")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("SelectChat(missing) kind = %v, want KindNotFound", apperr.KindOf(err))
	}
}

func TestListChatsOrdering(t *testing.T) {
	c, chats, _ := newTestController(nil)
	ctx := context.Background()

	first, _ := c.CreateChat(ctx, testUser)
	second, _ := c.CreateChat(ctx, testUser)
	third, _ := c.CreateChat(ctx, testUser)
	if err := chats.Touch(ctx, testUser, first.ID); err != nil {
		t.Fatal(err)
	}

	list, err := c.ListChats(ctx, testUser)
	if err != nil {
		t.Fatalf("ListChats() error = %v", err)
	}
	want := []string{first.ID, third.ID, second.ID}
	if len(list) != len(want) {
		t.Fatalf("len = %d, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("list[%d] = %q, want %q", i, list[i].ID, id)
		}
	}
}

func TestRenameChat(t *testing.T) {
	c, _, _ := newTestController(nil)
	ctx := context.Background()
	chat, _ := c.CreateChat(ctx, testUser)

	renamed, err := c.RenameChat(ctx, testUser, chat.ID, "  Morning check-in  ")
	if err != nil {
		t.Fatalf("RenameChat() error = %v", err)
	}
	if renamed.Title != "Morning check-in" {
		t.Errorf("title = %q, want trimmed %q", renamed.Title, "Morning check-in")
	}
	if !renamed.LastUpdatedAt.After(chat.LastUpdatedAt) {
		t.Error("rename did not refresh last-updated time")
	}

	if _, err := c.RenameChat(ctx, testUser, chat.ID, "   "); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("blank title kind = %v, want KindValidation", apperr.KindOf(err))
	}

	long := strings.Repeat("a", 250)
	renamed, err = c.RenameChat(ctx, testUser, chat.ID, long)
	if err != nil {
		t.Fatalf("RenameChat(long) error = %v", err)
	}
	if len([]rune(renamed.Title)) != 100 {
		t.Errorf("long title length = %d runes, want 100", len([]rune(renamed.Title)))
	}
}

func TestDeleteChatReselectsMostRecent(t *testing.T) {
	c, chats, messages := newTestController(nil)
	ctx := context.Background()

	a, _ := c.CreateChat(ctx, testUser)
	b, _ := c.CreateChat(ctx, testUser)
	doomed, _ := c.CreateChat(ctx, testUser)
	if err := chats.Touch(ctx, testUser, b.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := c.SendMessage(ctx, testUser, doomed.ID, &model.SendMessageRequest{Text: "hello"}); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if messages.count(testUser, doomed.ID) == 0 {
		t.Fatal("expected messages in the doomed chat")
	}

	if err := c.DeleteChat(ctx, testUser, doomed.ID); err != nil {
		t.Fatalf("DeleteChat() error = %v", err)
	}

	if messages.count(testUser, doomed.ID) != 0 {
		t.Error("messages survived chat deletion")
	}
	if _, err := c.GetChat(ctx, testUser, doomed.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Error("deleted chat still readable")
	}

	state := c.State(ctx, testUser)
	if state.ActiveChatID != b.ID {
		t.Errorf("active chat = %q, want most recent remaining %q", state.ActiveChatID, b.ID)
	}
	_ = a
}

func TestDeleteLastChatClearsActive(t *testing.T) {
	c, _, _ := newTestController(nil)
	ctx := context.Background()
	chat, _ := c.CreateChat(ctx, testUser)

	if err := c.DeleteChat(ctx, testUser, chat.ID); err != nil {
		t.Fatalf("DeleteChat() error = %v", err)
	}
	state := c.State(ctx, testUser)
	if state.ActiveChatID != "" {
		t.Errorf("active chat = %q, want none", state.ActiveChatID)
	}
}

func TestDeleteInactiveChatKeepsSelection(t *testing.T) {
	c, _, _ := newTestController(nil)
	ctx := context.Background()

	other, _ := c.CreateChat(ctx, testUser)
	active, _ := c.CreateChat(ctx, testUser)

	if err := c.DeleteChat(ctx, testUser, other.ID); err != nil {
		t.Fatalf("DeleteChat() error = %v", err)
	}
	state := c.State(ctx, testUser)
	if state.ActiveChatID != active.ID {
		t.Errorf("active chat = %q, want untouched %q", state.ActiveChatID, active.ID)
	}
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	c, _, _ := newTestController(nil)
	ctx := context.Background()

	c.ToggleSecretMode(ctx, "alice")
	chat, _ := c.CreateChat(ctx, "bob")

	if chat.Secret {
		t.Error("bob's chat inherited alice's secret mode")
	}
	if list, _ := c.ListChats(ctx, "alice"); len(list) != 0 {
		t.Errorf("alice sees %d chats, want 0", len(list))
	}
}
