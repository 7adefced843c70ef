package middleware

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mental-buddy/chat-service/internal/apperr"
)

// MaxTitleLength is the rune count a chat title is truncated to on rename.
const MaxTitleLength = 100

// ValidateMessageText validates message text for the send workflow.
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperr.Validation("message text is required")
	}
	if len(text) > 100000 { // ~100KB limit
		return apperr.Validation("message text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return apperr.Validation("message text must be valid UTF-8")
	}
	return nil
}

// ValidateChatID validates a chat ID.
func ValidateChatID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation("invalid chat ID format")
	}
	return nil
}

// ValidateMessageID validates a message ID.
func ValidateMessageID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation("invalid message ID format")
	}
	return nil
}

// NormalizeTitle trims and truncates a rename title, rejecting titles that
// are empty once trimmed.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.Validation("title cannot be empty")
	}
	if !utf8.ValidString(title) {
		return "", apperr.Validation("title must be valid UTF-8")
	}
	if runes := []rune(title); len(runes) > MaxTitleLength {
		title = string(runes[:MaxTitleLength])
	}
	return title, nil
}
