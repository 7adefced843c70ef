// Package chatutil holds the pure display helpers shared by the chat
// service: title derivation and timestamp formatting.
package chatutil

import (
	"strings"

	"github.com/mental-buddy/chat-service/internal/model"
)

const (
	titleMaxWords   = 5
	titleMaxLength  = 35
	titleTruncateAt = 32
)

// GenerateChatTitle derives a short chat title from the first user
// message: the first five whitespace-separated words, truncated with an
// ellipsis when the result runs past 35 characters. Empty input yields the
// default title.
func GenerateChatTitle(text string) string {
	words := strings.Fields(text)
	if len(words) > titleMaxWords {
		words = words[:titleMaxWords]
	}
	title := strings.Join(words, " ")
	if runes := []rune(title); len(runes) > titleMaxLength {
		title = string(runes[:titleTruncateAt]) + "..."
	}
	if title == "" {
		return model.DefaultChatTitle
	}
	return title
}
