package chatutil

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateChatTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "first five words",
			in:   "I feel anxious about work today and tomorrow",
			want: "I feel anxious about work",
		},
		{
			name: "empty input falls back to default",
			in:   "",
			want: "New Chat",
		},
		{
			name: "whitespace only falls back to default",
			in:   "   \t\n  ",
			want: "New Chat",
		},
		{
			name: "short message kept whole",
			in:   "hello there",
			want: "hello there",
		},
		{
			name: "collapses runs of whitespace",
			in:   "one   two\t\tthree",
			want: "one two three",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateChatTitle(tt.in); got != tt.want {
				t.Errorf("GenerateChatTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateChatTitleTruncatesLongWord(t *testing.T) {
	word := strings.Repeat("a", 40)
	got := GenerateChatTitle(word)
	want := strings.Repeat("a", 32) + "..."
	if got != want {
		t.Errorf("GenerateChatTitle(40-char word) = %q, want %q", got, want)
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp(nil); got != "..." {
		t.Errorf("FormatTimestamp(nil) = %q, want %q", got, "...")
	}

	var pending time.Time
	if got := FormatTimestamp(&pending); got != "..." {
		t.Errorf("FormatTimestamp(zero) = %q, want %q", got, "...")
	}

	at := time.Date(2025, 3, 14, 14, 5, 0, 0, time.UTC)
	got := FormatTimestamp(&at)
	if !strings.Contains(got, "2:05") || !strings.Contains(got, "PM") {
		t.Errorf("FormatTimestamp(14:05) = %q, want hour:minute with PM marker", got)
	}

	morning := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	if got := FormatTimestamp(&morning); got != "9:30 AM" {
		t.Errorf("FormatTimestamp(09:30) = %q, want %q", got, "9:30 AM")
	}
}
