// File: internal/domain/chat.go
package domain

import (
	"strings"
	"time"
)

// TempChatIDPrefix marks chats created locally before the backend has
// assigned a permanent id.
const TempChatIDPrefix = "new-chat-"

// Chat represents a single conversation thread.
type Chat struct {
	ID            string    `json:"id" gorm:"primarykey"`
	UserID        string    `json:"userId" gorm:"not null;index"` // The ID of the user who owns the chat
	Title         string    `json:"title"`                        // Derived from the first message, e.g., "What are symptoms of flu?"
	LastMessage   string    `json:"lastMessage,omitempty"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
	MessageCount  int       `json:"messageCount"`
}

// IsTemporary reports whether the chat still carries a locally synthesized id.
func (c *Chat) IsTemporary() bool {
	return IsTempChatID(c.ID)
}

// IsTempChatID reports whether id was synthesized locally.
func IsTempChatID(id string) bool {
	return strings.HasPrefix(id, TempChatIDPrefix)
}

// TitleFromMessage derives a chat title by truncating the first message.
func TitleFromMessage(firstMessage string) string {
	const maxTitleLen = 50
	title := strings.TrimSpace(firstMessage)
	if runes := []rune(title); len(runes) > maxTitleLen {
		return string(runes[:maxTitleLen]) + "..."
	}
	return title
}
