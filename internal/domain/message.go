// File: internal/domain/message.go
package domain

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MessageStatus tracks where a message is in its lifecycle.
type MessageStatus string

const (
	StatusSending     MessageStatus = "sending"
	StatusSent        MessageStatus = "sent"
	StatusFailed      MessageStatus = "failed"
	StatusThinking    MessageStatus = "thinking" // assistant turn accepted, response pending
	StatusTyping      MessageStatus = "typing"   // full response received, being revealed
	StatusInterrupted MessageStatus = "interrupted"
)

// Terminal reports whether a message can no longer change status.
func (s MessageStatus) Terminal() bool {
	return s == StatusSent || s == StatusInterrupted || s == StatusFailed
}

// InFlight reports whether a message belongs to an unresolved assistant turn.
// At most one message per chat may be in flight at any time.
func (s MessageStatus) InFlight() bool {
	return s == StatusThinking || s == StatusTyping
}

// Message represents a single message within a chat.
type Message struct {
	ID             string        `json:"id" gorm:"primarykey"`
	ChatID         string        `json:"chatId" gorm:"not null;index"` // The ID of the chat this message belongs to
	Role           string        `json:"role" gorm:"not null"`         // "user" or "assistant"
	Content        string        `json:"content"`
	Timestamp      time.Time     `json:"timestamp"`
	Status         MessageStatus `json:"status" gorm:"not null"`
	WasInterrupted bool          `json:"wasInterrupted,omitempty"`
}
