// File: internal/services/session/types.go
package session

import "github.com/iyunix/go-medtutor/internal/domain"

// Logger defines the logging interface used across the session core.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// AuthProvider is the auth collaborator surface consumed by the session core.
// The core refuses to send messages when no user is present.
type AuthProvider interface {
	CurrentUser() (*domain.User, bool)
	IsAuthenticated() bool
}

// Flags are the session's transient operation indicators.
type Flags struct {
	LoadingMessages bool `json:"loadingMessages"`
	LoadingChats    bool `json:"loadingChats"`
	Sending         bool `json:"sending"`
	Creating        bool `json:"creating"`
	Exporting       bool `json:"exporting"`
	Deleting        bool `json:"deleting"`
}

// Snapshot is a consistent read of the session state for presentation.
// Readers never observe a half-updated structure; every snapshot is taken
// under the session lock.
type Snapshot struct {
	CurrentChatID string           `json:"currentChatId"`
	Chats         []domain.Chat    `json:"chats"`
	Messages      []domain.Message `json:"messages"`
	Draft         string           `json:"draft"`
	HasMore       bool             `json:"hasMore"`
	PartialText   string           `json:"partialText"`
	Flags         Flags            `json:"flags"`
	LastError     string           `json:"lastError,omitempty"`
}
