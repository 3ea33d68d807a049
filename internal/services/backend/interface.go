// File: internal/services/backend/interface.go
package backend

import (
	"context"

	"github.com/iyunix/go-medtutor/internal/domain"
)

// Logger defines the logging interface used across the backend service.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Page is one window of a chat's history.
type Page struct {
	Messages   []domain.Message `json:"messages"`
	HasMore    bool             `json:"hasMore"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

// TurnOutcome discriminates how a turn ended early.
type TurnOutcome string

const (
	OutcomeInterrupted TurnOutcome = "interrupted"
	OutcomeCancelled   TurnOutcome = "cancelled"
)

// ExportFormat selects the export blob encoding.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// Service is the backend collaborator consumed by the chat session core. The
// session treats it as a black box; every blocking operation honors its
// context and rejects promptly with an abort-kind error when cancelled.
type Service interface {
	ListChats(ctx context.Context, userID string) ([]domain.Chat, error)

	// ListMessages returns a history page. The cursor is an opaque offset
	// string; empty means the most recent page. Callers accumulate pages by
	// index order, not by message id.
	ListMessages(ctx context.Context, chatID, cursor string, limit int) (*Page, error)

	// SendTurn persists the user message and returns the assistant's
	// completed reply.
	SendTurn(ctx context.Context, chatID, content string) (*domain.Message, error)

	// CreateChat registers a new chat whose title derives from firstMessage.
	CreateChat(ctx context.Context, userID, firstMessage string) (*domain.Chat, error)

	// NotifyTurnOutcome records an early termination. Best-effort; callers
	// fire and forget.
	NotifyTurnOutcome(ctx context.Context, chatID, messageID string, outcome TurnOutcome, finalContent string) error

	DeleteChat(ctx context.Context, chatID, userID string) error

	// ExportChat renders the full history as a downloadable blob.
	ExportChat(ctx context.Context, chatID string, format ExportFormat) ([]byte, error)
}

// Responder produces the assistant's reply for one turn. Implementations must
// honor ctx cancellation promptly.
type Responder interface {
	Respond(ctx context.Context, question string) (string, error)
}
