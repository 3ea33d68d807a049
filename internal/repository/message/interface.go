// File: internal/repository/message/interface.go
package message

import (
	"context"

	"github.com/iyunix/go-medtutor/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) (*domain.Message, error)
	FindByChatID(ctx context.Context, chatID string) ([]domain.Message, error)
	// FindWindow returns a page of messages counted back from the newest:
	// offset 0 is the most recent page. Messages within a page stay
	// chronological. The second return is the chat's total message count.
	FindWindow(ctx context.Context, chatID string, offset, limit int) ([]domain.Message, int64, error)
	Update(ctx context.Context, message *domain.Message) error
	DeleteByChatID(ctx context.Context, chatID string) error
	CountByChatID(ctx context.Context, chatID string) (int64, error)
}
