package chat

import (
	"context"
	"time"

	"github.com/iyunix/go-medtutor/internal/domain"
)

// ChatRepository handles chat data operations.
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error)
	FindByID(ctx context.Context, id string) (*domain.Chat, error)
	FindByUserID(ctx context.Context, userID string) ([]domain.Chat, error)
	Delete(ctx context.Context, chatID string, userID string) error
	TouchLastMessage(ctx context.Context, chatID, lastMessage string, at time.Time) error
	CountByUserID(ctx context.Context, userID string) (int64, error)
}
