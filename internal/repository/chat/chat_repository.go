// File: internal/repository/chat/chat_repository.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/iyunix/go-medtutor/internal/domain"
)

var ErrChatNotFound = errors.New("chat not found")
var ErrUnauthorizedAccess = errors.New("unauthorized access to chat")

type gormChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

// Create - Enhanced with input validation and secure logging
func (r *gormChatRepository) Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error) {
	if err := r.validateChatInput(chat); err != nil {
		log.Printf("[ChatRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	err := r.db.WithContext(ctx).Create(chat).Error
	if err != nil {
		// Secure logging - no sensitive data exposed
		log.Printf("[ChatRepository] Database error during chat creation for user %s: %v", chat.UserID, err)
		return nil, errors.New("database error creating chat")
	}

	log.Printf("[ChatRepository] Chat created successfully with ID: %s for user: %s", chat.ID, chat.UserID)
	return chat, nil
}

// FindByID - Enhanced with secure error handling
func (r *gormChatRepository) FindByID(ctx context.Context, chatID string) (*domain.Chat, error) {
	if chatID == "" {
		return nil, errors.New("invalid chat ID")
	}

	var chat domain.Chat
	err := r.db.WithContext(ctx).First(&chat, "id = ?", chatID).Error
	return r.handleFindError(err, &chat, "FindByID")
}

// FindByUserID returns all chats for a user, most recently active first.
func (r *gormChatRepository) FindByUserID(ctx context.Context, userID string) ([]domain.Chat, error) {
	if userID == "" {
		return nil, errors.New("invalid user ID")
	}

	var chats []domain.Chat
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_message_at DESC, id DESC").
		Find(&chats).Error

	if err != nil {
		log.Printf("[ChatRepository] Database error finding chats for user %s: %v", userID, err)
		return nil, errors.New("database error fetching chats")
	}

	return chats, nil
}

// Delete - Enhanced with validation and secure logging
func (r *gormChatRepository) Delete(ctx context.Context, chatID, userID string) error {
	if chatID == "" || userID == "" {
		return errors.New("invalid chat ID or user ID")
	}

	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", chatID, userID).
		Delete(&domain.Chat{})

	if result.Error != nil {
		log.Printf("[ChatRepository] Database error deleting chat %s for user %s: %v", chatID, userID, result.Error)
		return errors.New("database error deleting chat")
	}

	if result.RowsAffected == 0 {
		return ErrUnauthorizedAccess
	}

	log.Printf("[ChatRepository] Chat deleted successfully: %s for user %s", chatID, userID)
	return nil
}

// TouchLastMessage records the newest message preview and bumps the count.
func (r *gormChatRepository) TouchLastMessage(ctx context.Context, chatID, lastMessage string, at time.Time) error {
	if chatID == "" {
		return errors.New("invalid chat ID")
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]interface{}{
			"last_message":    lastMessage,
			"last_message_at": at,
			"message_count":   gorm.Expr("message_count + 1"),
		})

	if result.Error != nil {
		log.Printf("[ChatRepository] Database error updating chat %s: %v", chatID, result.Error)
		return errors.New("database error updating chat")
	}

	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}

	return nil
}

// CountByUserID - Performance: efficient user chat counting
func (r *gormChatRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, errors.New("invalid user ID")
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Chat{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		log.Printf("[ChatRepository] Database error counting chats for user %s: %v", userID, err)
		return 0, errors.New("database error counting user chats")
	}

	return count, nil
}

// ===== SECURITY VALIDATION HELPERS =====

// validateChatInput - Comprehensive input validation
func (r *gormChatRepository) validateChatInput(chat *domain.Chat) error {
	if chat == nil {
		return errors.New("chat cannot be nil")
	}

	if chat.UserID == "" {
		return errors.New("user ID is required")
	}

	if err := r.validateChatTitle(chat.Title); err != nil {
		return fmt.Errorf("title validation: %w", err)
	}

	return nil
}

// validateChatTitle - Title validation with security checks
func (r *gormChatRepository) validateChatTitle(title string) error {
	if len(title) > 200 {
		return errors.New("title must be 200 characters or less")
	}

	// Basic XSS protection
	if strings.Contains(title, "<script") || strings.Contains(title, "javascript:") {
		return errors.New("invalid characters detected in title")
	}

	return nil
}

// ===== ERROR HANDLING HELPERS =====

// handleFindError - Secure error handling without data leakage
func (r *gormChatRepository) handleFindError(err error, chat *domain.Chat, operation string) (*domain.Chat, error) {
	if err == nil {
		return chat, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChatNotFound
	}

	// Log technical details for debugging
	log.Printf("[ChatRepository] %s database error: %v", operation, err)

	// Return generic error for security
	return nil, errors.New("database query failed")
}
