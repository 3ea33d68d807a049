// File: internal/services/backend/service.go
package backend

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iyunix/go-medtutor/internal/domain"
	"github.com/iyunix/go-medtutor/internal/repository/chat"
	"github.com/iyunix/go-medtutor/internal/repository/message"
)

// SimService is the sqlite-backed simulated backend. It persists the chats
// and messages the session core works against and delegates answer
// generation to a pluggable Responder.
type SimService struct {
	config      *Config
	chatRepo    chat.ChatRepository
	messageRepo message.MessageRepository
	responder   Responder
	logger      Logger
}

func NewSimService(
	config *Config,
	chatRepo chat.ChatRepository,
	messageRepo message.MessageRepository,
	responder Responder,
	logger Logger,
) (*SimService, error) {
	if chatRepo == nil {
		return nil, NewValidationError("constructor", "chat repository is required")
	}
	if messageRepo == nil {
		return nil, NewValidationError("constructor", "message repository is required")
	}
	if responder == nil {
		return nil, NewValidationError("constructor", "responder is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, NewValidationError("config", err.Error())
	}

	return &SimService{
		config:      config,
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		responder:   responder,
		logger:      logger,
	}, nil
}

func (s *SimService) ListChats(ctx context.Context, userID string) ([]domain.Chat, error) {
	if userID == "" {
		return nil, NewValidationError("list_chats", "user ID is required")
	}
	chats, err := s.chatRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, s.wrapStorage("list_chats", err, ctx)
	}
	return chats, nil
}

func (s *SimService) ListMessages(ctx context.Context, chatID, cursor string, limit int) (*Page, error) {
	if chatID == "" {
		return nil, NewValidationError("list_messages", "chat ID is required")
	}
	if limit <= 0 {
		limit = s.config.DefaultPageSize
	}
	if limit > s.config.MaxPageSize {
		limit = s.config.MaxPageSize
	}

	// The cursor is the count of messages already delivered, measured back
	// from the newest. Empty means the most recent page.
	offset := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil || parsed < 0 {
			return nil, NewValidationError("list_messages", "malformed cursor")
		}
		offset = parsed
	}

	messages, total, err := s.messageRepo.FindWindow(ctx, chatID, offset, limit)
	if err != nil {
		return nil, s.wrapStorage("list_messages", err, ctx)
	}

	delivered := offset + len(messages)
	page := &Page{
		Messages: messages,
		HasMore:  int64(delivered) < total,
	}
	if page.HasMore {
		page.NextCursor = strconv.Itoa(delivered)
	}
	return page, nil
}

func (s *SimService) SendTurn(ctx context.Context, chatID, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewValidationError("send_turn", "message content cannot be empty")
	}
	if _, err := s.chatRepo.FindByID(ctx, chatID); err != nil {
		return nil, NewNotFoundError("send_turn", chatID)
	}

	now := time.Now()
	userMessage := &domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      domain.RoleUser,
		Content:   content,
		Timestamp: now,
		Status:    domain.StatusSent,
	}
	if _, err := s.messageRepo.Create(ctx, userMessage); err != nil {
		return nil, s.wrapStorage("send_turn", err, ctx)
	}
	_ = s.chatRepo.TouchLastMessage(ctx, chatID, content, now)

	reply, err := s.responder.Respond(ctx, content)
	if err != nil {
		// Abort-kind errors pass through so the session can discard silently.
		if be, ok := err.(*BackendError); ok {
			return nil, be
		}
		return nil, NewResponderError("send_turn", "responder failed", err)
	}
	if ctx.Err() != nil {
		return nil, NewAbortError("send_turn", ctx.Err())
	}

	assistant := &domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      domain.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
		Status:    domain.StatusSent,
	}
	if _, err := s.messageRepo.Create(ctx, assistant); err != nil {
		return nil, s.wrapStorage("send_turn", err, ctx)
	}
	_ = s.chatRepo.TouchLastMessage(ctx, chatID, reply, assistant.Timestamp)

	s.logger.Info("turn completed", "chat_id", chatID, "reply_length", len(reply))
	return assistant, nil
}

func (s *SimService) CreateChat(ctx context.Context, userID, firstMessage string) (*domain.Chat, error) {
	if userID == "" {
		return nil, NewValidationError("create_chat", "user ID is required")
	}
	if strings.TrimSpace(firstMessage) == "" {
		return nil, NewValidationError("create_chat", "first message cannot be empty")
	}

	count, err := s.chatRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, s.wrapStorage("create_chat", err, ctx)
	}
	if count >= int64(s.config.MaxChatsPerUser) {
		return nil, NewValidationError("create_chat", "chat limit reached; delete an old chat first")
	}

	newChat := &domain.Chat{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         domain.TitleFromMessage(firstMessage),
		CreatedAt:     time.Now(),
		LastMessageAt: time.Now(),
	}
	created, err := s.chatRepo.Create(ctx, newChat)
	if err != nil {
		return nil, s.wrapStorage("create_chat", err, ctx)
	}
	return created, nil
}

// NotifyTurnOutcome records an interrupted or cancelled turn. For an
// interruption the frozen partial content is persisted so reloaded history
// matches what the user saw; a plain cancellation stores nothing.
func (s *SimService) NotifyTurnOutcome(ctx context.Context, chatID, messageID string, outcome TurnOutcome, finalContent string) error {
	if chatID == "" || messageID == "" {
		return NewValidationError("notify_turn_outcome", "chat ID and message ID are required")
	}

	s.logger.Info("turn outcome reported",
		"chat_id", chatID, "message_id", messageID, "outcome", string(outcome))

	if finalContent == "" {
		return nil
	}

	// An interruption during typing arrives after the turn's full reply was
	// already persisted as sent. Rewrite that row in place; a second row
	// would make reloaded history show both the complete answer and the
	// interrupted stub.
	newest, _, err := s.messageRepo.FindWindow(ctx, chatID, 0, 1)
	if err != nil {
		return s.wrapStorage("notify_turn_outcome", err, ctx)
	}
	if len(newest) == 1 && newest[0].Role == domain.RoleAssistant && newest[0].Status == domain.StatusSent {
		row := newest[0]
		row.Content = finalContent
		row.Status = domain.StatusInterrupted
		row.WasInterrupted = true
		if err := s.messageRepo.Update(ctx, &row); err != nil {
			return s.wrapStorage("notify_turn_outcome", err, ctx)
		}
		return nil
	}

	// No persisted reply to rewrite; keep the partial as its own row.
	partial := &domain.Message{
		ID:             messageID,
		ChatID:         chatID,
		Role:           domain.RoleAssistant,
		Content:        finalContent,
		Timestamp:      time.Now(),
		Status:         domain.StatusInterrupted,
		WasInterrupted: true,
	}
	if _, err := s.messageRepo.Create(ctx, partial); err != nil {
		return s.wrapStorage("notify_turn_outcome", err, ctx)
	}
	_ = s.chatRepo.TouchLastMessage(ctx, chatID, finalContent, partial.Timestamp)
	return nil
}

func (s *SimService) DeleteChat(ctx context.Context, chatID, userID string) error {
	if chatID == "" || userID == "" {
		return NewValidationError("delete_chat", "chat ID and user ID are required")
	}

	if err := s.chatRepo.Delete(ctx, chatID, userID); err != nil {
		if err == chat.ErrUnauthorizedAccess {
			return NewNotFoundError("delete_chat", chatID)
		}
		return s.wrapStorage("delete_chat", err, ctx)
	}
	if err := s.messageRepo.DeleteByChatID(ctx, chatID); err != nil {
		return s.wrapStorage("delete_chat", err, ctx)
	}
	return nil
}

func (s *SimService) ExportChat(ctx context.Context, chatID string, format ExportFormat) ([]byte, error) {
	if chatID == "" {
		return nil, NewValidationError("export_chat", "chat ID is required")
	}
	if _, err := s.chatRepo.FindByID(ctx, chatID); err != nil {
		return nil, NewNotFoundError("export_chat", chatID)
	}
	count, err := s.messageRepo.CountByChatID(ctx, chatID)
	if err != nil {
		return nil, s.wrapStorage("export_chat", err, ctx)
	}
	if count == 0 {
		return nil, NewValidationError("export_chat", "chat has no messages to export")
	}

	messages, err := s.messageRepo.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, s.wrapStorage("export_chat", err, ctx)
	}

	switch format {
	case FormatJSON:
		return buildJSONExport(chatID, messages)
	case FormatCSV:
		return buildCSVExport(messages)
	default:
		return nil, NewValidationError("export_chat", "unsupported export format: "+string(format))
	}
}

// wrapStorage converts repository failures, preferring an abort
// classification when the context was cancelled underneath the query.
func (s *SimService) wrapStorage(operation string, err error, ctx context.Context) *BackendError {
	if ctx.Err() != nil {
		return NewAbortError(operation, ctx.Err())
	}
	return NewStorageError(operation, "storage operation failed", err)
}
