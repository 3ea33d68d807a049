// File: internal/services/session/send.go
package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iyunix/go-medtutor/internal/domain"
	"github.com/iyunix/go-medtutor/internal/services/request"
)

// SendMessage starts one assistant turn. The user message and a thinking
// placeholder are appended optimistically before any backend round trip; the
// turn itself resolves asynchronously under a cancellation token, and a newer
// send or chat switch supersedes it.
func (s *Session) SendMessage(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return NewValidationError("send_message", "message content cannot be empty")
	}
	user, ok := s.auth.CurrentUser()
	if !ok {
		return NewUnauthorizedError("send_message")
	}

	s.mu.Lock()
	s.lastError = ""

	// Never hold two in-flight turns for one chat: an unresolved turn is
	// cancelled the same way an explicit interruption would.
	if s.currentChatID != "" && s.inFlightLocked(s.currentChatID) >= 0 {
		s.cancelTurnLocked(true, content)
	} else {
		s.controller.CancelInFlight()
	}

	if s.currentChatID == "" {
		s.newTempChatLocked()
	}
	chatID := s.currentChatID

	now := time.Now()
	userMessage := domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      domain.RoleUser,
		Content:   content,
		Timestamp: now,
		Status:    domain.StatusSent,
	}
	placeholder := domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      domain.RoleAssistant,
		Timestamp: now,
		Status:    domain.StatusThinking,
	}
	s.messages[chatID] = append(s.messages[chatID], userMessage, placeholder)
	s.drafts[chatID] = ""
	s.flags.Sending = true
	if domain.IsTempChatID(chatID) {
		s.flags.Creating = true
	}
	s.touchDirectoryLocked(chatID, content, now)
	if title := domain.TitleFromMessage(content); domain.IsTempChatID(chatID) {
		for i := range s.chats {
			if s.chats[i].ID == chatID && s.chats[i].Title == "New Chat" {
				s.chats[i].Title = title
			}
		}
	}

	// The turn outlives the caller; its lifetime is governed solely by the
	// request controller.
	ctx, token := s.controller.Begin(context.Background())
	s.mu.Unlock()

	s.logger.Info("send started", "chat_id", chatID, "content_length", len(content))
	go s.performTurn(ctx, token, chatID, user.ID, placeholder.ID, content)
	return nil
}

// performTurn runs the backend round trip for one turn: chat creation and
// re-keying when the chat is still temporary, then the assistant reply.
func (s *Session) performTurn(ctx context.Context, token request.Token, chatID, userID, placeholderID, content string) {
	resolvedChatID := chatID

	if domain.IsTempChatID(chatID) {
		created, err := s.backend.CreateChat(ctx, userID, content)

		s.mu.Lock()
		s.flags.Creating = false
		if err != nil {
			s.mu.Unlock()
			s.failTurn(token, resolvedChatID, placeholderID, content, "could not create chat", err)
			return
		}
		if token.Stale() {
			s.mu.Unlock()
			return
		}
		s.rekeyChatLocked(chatID, created)
		resolvedChatID = created.ID
		s.mu.Unlock()
	}

	reply, err := s.backend.SendTurn(ctx, resolvedChatID, content)
	if err != nil {
		s.failTurn(token, resolvedChatID, placeholderID, content, "could not get a response", err)
		return
	}

	s.mu.Lock()
	if token.Stale() {
		// Superseded while resolving; the stale response is discarded.
		s.mu.Unlock()
		return
	}
	idx := s.findMessageLocked(resolvedChatID, placeholderID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	msg := &s.messages[resolvedChatID][idx]
	msg.Content = reply.Content
	msg.Timestamp = reply.Timestamp
	s.partial = ""
	s.flags.Sending = false
	s.controller.Settle(token)

	// Nothing to reveal for an empty reply; the typewriter would never
	// fire its completion callback, stranding the placeholder in typing.
	if reply.Content == "" {
		msg.Status = domain.StatusSent
		s.mu.Unlock()
		return
	}

	msg.Status = domain.StatusTyping
	full := reply.Content
	s.mu.Unlock()

	s.writer.Start(full,
		func(revealed string) {
			s.mu.Lock()
			if i := s.findMessageLocked(resolvedChatID, placeholderID); i >= 0 &&
				s.messages[resolvedChatID][i].Status == domain.StatusTyping {
				s.partial = revealed
			}
			s.mu.Unlock()
		},
		func() {
			s.mu.Lock()
			if i := s.findMessageLocked(resolvedChatID, placeholderID); i >= 0 &&
				s.messages[resolvedChatID][i].Status == domain.StatusTyping {
				s.messages[resolvedChatID][i].Status = domain.StatusSent
				s.partial = ""
				s.touchDirectoryLocked(resolvedChatID, full, time.Now())
			}
			s.mu.Unlock()
		},
	)
}

// rekeyChatLocked atomically relabels everything stored under a temporary
// chat id with the server-assigned one. No intermediate state exists where
// messages live under neither key. Caller holds s.mu.
func (s *Session) rekeyChatLocked(tempID string, created *domain.Chat) {
	msgs := s.messages[tempID]
	for i := range msgs {
		msgs[i].ChatID = created.ID
	}
	s.messages[created.ID] = msgs
	delete(s.messages, tempID)

	s.drafts[created.ID] = s.drafts[tempID]
	delete(s.drafts, tempID)
	s.hasMore[created.ID] = s.hasMore[tempID]
	delete(s.hasMore, tempID)
	if cursor, ok := s.cursors[tempID]; ok {
		s.cursors[created.ID] = cursor
		delete(s.cursors, tempID)
	}

	for i := range s.chats {
		if s.chats[i].ID == tempID {
			s.chats[i].ID = created.ID
			s.chats[i].UserID = created.UserID
			s.chats[i].Title = created.Title
			s.chats[i].CreatedAt = created.CreatedAt
			break
		}
	}

	if s.currentChatID == tempID {
		s.currentChatID = created.ID
	}
	s.logger.Debug("chat re-keyed", "temp_id", tempID, "chat_id", created.ID)
}

// failTurn rolls back the optimistic placeholder after a backend failure.
// Aborted turns are discarded silently; the cancellation path has already
// settled the message statuses.
func (s *Session) failTurn(token request.Token, chatID, placeholderID, content, reason string, err error) {
	if request.Classify(err) == request.OutcomeAborted {
		s.logger.Debug("turn aborted", "chat_id", chatID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.Stale() {
		return
	}

	if idx := s.findMessageLocked(chatID, placeholderID); idx >= 0 {
		s.messages[chatID] = append(s.messages[chatID][:idx], s.messages[chatID][idx+1:]...)
	}
	// The user message stays, marked failed, and the typed text returns to
	// the input for retry.
	for i := len(s.messages[chatID]) - 1; i >= 0; i-- {
		m := &s.messages[chatID][i]
		if m.Role == domain.RoleUser && m.Content == content {
			m.Status = domain.StatusFailed
			break
		}
	}
	s.drafts[chatID] = content
	s.flags.Sending = false
	s.setErrorLocked(reason)
	s.controller.Settle(token)
	s.logger.Error("turn failed", "chat_id", chatID, "reason", reason, "error", err)
}
