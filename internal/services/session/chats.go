// File: internal/services/session/chats.go
package session

import (
	"context"

	"github.com/iyunix/go-medtutor/internal/domain"
	"github.com/iyunix/go-medtutor/internal/services/backend"
	"github.com/iyunix/go-medtutor/internal/services/request"
)

// SelectChat makes chatID the active chat. Any in-flight turn for the
// previous chat is settled, and the in-memory list is cleared so history is
// always freshly fetched rather than served stale.
func (s *Session) SelectChat(ctx context.Context, chatID string) error {
	if chatID == "" {
		return NewValidationError("select_chat", "chat ID is required")
	}

	s.mu.Lock()
	s.lastError = ""
	s.settleInFlightLocked()
	s.currentChatID = chatID
	s.messages[chatID] = []domain.Message{}
	s.hasMore[chatID] = true
	delete(s.cursors, chatID)
	if _, ok := s.drafts[chatID]; !ok {
		s.drafts[chatID] = ""
	}
	s.mu.Unlock()

	return s.LoadMessages(ctx, chatID, "")
}

// NewChat abandons any in-flight work and installs a fresh local chat with
// an empty message list and draft. Returns the temporary chat id.
func (s *Session) NewChat() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = ""
	s.settleInFlightLocked()
	return s.newTempChatLocked()
}

// LoadChats populates the chat directory from the backend. Locally
// synthesized chats the backend has not acknowledged yet stay listed.
func (s *Session) LoadChats(ctx context.Context) error {
	user, ok := s.auth.CurrentUser()
	if !ok {
		return NewUnauthorizedError("load_chats")
	}

	s.mu.Lock()
	s.flags.LoadingChats = true
	s.mu.Unlock()

	chats, err := s.backend.ListChats(ctx, user.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.LoadingChats = false

	if err != nil {
		if request.Classify(err) == request.OutcomeAborted {
			return nil
		}
		s.setErrorLocked("could not load chats")
		return NewBackendError("load_chats", "could not load chats", err)
	}

	var merged []domain.Chat
	for _, c := range s.chats {
		if c.IsTemporary() {
			merged = append(merged, c)
		}
	}
	s.chats = append(merged, chats...)
	return nil
}

// LoadMessages fetches one page of history. An empty cursor replaces the
// stored list with the newest page; a cursor appends the older page. Stale
// responses for a chat that is no longer active are discarded.
func (s *Session) LoadMessages(ctx context.Context, chatID, cursor string) error {
	if chatID == "" {
		return NewValidationError("load_messages", "chat ID is required")
	}
	if domain.IsTempChatID(chatID) {
		// Local-only chat: there is no server history yet.
		s.mu.Lock()
		s.hasMore[chatID] = false
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.flags.LoadingMessages = true
	s.mu.Unlock()

	page, err := s.backend.ListMessages(ctx, chatID, cursor, s.config.PageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.LoadingMessages = false

	if err != nil {
		if request.Classify(err) == request.OutcomeAborted {
			return nil
		}
		s.setErrorLocked("could not load messages")
		return NewBackendError("load_messages", "could not load messages", err)
	}
	if s.currentChatID != chatID {
		// Superseded by a newer selection; drop the stale page.
		return nil
	}

	if cursor == "" {
		s.messages[chatID] = append([]domain.Message(nil), page.Messages...)
	} else {
		s.messages[chatID] = append(s.messages[chatID], page.Messages...)
	}
	s.hasMore[chatID] = page.HasMore
	if page.NextCursor != "" {
		s.cursors[chatID] = page.NextCursor
	} else {
		delete(s.cursors, chatID)
	}
	return nil
}

// NextCursor returns the cursor for the next older history page, empty when
// none is known.
func (s *Session) NextCursor(chatID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors[chatID]
}

// DeleteChat removes a chat and purges everything stored for it. Deleting
// the active chat installs a fresh empty chat as replacement; failure leaves
// the chat list unchanged.
func (s *Session) DeleteChat(ctx context.Context, chatID string) error {
	if chatID == "" {
		return NewValidationError("delete_chat", "chat ID is required")
	}
	user, ok := s.auth.CurrentUser()
	if !ok {
		return NewUnauthorizedError("delete_chat")
	}

	s.mu.Lock()
	s.lastError = ""
	s.flags.Deleting = true
	wasActive := chatID == s.currentChatID
	if wasActive {
		s.settleInFlightLocked()
	}

	if domain.IsTempChatID(chatID) {
		// Never reached the backend; a purely local removal.
		s.purgeChatLocked(chatID)
		if wasActive {
			s.newTempChatLocked()
		}
		s.flags.Deleting = false
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	err := s.backend.DeleteChat(ctx, chatID, user.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.Deleting = false

	if err != nil {
		s.setErrorLocked("could not delete chat")
		return NewBackendError("delete_chat", "could not delete chat", err)
	}

	s.purgeChatLocked(chatID)
	if wasActive {
		s.newTempChatLocked()
	}
	s.logger.Info("chat deleted", "chat_id", chatID, "was_active", wasActive)
	return nil
}

// purgeChatLocked removes every trace of a chat. Caller holds s.mu.
func (s *Session) purgeChatLocked(chatID string) {
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			s.chats = append(s.chats[:i], s.chats[i+1:]...)
			break
		}
	}
	delete(s.messages, chatID)
	delete(s.drafts, chatID)
	delete(s.hasMore, chatID)
	delete(s.cursors, chatID)
	if s.currentChatID == chatID {
		s.currentChatID = ""
	}
}

// ExportChat renders the active chat's full history as a downloadable blob.
// No partial file is produced on failure.
func (s *Session) ExportChat(ctx context.Context, format backend.ExportFormat) ([]byte, error) {
	s.mu.Lock()
	chatID := s.currentChatID
	s.lastError = ""
	s.flags.Exporting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.flags.Exporting = false
		s.mu.Unlock()
	}()

	if chatID == "" {
		return nil, NewValidationError("export_chat", "no chat selected")
	}
	if domain.IsTempChatID(chatID) {
		return nil, NewValidationError("export_chat", "chat has no exportable history yet")
	}

	blob, err := s.backend.ExportChat(ctx, chatID, format)
	if err != nil {
		s.mu.Lock()
		s.setErrorLocked("could not export chat")
		s.mu.Unlock()
		return nil, NewBackendError("export_chat", "could not export chat", err)
	}
	return blob, nil
}
