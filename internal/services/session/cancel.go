// File: internal/services/session/cancel.go
package session

import (
	"context"
	"time"

	"github.com/iyunix/go-medtutor/internal/domain"
	"github.com/iyunix/go-medtutor/internal/services/backend"
)

const notifyTimeout = 5 * time.Second

// CancelTurn cancels the in-flight backend request, if any, and terminates
// the active chat's unresolved assistant message.
//
// isInterruption is reserved for cancellation immediately followed by a new
// send, so the outcome notification could one day carry the new content in a
// bundled round trip; it does not change cancellation behavior itself.
func (s *Session) CancelTurn(isInterruption bool, newContent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTurnLocked(isInterruption, newContent)
}

// cancelTurnLocked carries the three cancellation branches. Caller holds s.mu.
func (s *Session) cancelTurnLocked(isInterruption bool, newContent string) {
	_ = newContent // see CancelTurn: reserved, not yet consumed

	s.controller.CancelInFlight()

	chatID := s.currentChatID
	if chatID == "" {
		s.flags.Sending = false
		return
	}
	idx := s.inFlightLocked(chatID)
	if idx < 0 {
		// Nothing unresolved; just clear the transient sending state.
		s.flags.Sending = false
		return
	}

	msg := &s.messages[chatID][idx]
	switch msg.Status {
	case domain.StatusTyping:
		// Freeze whatever was revealed, marked as abruptly truncated.
		partial := s.writer.Cancel()
		msg.Content = partial + s.config.InterruptionMarker
		msg.Status = domain.StatusInterrupted
		msg.WasInterrupted = true
		s.touchDirectoryLocked(chatID, msg.Content, time.Now())
		s.notifyOutcome(chatID, msg.ID, backend.OutcomeInterrupted, msg.Content)
		s.logger.Info("turn interrupted during typing",
			"chat_id", chatID, "revealed_length", len(partial), "is_interruption", isInterruption)

	case domain.StatusThinking:
		msg.Content = ""
		msg.Status = domain.StatusInterrupted
		msg.WasInterrupted = true
		s.notifyOutcome(chatID, msg.ID, backend.OutcomeCancelled, "")
		s.logger.Info("turn cancelled while thinking",
			"chat_id", chatID, "is_interruption", isInterruption)
	}

	s.partial = ""
	s.flags.Sending = false
}

// notifyOutcome reports the early termination to the backend collaborator.
// Fire-and-forget: failure is logged, never surfaced.
func (s *Session) notifyOutcome(chatID, messageID string, outcome backend.TurnOutcome, finalContent string) {
	if domain.IsTempChatID(chatID) {
		// The backend never learned about this chat; nothing to report.
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.backend.NotifyTurnOutcome(ctx, chatID, messageID, outcome, finalContent); err != nil {
			s.logger.Warn("turn outcome notification failed",
				"chat_id", chatID, "message_id", messageID, "error", err)
		}
	}()
}
