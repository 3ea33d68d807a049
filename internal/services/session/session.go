// File: internal/services/session/session.go
package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iyunix/go-medtutor/internal/domain"
	"github.com/iyunix/go-medtutor/internal/services/backend"
	"github.com/iyunix/go-medtutor/internal/services/request"
	"github.com/iyunix/go-medtutor/internal/services/typewriter"
)

// Session is the authoritative owner of all per-chat state: the chat
// directory, message lists, drafts, pagination flags, and the in-flight
// assistant turn. Every mutation funnels through one lock, so interruption
// logic and send logic can never interleave into an inconsistent list.
type Session struct {
	mu sync.Mutex

	config     *Config
	backend    backend.Service
	auth       AuthProvider
	controller *request.Controller
	writer     *typewriter.Typewriter
	logger     Logger

	currentChatID string
	chats         []domain.Chat
	messages      map[string][]domain.Message
	drafts        map[string]string
	hasMore       map[string]bool
	cursors       map[string]string
	flags         Flags
	partial       string // revealed prefix of the in-progress typing animation
	lastError     string
}

func New(
	config *Config,
	backendService backend.Service,
	auth AuthProvider,
	writer *typewriter.Typewriter,
	logger Logger,
) (*Session, error) {
	if backendService == nil {
		return nil, NewValidationError("constructor", "backend service is required")
	}
	if auth == nil {
		return nil, NewValidationError("constructor", "auth provider is required")
	}
	if writer == nil {
		return nil, NewValidationError("constructor", "typewriter is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, NewValidationError("config", err.Error())
	}
	if logger == nil {
		return nil, NewValidationError("constructor", "logger is required")
	}

	return &Session{
		config:     config,
		backend:    backendService,
		auth:       auth,
		controller: request.NewController(),
		writer:     writer,
		logger:     logger,
		messages:   make(map[string][]domain.Message),
		drafts:     make(map[string]string),
		hasMore:    make(map[string]bool),
		cursors:    make(map[string]string),
	}, nil
}

// Snapshot returns a consistent copy of the state relevant to presentation.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		CurrentChatID: s.currentChatID,
		Chats:         append([]domain.Chat(nil), s.chats...),
		Draft:         s.drafts[s.currentChatID],
		HasMore:       s.hasMore[s.currentChatID],
		PartialText:   s.partial,
		Flags:         s.flags,
		LastError:     s.lastError,
	}
	if s.currentChatID != "" {
		snap.Messages = append([]domain.Message(nil), s.messages[s.currentChatID]...)
	}
	return snap
}

// CurrentChatID returns the active chat id, empty when none is selected.
func (s *Session) CurrentChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentChatID
}

// Messages returns a copy of the in-memory message list for a chat.
func (s *Session) Messages(chatID string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.messages[chatID]...)
}

// Chats returns a copy of the chat directory.
func (s *Session) Chats() []domain.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Chat(nil), s.chats...)
}

// HasMore reports whether older history remains for a chat.
func (s *Session) HasMore(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore[chatID]
}

// LastError returns the session-scoped error surface, empty when clear.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// SaveDraft overwrites the draft for chatID. No-op when chatID is empty.
func (s *Session) SaveDraft(chatID, text string) {
	if chatID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[chatID] = text
}

// Draft returns the stored draft text for chatID, or the empty string.
func (s *Session) Draft(chatID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[chatID]
}

// tempChatSeq disambiguates temp ids synthesized within the same millisecond.
var tempChatSeq atomic.Uint64

// newTempChatLocked synthesizes a local chat pending backend registration.
// Caller holds s.mu.
func (s *Session) newTempChatLocked() string {
	id := fmt.Sprintf("%s%d-%d", domain.TempChatIDPrefix, time.Now().UnixMilli(), tempChatSeq.Add(1))
	s.currentChatID = id
	s.messages[id] = []domain.Message{}
	if _, ok := s.drafts[id]; !ok {
		s.drafts[id] = ""
	}
	s.hasMore[id] = false
	s.chats = append([]domain.Chat{{
		ID:            id,
		Title:         "New Chat",
		CreatedAt:     time.Now(),
		LastMessageAt: time.Now(),
	}}, s.chats...)
	return id
}

// findMessageLocked returns the index of a message in chatID's list, or -1.
func (s *Session) findMessageLocked(chatID, messageID string) int {
	for i := range s.messages[chatID] {
		if s.messages[chatID][i].ID == messageID {
			return i
		}
	}
	return -1
}

// inFlightLocked returns the index of the chat's unresolved assistant
// message (thinking or typing), or -1. The invariant holds that there is at
// most one.
func (s *Session) inFlightLocked(chatID string) int {
	for i := range s.messages[chatID] {
		if s.messages[chatID][i].Status.InFlight() {
			return i
		}
	}
	return -1
}

// touchDirectoryLocked refreshes a chat's directory summary after a new
// message. Caller holds s.mu.
func (s *Session) touchDirectoryLocked(chatID, lastMessage string, at time.Time) {
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			s.chats[i].LastMessage = lastMessage
			s.chats[i].LastMessageAt = at
			s.chats[i].MessageCount++
			return
		}
	}
}

// settleInFlightLocked resolves the active chat's unresolved turn when it is
// superseded by navigation (chat switch, new chat, delete of active chat).
// A typing reveal snaps to the full reply and lands as sent; a thinking
// placeholder terminates as interrupted. Caller holds s.mu.
func (s *Session) settleInFlightLocked() {
	s.controller.CancelInFlight()

	if s.currentChatID == "" {
		return
	}
	idx := s.inFlightLocked(s.currentChatID)
	if idx < 0 {
		s.flags.Sending = false
		s.partial = ""
		return
	}

	msg := &s.messages[s.currentChatID][idx]
	switch msg.Status {
	case domain.StatusTyping:
		// Stop animating: snap to the final string, the turn still counts.
		msg.Content = s.writer.Finish()
		msg.Status = domain.StatusSent
	case domain.StatusThinking:
		msg.Content = ""
		msg.Status = domain.StatusInterrupted
		msg.WasInterrupted = true
	}
	s.partial = ""
	s.flags.Sending = false
}

// setErrorLocked records a surfaced failure. Caller holds s.mu.
func (s *Session) setErrorLocked(msg string) {
	s.lastError = msg
}
