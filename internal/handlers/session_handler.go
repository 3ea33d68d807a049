// File: internal/handlers/session_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-medtutor/internal/domain"
	"github.com/iyunix/go-medtutor/internal/services/backend"
	"github.com/iyunix/go-medtutor/internal/services/session"
)

// SessionHandler exposes the chat session operations to the single-page
// client. It owns no state; everything is delegated to the session core.
type SessionHandler struct {
	Session *session.Session
}

func NewSessionHandler(s *session.Session) (*SessionHandler, error) {
	if s == nil {
		return nil, fmt.Errorf("session is required")
	}
	return &SessionHandler{Session: s}, nil
}

// messageView decorates a message with pre-rendered HTML for the bubble.
type messageView struct {
	domain.Message
	HTML string `json:"html,omitempty"`
}

type snapshotView struct {
	session.Snapshot
	Messages []messageView `json:"messages"`
}

func toView(snap session.Snapshot) snapshotView {
	view := snapshotView{Snapshot: snap}
	for _, m := range snap.Messages {
		mv := messageView{Message: m}
		// Only settled assistant replies are worth rendering; partials
		// re-render each tick on the client.
		if m.Role == domain.RoleAssistant && m.Status == domain.StatusSent {
			mv.HTML = renderMarkdown(m.Content)
		}
		view.Messages = append(view.Messages, mv)
	}
	return view
}

// GetState returns a consistent snapshot of the session.
func (h *SessionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toView(h.Session.Snapshot()))
}

// Send starts a new assistant turn.
func (h *SessionHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Session.SendMessage(req.Content); err != nil {
		status := http.StatusBadRequest
		if se, ok := err.(*session.SessionError); ok && se.Type == session.ErrTypeUnauthorized {
			status = http.StatusUnauthorized
		}
		writeError(w, "Could not send message", status)
		return
	}
	writeJSON(w, http.StatusAccepted, toView(h.Session.Snapshot()))
}

// Cancel interrupts the in-flight turn.
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsInterruption bool   `json:"isInterruption"`
		NewContent     string `json:"newContent"`
	}
	// An empty body is a plain cancellation.
	_ = json.NewDecoder(r.Body).Decode(&req)

	h.Session.CancelTurn(req.IsInterruption, req.NewContent)
	writeJSON(w, http.StatusOK, toView(h.Session.Snapshot()))
}

// Select switches the active chat and loads its newest history page.
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID string `json:"chatId"`
		Draft  string `json:"draft"` // unsent input of the chat being left
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Persist the outgoing chat's draft before the input is repopulated.
	h.Session.SaveDraft(h.Session.CurrentChatID(), req.Draft)

	if err := h.Session.SelectChat(r.Context(), req.ChatID); err != nil {
		writeError(w, "Could not switch chat", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, toView(h.Session.Snapshot()))
}

// New abandons in-flight work and starts a fresh chat.
func (h *SessionHandler) New(w http.ResponseWriter, r *http.Request) {
	chatID := h.Session.NewChat()
	writeJSON(w, http.StatusCreated, map[string]string{"chatId": chatID})
}

// ListChats refreshes and returns the chat directory.
func (h *SessionHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.LoadChats(r.Context()); err != nil {
		writeError(w, "Could not retrieve chats", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, h.Session.Chats())
}

// LoadOlder appends the next older history page for the active chat.
func (h *SessionHandler) LoadOlder(w http.ResponseWriter, r *http.Request) {
	chatID := h.Session.CurrentChatID()
	if chatID == "" {
		writeError(w, "No chat selected", http.StatusBadRequest)
		return
	}
	cursor := h.Session.NextCursor(chatID)
	if err := h.Session.LoadMessages(r.Context(), chatID, cursor); err != nil {
		writeError(w, "Could not load messages", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, toView(h.Session.Snapshot()))
}

// SaveDraft stores unsent input for a chat.
func (h *SessionHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID string `json:"chatId"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.Session.SaveDraft(req.ChatID, req.Text)
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a chat.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chatID := vars["id"]
	if chatID == "" {
		writeError(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}

	if err := h.Session.DeleteChat(r.Context(), chatID); err != nil {
		writeError(w, "Could not delete chat", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export streams the active chat's history as a download.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := backend.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = backend.FormatJSON
	}

	blob, err := h.Session.ExportChat(r.Context(), format)
	if err != nil {
		if se, ok := err.(*session.SessionError); ok && se.Type == session.ErrTypeValidation {
			writeError(w, "Nothing to export", http.StatusBadRequest)
			return
		}
		writeError(w, "Could not export chat", http.StatusBadGateway)
		return
	}

	contentType := "application/json"
	if format == backend.FormatCSV {
		contentType = "text/csv"
	}
	filename := fmt.Sprintf("chat-export-%s.%s", time.Now().Format("2006-01-02"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}
