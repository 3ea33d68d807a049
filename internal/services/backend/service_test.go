// File: internal/services/backend/service_test.go
package backend

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-medtutor/internal/domain"
	chatrepo "github.com/iyunix/go-medtutor/internal/repository/chat"
)

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}

type memChatRepo struct {
	chats map[string]*domain.Chat
}

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{chats: make(map[string]*domain.Chat)}
}

func (r *memChatRepo) Create(ctx context.Context, c *domain.Chat) (*domain.Chat, error) {
	stored := *c
	r.chats[c.ID] = &stored
	return &stored, nil
}

func (r *memChatRepo) FindByID(ctx context.Context, id string) (*domain.Chat, error) {
	c, ok := r.chats[id]
	if !ok {
		return nil, chatrepo.ErrChatNotFound
	}
	return c, nil
}

func (r *memChatRepo) FindByUserID(ctx context.Context, userID string) ([]domain.Chat, error) {
	var out []domain.Chat
	for _, c := range r.chats {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *memChatRepo) Delete(ctx context.Context, chatID, userID string) error {
	c, ok := r.chats[chatID]
	if !ok {
		return chatrepo.ErrChatNotFound
	}
	if c.UserID != userID {
		return chatrepo.ErrUnauthorizedAccess
	}
	delete(r.chats, chatID)
	return nil
}

func (r *memChatRepo) TouchLastMessage(ctx context.Context, chatID, lastMessage string, at time.Time) error {
	if c, ok := r.chats[chatID]; ok {
		c.LastMessage = lastMessage
		c.LastMessageAt = at
		c.MessageCount++
	}
	return nil
}

func (r *memChatRepo) CountByUserID(ctx context.Context, userID string) (int64, error) {
	chats, _ := r.FindByUserID(ctx, userID)
	return int64(len(chats)), nil
}

type memMessageRepo struct {
	byChat map[string][]domain.Message
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{byChat: make(map[string][]domain.Message)}
}

func (r *memMessageRepo) Create(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	r.byChat[m.ChatID] = append(r.byChat[m.ChatID], *m)
	return m, nil
}

func (r *memMessageRepo) FindByChatID(ctx context.Context, chatID string) ([]domain.Message, error) {
	return append([]domain.Message(nil), r.byChat[chatID]...), nil
}

func (r *memMessageRepo) FindWindow(ctx context.Context, chatID string, offset, limit int) ([]domain.Message, int64, error) {
	all := r.byChat[chatID]
	end := len(all) - offset
	if end < 0 {
		end = 0
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	return append([]domain.Message(nil), all[start:end]...), int64(len(all)), nil
}

func (r *memMessageRepo) Update(ctx context.Context, m *domain.Message) error {
	msgs := r.byChat[m.ChatID]
	for i := range msgs {
		if msgs[i].ID == m.ID {
			msgs[i] = *m
			return nil
		}
	}
	return fmt.Errorf("message not found")
}

func (r *memMessageRepo) DeleteByChatID(ctx context.Context, chatID string) error {
	delete(r.byChat, chatID)
	return nil
}

func (r *memMessageRepo) CountByChatID(ctx context.Context, chatID string) (int64, error) {
	return int64(len(r.byChat[chatID])), nil
}

func newTestService(t *testing.T) (*SimService, *memChatRepo, *memMessageRepo) {
	t.Helper()
	chats := newMemChatRepo()
	messages := newMemMessageRepo()
	svc, err := NewSimService(
		&Config{DefaultPageSize: 5, MaxPageSize: 10, MaxChatsPerUser: 50, ResponderDelay: 0},
		chats, messages,
		NewCannedResponder(0, noopLogger{}),
		noopLogger{},
	)
	require.NoError(t, err)
	return svc, chats, messages
}

func seedChat(t *testing.T, svc *SimService, userID string) *domain.Chat {
	t.Helper()
	c, err := svc.CreateChat(context.Background(), userID, "What are symptoms of flu?")
	require.NoError(t, err)
	return c
}

func TestNewSimService_Validation(t *testing.T) {
	_, err := NewSimService(nil, nil, newMemMessageRepo(), NewCannedResponder(0, noopLogger{}), noopLogger{})
	assert.Error(t, err)

	_, err = NewSimService(nil, newMemChatRepo(), newMemMessageRepo(), nil, noopLogger{})
	assert.Error(t, err)

	_, err = NewSimService(&Config{DefaultPageSize: 0}, newMemChatRepo(), newMemMessageRepo(),
		NewCannedResponder(0, noopLogger{}), noopLogger{})
	assert.Error(t, err)
}

func TestCreateChat_DerivesTitle(t *testing.T) {
	svc, _, _ := newTestService(t)

	c, err := svc.CreateChat(context.Background(), "user-1", "What are symptoms of flu?")
	require.NoError(t, err)
	assert.Equal(t, "What are symptoms of flu?", c.Title)
	assert.Equal(t, "user-1", c.UserID)
	assert.NotEmpty(t, c.ID)

	long := strings.Repeat("x", 80)
	c2, err := svc.CreateChat(context.Background(), "user-1", long)
	require.NoError(t, err)
	assert.Equal(t, long[:50]+"...", c2.Title)

	_, err = svc.CreateChat(context.Background(), "", "hello")
	assert.Error(t, err)
	_, err = svc.CreateChat(context.Background(), "user-1", "   ")
	assert.Error(t, err)
}

func TestCreateChat_EnforcesChatLimit(t *testing.T) {
	chats := newMemChatRepo()
	messages := newMemMessageRepo()
	svc, err := NewSimService(
		&Config{DefaultPageSize: 5, MaxPageSize: 10, MaxChatsPerUser: 2, ResponderDelay: 0},
		chats, messages,
		NewCannedResponder(0, noopLogger{}),
		noopLogger{},
	)
	require.NoError(t, err)

	seedChat(t, svc, "user-1")
	seedChat(t, svc, "user-1")

	_, err = svc.CreateChat(context.Background(), "user-1", "one too many")
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrTypeValidation, be.Type)

	// Other users are not affected by this user's count.
	_, err = svc.CreateChat(context.Background(), "user-2", "fresh start")
	assert.NoError(t, err)
}

func TestSendTurn_PersistsBothSides(t *testing.T) {
	svc, chats, messages := newTestService(t)
	c := seedChat(t, svc, "user-1")

	reply, err := svc.SendTurn(context.Background(), c.ID, "Tell me about influenza")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAssistant, reply.Role)
	assert.Equal(t, domain.StatusSent, reply.Status)
	assert.Contains(t, reply.Content, "influenza")

	stored, err := messages.FindByChatID(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, domain.RoleUser, stored[0].Role)
	assert.Equal(t, "Tell me about influenza", stored[0].Content)
	assert.Equal(t, reply.Content, stored[1].Content)

	assert.Equal(t, reply.Content, chats.chats[c.ID].LastMessage)
	assert.Equal(t, 2, chats.chats[c.ID].MessageCount)
}

func TestSendTurn_UnknownChat(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.SendTurn(context.Background(), "missing", "hello")
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrTypeNotFound, be.Type)
}

func TestSendTurn_CancelledContextIsAbort(t *testing.T) {
	chats := newMemChatRepo()
	messages := newMemMessageRepo()
	svc, err := NewSimService(nil, chats, messages,
		NewCannedResponder(100*time.Millisecond, noopLogger{}), noopLogger{})
	require.NoError(t, err)
	c := seedChat(t, svc, "user-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.SendTurn(ctx, c.ID, "hello")
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.True(t, be.Aborted())
}

func TestListMessages_CursorPagination(t *testing.T) {
	svc, _, messages := newTestService(t)
	c := seedChat(t, svc, "user-1")

	for i := 0; i < 12; i++ {
		_, err := messages.Create(context.Background(), &domain.Message{
			ID:      fmt.Sprintf("m-%d", i),
			ChatID:  c.ID,
			Role:    domain.RoleUser,
			Content: fmt.Sprintf("message %d", i),
			Status:  domain.StatusSent,
		})
		require.NoError(t, err)
	}

	page1, err := svc.ListMessages(context.Background(), c.ID, "", 5)
	require.NoError(t, err)
	require.Len(t, page1.Messages, 5)
	assert.Equal(t, "message 7", page1.Messages[0].Content)
	assert.Equal(t, "message 11", page1.Messages[4].Content)
	assert.True(t, page1.HasMore)
	assert.Equal(t, "5", page1.NextCursor)

	page2, err := svc.ListMessages(context.Background(), c.ID, page1.NextCursor, 5)
	require.NoError(t, err)
	require.Len(t, page2.Messages, 5)
	assert.Equal(t, "message 2", page2.Messages[0].Content)
	assert.True(t, page2.HasMore)

	page3, err := svc.ListMessages(context.Background(), c.ID, page2.NextCursor, 5)
	require.NoError(t, err)
	require.Len(t, page3.Messages, 2)
	assert.Equal(t, "message 0", page3.Messages[0].Content)
	assert.False(t, page3.HasMore)
	assert.Empty(t, page3.NextCursor)
}

func TestListMessages_MalformedCursor(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, cursor := range []string{"abc", "-1", "1.5"} {
		_, err := svc.ListMessages(context.Background(), "chat-1", cursor, 5)
		var be *BackendError
		require.ErrorAs(t, err, &be, "cursor %q", cursor)
		assert.Equal(t, ErrTypeValidation, be.Type)
	}
}

func TestListMessages_LimitClamped(t *testing.T) {
	svc, _, messages := newTestService(t)
	c := seedChat(t, svc, "user-1")
	for i := 0; i < 20; i++ {
		_, _ = messages.Create(context.Background(), &domain.Message{
			ID: fmt.Sprintf("m-%d", i), ChatID: c.ID, Role: domain.RoleUser, Status: domain.StatusSent,
		})
	}

	page, err := svc.ListMessages(context.Background(), c.ID, "", 50)
	require.NoError(t, err)
	assert.Len(t, page.Messages, 10, "limit is clamped to the configured maximum")

	page, err = svc.ListMessages(context.Background(), c.ID, "", 0)
	require.NoError(t, err)
	assert.Len(t, page.Messages, 5, "non-positive limit falls back to the default")
}

func TestNotifyTurnOutcome_RewritesPersistedReply(t *testing.T) {
	svc, _, messages := newTestService(t)
	c := seedChat(t, svc, "user-1")

	reply, err := svc.SendTurn(context.Background(), c.ID, "Tell me about influenza")
	require.NoError(t, err)

	partial := reply.Content[:20] + "—"
	err = svc.NotifyTurnOutcome(context.Background(), c.ID, "local-placeholder", OutcomeInterrupted, partial)
	require.NoError(t, err)

	// History holds exactly one assistant row per turn, carrying the
	// frozen partial the user actually saw.
	stored, err := messages.FindByChatID(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, domain.RoleUser, stored[0].Role)
	assert.Equal(t, domain.RoleAssistant, stored[1].Role)
	assert.Equal(t, partial, stored[1].Content)
	assert.Equal(t, domain.StatusInterrupted, stored[1].Status)
	assert.True(t, stored[1].WasInterrupted)
}

func TestNotifyTurnOutcome_PersistsInterruptedPartial(t *testing.T) {
	svc, _, messages := newTestService(t)
	c := seedChat(t, svc, "user-1")

	err := svc.NotifyTurnOutcome(context.Background(), c.ID, "msg-1", OutcomeInterrupted, "partial answer—")
	require.NoError(t, err)

	stored, _ := messages.FindByChatID(context.Background(), c.ID)
	require.Len(t, stored, 1)
	assert.Equal(t, "partial answer—", stored[0].Content)
	assert.Equal(t, domain.StatusInterrupted, stored[0].Status)
	assert.True(t, stored[0].WasInterrupted)
}

func TestNotifyTurnOutcome_CancellationStoresNothing(t *testing.T) {
	svc, _, messages := newTestService(t)
	c := seedChat(t, svc, "user-1")

	err := svc.NotifyTurnOutcome(context.Background(), c.ID, "msg-1", OutcomeCancelled, "")
	require.NoError(t, err)

	stored, _ := messages.FindByChatID(context.Background(), c.ID)
	assert.Empty(t, stored)
}

func TestDeleteChat_RemovesChatAndMessages(t *testing.T) {
	svc, chats, messages := newTestService(t)
	c := seedChat(t, svc, "user-1")
	_, _ = messages.Create(context.Background(), &domain.Message{ID: "m-1", ChatID: c.ID})

	require.NoError(t, svc.DeleteChat(context.Background(), c.ID, "user-1"))
	assert.NotContains(t, chats.chats, c.ID)
	count, _ := messages.CountByChatID(context.Background(), c.ID)
	assert.Zero(t, count)
}

func TestDeleteChat_WrongOwner(t *testing.T) {
	svc, _, _ := newTestService(t)
	c := seedChat(t, svc, "user-1")

	err := svc.DeleteChat(context.Background(), c.ID, "someone-else")
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrTypeNotFound, be.Type, "ownership failures read as not found")
}

func TestExportChat_JSON(t *testing.T) {
	svc, _, messages := newTestService(t)
	c := seedChat(t, svc, "user-1")
	_, _ = messages.Create(context.Background(), &domain.Message{
		ID: "m-1", ChatID: c.ID, Role: domain.RoleUser, Content: "What is CPR?", Status: domain.StatusSent,
	})

	blob, err := svc.ExportChat(context.Background(), c.ID, FormatJSON)
	require.NoError(t, err)

	var out struct {
		ChatID     string           `json:"chatId"`
		Disclaimer string           `json:"disclaimer"`
		Messages   []domain.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(blob, &out))
	assert.Equal(t, c.ID, out.ChatID)
	assert.Equal(t, Disclaimer, out.Disclaimer)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, "What is CPR?", out.Messages[0].Content)
}

func TestExportChat_CSV(t *testing.T) {
	svc, _, messages := newTestService(t)
	c := seedChat(t, svc, "user-1")
	_, _ = messages.Create(context.Background(), &domain.Message{
		ID: "m-1", ChatID: c.ID, Role: domain.RoleUser,
		Content: `He said "hello", then left`, Status: domain.StatusSent,
	})

	blob, err := svc.ExportChat(context.Background(), c.ID, FormatCSV)
	require.NoError(t, err)

	reader := csv.NewReader(strings.NewReader(string(blob)))
	reader.FieldsPerRecord = -1 // disclaimer row has a single column
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Disclaimer, records[0][0])
	assert.Equal(t, []string{"Timestamp", "Role", "Message"}, records[1])
	assert.Equal(t, domain.RoleUser, records[2][1])
	assert.Equal(t, `He said "hello", then left`, records[2][2], "embedded quotes survive the round trip")
}

func TestExportChat_UnsupportedFormat(t *testing.T) {
	svc, _, _ := newTestService(t)
	c := seedChat(t, svc, "user-1")
	_, err := svc.SendTurn(context.Background(), c.ID, "What are symptoms of flu?")
	require.NoError(t, err)

	_, err = svc.ExportChat(context.Background(), c.ID, ExportFormat("xml"))
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrTypeValidation, be.Type)
}

func TestExportChat_EmptyChatIsRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	c := seedChat(t, svc, "user-1")

	_, err := svc.ExportChat(context.Background(), c.ID, FormatJSON)
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrTypeValidation, be.Type)
	assert.Contains(t, be.Message, "no messages")
}
