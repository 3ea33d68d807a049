// File: internal/repository/chat/chat_repository_test.go
package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/iyunix/go-medtutor/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Chat{}))
	return db
}

func seedChat(t *testing.T, repo ChatRepository, userID string, i int, lastAt time.Time) *domain.Chat {
	t.Helper()
	c, err := repo.Create(context.Background(), &domain.Chat{
		ID:            fmt.Sprintf("chat-%d", i),
		UserID:        userID,
		Title:         fmt.Sprintf("Question %d", i),
		CreatedAt:     lastAt,
		LastMessageAt: lastAt,
	})
	require.NoError(t, err)
	return c
}

func TestCreate_Validation(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))

	_, err := repo.Create(context.Background(), nil)
	assert.Error(t, err)

	_, err = repo.Create(context.Background(), &domain.Chat{ID: "c-1", Title: "no owner"})
	assert.Error(t, err)

	_, err = repo.Create(context.Background(), &domain.Chat{
		ID: "c-1", UserID: "u-1", Title: "<script>alert(1)</script>",
	})
	assert.Error(t, err)
}

func TestFindByID(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))
	seedChat(t, repo, "u-1", 1, time.Now())

	found, err := repo.FindByID(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "Question 1", found.Title)

	_, err = repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestFindByUserID_NewestActivityFirst(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))
	now := time.Now()
	seedChat(t, repo, "u-1", 1, now.Add(-2*time.Hour))
	seedChat(t, repo, "u-1", 2, now)
	seedChat(t, repo, "u-1", 3, now.Add(-time.Hour))
	seedChat(t, repo, "u-2", 4, now)

	chats, err := repo.FindByUserID(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, chats, 3)
	assert.Equal(t, "chat-2", chats[0].ID)
	assert.Equal(t, "chat-3", chats[1].ID)
	assert.Equal(t, "chat-1", chats[2].ID)
}

func TestDelete_OwnershipEnforced(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))
	seedChat(t, repo, "u-1", 1, time.Now())

	err := repo.Delete(context.Background(), "chat-1", "intruder")
	assert.ErrorIs(t, err, ErrUnauthorizedAccess)

	require.NoError(t, repo.Delete(context.Background(), "chat-1", "u-1"))
	_, err = repo.FindByID(context.Background(), "chat-1")
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestTouchLastMessage(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))
	seedChat(t, repo, "u-1", 1, time.Now().Add(-time.Hour))

	at := time.Now()
	require.NoError(t, repo.TouchLastMessage(context.Background(), "chat-1", "latest reply", at))
	require.NoError(t, repo.TouchLastMessage(context.Background(), "chat-1", "even later", at.Add(time.Second)))

	found, err := repo.FindByID(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "even later", found.LastMessage)
	assert.Equal(t, 2, found.MessageCount)

	err = repo.TouchLastMessage(context.Background(), "missing", "x", at)
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestCountByUserID(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))
	seedChat(t, repo, "u-1", 1, time.Now())
	seedChat(t, repo, "u-1", 2, time.Now())

	count, err := repo.CountByUserID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = repo.CountByUserID(context.Background(), "u-2")
	require.NoError(t, err)
	assert.Zero(t, count)
}
