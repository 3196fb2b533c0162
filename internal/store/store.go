package store

import (
	"context"
	"errors"

	"github.com/AnshRaj112/mindcare-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Store persists users and their append-only history. Add* methods assign
// ID and Timestamp on the passed record. List* methods return at most limit
// records, newest first, and a non-nil empty slice when there are none.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)

	AddConversation(ctx context.Context, c *models.Conversation) error
	ListConversations(ctx context.Context, userID int64, limit int) ([]models.Conversation, error)

	AddMoodEntry(ctx context.Context, m *models.MoodEntry) error
	ListMoodEntries(ctx context.Context, userID int64, limit int) ([]models.MoodEntry, error)
}
