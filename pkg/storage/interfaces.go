package storage

import (
	"context"
	"errors"

	"github.com/platinummonkey/snooze/pkg/models"
)

// Sentinel errors returned by every Store implementation. Callers match
// them with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already exists")
)

// UserReader provides read operations for users
type UserReader interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// UserWriter provides write operations for users
type UserWriter interface {
	// CreateUser inserts u and returns ErrUsernameTaken on a duplicate
	CreateUser(ctx context.Context, u *models.User) error
	// UpdateProfile writes only the columns set in upd and returns
	// ErrNotFound for an unknown user
	UpdateProfile(ctx context.Context, username string, upd models.ProfileUpdate) error
	// SetStaff grants or revokes the staff flag
	SetStaff(ctx context.Context, username string, staff bool) error
}

// StoryReader provides read operations for stories
type StoryReader interface {
	GetStory(ctx context.Context, id string) (*models.Story, error)
	// ListStories returns stories in creation order. A limit of zero
	// returns everything after offset.
	ListStories(ctx context.Context, limit, offset int) ([]*models.Story, error)
	ListStoriesByUser(ctx context.Context, username string) ([]*models.Story, error)
	CountStories(ctx context.Context) (int64, error)
}

// StoryWriter provides write operations for stories
type StoryWriter interface {
	CreateStory(ctx context.Context, s *models.Story) error
	// DeleteStory removes the story and every favorite pointing at it
	DeleteStory(ctx context.Context, id string) error
}

// FavoriteStore manages the user to story favorites relation
type FavoriteStore interface {
	// AddFavorite is idempotent
	AddFavorite(ctx context.Context, username, storyID string) error
	// RemoveFavorite is idempotent
	RemoveFavorite(ctx context.Context, username, storyID string) error
	// ListFavorites returns favorites in the order they were added
	ListFavorites(ctx context.Context, username string) ([]*models.Story, error)
}

// Store is the unified persistence interface used by the API layer
type Store interface {
	UserReader
	UserWriter
	StoryReader
	StoryWriter
	FavoriteStore

	// Ping verifies the backend is reachable
	Ping(ctx context.Context) error
	Close() error
}
