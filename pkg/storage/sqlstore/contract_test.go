package sqlstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/snooze/pkg/models"
	"github.com/platinummonkey/snooze/pkg/storage"
)

// runStoreContract exercises the storage.Store behaviour every backend must
// share
func runStoreContract(t *testing.T, newStore func(t *testing.T) *Store) {
	t.Run("users", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		u := &models.User{Username: "test", PasswordHash: "hash", FirstName: "testFirst", LastName: "testLast"}
		require.NoError(t, s.CreateUser(ctx, u))
		assert.False(t, u.DateJoined.IsZero())

		got, err := s.GetUser(ctx, "test")
		require.NoError(t, err)
		assert.Equal(t, "hash", got.PasswordHash)
		assert.Equal(t, "testFirst", got.FirstName)
		assert.False(t, got.IsStaff)
		assert.WithinDuration(t, u.DateJoined, got.DateJoined, time.Millisecond)

		dupe := &models.User{Username: "test", PasswordHash: "other"}
		assert.ErrorIs(t, s.CreateUser(ctx, dupe), storage.ErrUsernameTaken)

		_, err = s.GetUser(ctx, "nonexistent")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = s.GetUser(ctx, "TEST")
		assert.ErrorIs(t, err, storage.ErrNotFound, "usernames are case sensitive")

		require.NoError(t, s.UpdateProfile(ctx, "test", models.ProfileUpdate{
			FirstName:    strPtr("newFirst"),
			PasswordHash: strPtr(""),
		}))
		require.NoError(t, s.SetStaff(ctx, "test", true))

		again, err := s.GetUser(ctx, "test")
		require.NoError(t, err)
		assert.Equal(t, "newFirst", again.FirstName)
		assert.Equal(t, "testLast", again.LastName)
		assert.Equal(t, "", again.PasswordHash)
		assert.True(t, again.IsStaff)

		require.NoError(t, s.UpdateProfile(ctx, "test", models.ProfileUpdate{LastName: strPtr("other")}))
		again, err = s.GetUser(ctx, "test")
		require.NoError(t, err)
		assert.True(t, again.IsStaff, "profile updates leave the staff flag alone")
		assert.Equal(t, "newFirst", again.FirstName)

		require.NoError(t, s.SetStaff(ctx, "test", false))
		again, err = s.GetUser(ctx, "test")
		require.NoError(t, err)
		assert.False(t, again.IsStaff)
		assert.Equal(t, "other", again.LastName)

		assert.ErrorIs(t, s.UpdateProfile(ctx, "ghost", models.ProfileUpdate{FirstName: strPtr("x")}), storage.ErrNotFound)
		assert.ErrorIs(t, s.UpdateProfile(ctx, "ghost", models.ProfileUpdate{}), storage.ErrNotFound)
		assert.NoError(t, s.UpdateProfile(ctx, "test", models.ProfileUpdate{}))
		assert.ErrorIs(t, s.SetStaff(ctx, "ghost", true), storage.ErrNotFound)

		n, err := s.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("concurrent create of one username", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const workers = 16
		var (
			wg                sync.WaitGroup
			created, conflict atomic.Int32
		)
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				err := s.CreateUser(ctx, &models.User{Username: "race", PasswordHash: "h"})
				switch {
				case err == nil:
					created.Add(1)
				case errors.Is(err, storage.ErrUsernameTaken):
					conflict.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), created.Load())
		assert.Equal(t, int32(workers-1), conflict.Load())
	})

	t.Run("stories", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateUser(ctx, &models.User{Username: "user", PasswordHash: "h"}))
		require.NoError(t, s.CreateUser(ctx, &models.User{Username: "user2", PasswordHash: "h"}))

		var ids []string
		for i, owner := range []string{"user", "user2", "user"} {
			st := &models.Story{Username: owner, Author: "author", Title: "title " + string(rune('a'+i)), URL: "http://example.com"}
			require.NoError(t, s.CreateStory(ctx, st))
			assert.Len(t, st.ID, 36)
			assert.Equal(t, st.Created, st.Modified)
			ids = append(ids, st.ID)
		}

		got, err := s.GetStory(ctx, ids[1])
		require.NoError(t, err)
		assert.Equal(t, "user2", got.Username)
		assert.Equal(t, "title b", got.Title)

		_, err = s.GetStory(ctx, "not-a-story")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		all, err := s.ListStories(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, ids, []string{all[0].ID, all[1].ID, all[2].ID})

		page, err := s.ListStories(ctx, 2, 1)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, ids[1], page[0].ID)

		tail, err := s.ListStories(ctx, 0, 2)
		require.NoError(t, err)
		require.Len(t, tail, 1)
		assert.Equal(t, ids[2], tail[0].ID)

		none, err := s.ListStories(ctx, 10, 10)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)

		mine, err := s.ListStoriesByUser(ctx, "user")
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, ids[0], mine[0].ID)
		assert.Equal(t, ids[2], mine[1].ID)

		orphan := &models.Story{Username: "ghost", Author: "a", Title: "t", URL: "u"}
		assert.ErrorIs(t, s.CreateStory(ctx, orphan), storage.ErrNotFound)

		require.NoError(t, s.DeleteStory(ctx, ids[0]))
		_, err = s.GetStory(ctx, ids[0])
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, s.DeleteStory(ctx, ids[0]), storage.ErrNotFound)

		n, err := s.CountStories(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("favorites", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateUser(ctx, &models.User{Username: "user", PasswordHash: "h"}))

		var stories []*models.Story
		for i := 0; i < 3; i++ {
			st := &models.Story{Username: "user", Author: "a", Title: "t", URL: "u"}
			require.NoError(t, s.CreateStory(ctx, st))
			stories = append(stories, st)
		}

		empty, err := s.ListFavorites(ctx, "user")
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		require.NoError(t, s.AddFavorite(ctx, "user", stories[2].ID))
		require.NoError(t, s.AddFavorite(ctx, "user", stories[0].ID))
		require.NoError(t, s.AddFavorite(ctx, "user", stories[2].ID), "adding twice is a no-op")

		favs, err := s.ListFavorites(ctx, "user")
		require.NoError(t, err)
		require.Len(t, favs, 2)
		assert.Equal(t, stories[2].ID, favs[0].ID, "favorites keep insertion order")
		assert.Equal(t, stories[0].ID, favs[1].ID)

		assert.ErrorIs(t, s.AddFavorite(ctx, "user", "missing-story"), storage.ErrNotFound)

		require.NoError(t, s.RemoveFavorite(ctx, "user", stories[0].ID))
		require.NoError(t, s.RemoveFavorite(ctx, "user", stories[0].ID))

		require.NoError(t, s.DeleteStory(ctx, stories[2].ID))
		favs, err = s.ListFavorites(ctx, "user")
		require.NoError(t, err)
		assert.Empty(t, favs, "deleting a story drops its favorites")
	})

	t.Run("schema version", func(t *testing.T) {
		s := newStore(t)
		version, err := s.SchemaVersion(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), version)

		require.NoError(t, s.Migrate(context.Background()), "migrating twice is a no-op")
	})
}

func strPtr(s string) *string { return &s }
