package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/snooze/pkg/models"
	"github.com/platinummonkey/snooze/pkg/storage"
)

// AddFavorite records that username favorited storyID. Adding an existing
// favorite is a no-op.
func (s *Store) AddFavorite(ctx context.Context, username, storyID string) (err error) {
	defer func(start time.Time) { s.observe("add_favorite", start, err) }(time.Now())

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO favorites (username, story_id) VALUES ($1, $2)
		 ON CONFLICT (username, story_id) DO NOTHING`,
		username, storyID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("favorite %q for %q: %w", storyID, username, storage.ErrNotFound)
		}
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes the favorite if present
func (s *Store) RemoveFavorite(ctx context.Context, username, storyID string) (err error) {
	defer func(start time.Time) { s.observe("remove_favorite", start, err) }(time.Now())

	if _, err = s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE username = $1 AND story_id = $2`, username, storyID,
	); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// ListFavorites returns the stories username favorited, oldest first
func (s *Store) ListFavorites(ctx context.Context, username string) (stories []*models.Story, err error) {
	defer func(start time.Time) { s.observe("list_favorites", start, err) }(time.Now())

	return s.queryStories(ctx, s.db,
		`SELECT s.id, s.username, s.author, s.title, s.url, s.created, s.modified
		 FROM favorites f JOIN stories s ON s.id = f.story_id
		 WHERE f.username = $1
		 ORDER BY f.seq`, username)
}
