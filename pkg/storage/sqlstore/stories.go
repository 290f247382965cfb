package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/snooze/pkg/models"
	"github.com/platinummonkey/snooze/pkg/storage"
)

const storyColumns = `id, username, author, title, url, created, modified`

// CreateStory inserts st. The id and timestamps are assigned here.
func (s *Store) CreateStory(ctx context.Context, st *models.Story) (err error) {
	defer func(start time.Time) { s.observe("create_story", start, err) }(time.Now())

	now := s.timestamp()
	st.ID = uuid.NewString()
	st.Created = now
	st.Modified = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stories (`+storyColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		st.ID, st.Username, st.Author, st.Title, st.URL, st.Created, st.Modified,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("create story for %q: %w", st.Username, storage.ErrNotFound)
		}
		return fmt.Errorf("create story: %w", err)
	}
	return nil
}

// GetStory loads a story by id
func (s *Store) GetStory(ctx context.Context, id string) (st *models.Story, err error) {
	defer func(start time.Time) { s.observe("get_story", start, err) }(time.Now())

	st, err = scanStory(s.db.QueryRowContext(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("story %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get story %q: %w", id, err)
	}
	return st, nil
}

// ListStories returns stories in creation order
func (s *Store) ListStories(ctx context.Context, limit, offset int) (stories []*models.Story, err error) {
	defer func(start time.Time) { s.observe("list_stories", start, err) }(time.Now())

	query := `SELECT ` + storyColumns + ` FROM stories ORDER BY seq`
	var args []interface{}
	switch {
	case limit > 0:
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	case offset > 0:
		// SQLite only accepts OFFSET after a LIMIT
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, int64(1<<62), offset)
	}

	return s.queryStories(ctx, s.db, query, args...)
}

// ListStoriesByUser returns the stories owned by username in creation order
func (s *Store) ListStoriesByUser(ctx context.Context, username string) (stories []*models.Story, err error) {
	defer func(start time.Time) { s.observe("list_user_stories", start, err) }(time.Now())

	return s.queryStories(ctx, s.db,
		`SELECT `+storyColumns+` FROM stories WHERE username = $1 ORDER BY seq`, username)
}

// DeleteStory removes the story and its favorites in one transaction
func (s *Store) DeleteStory(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { s.observe("delete_story", start, err) }(time.Now())

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE story_id = $1`, id); err != nil {
			return fmt.Errorf("delete favorites of story %q: %w", id, err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM stories WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete story %q: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete story %q: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("story %q: %w", id, storage.ErrNotFound)
		}
		return nil
	})
}

// CountStories returns the number of stories
func (s *Store) CountStories(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stories: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStory(row rowScanner) (*models.Story, error) {
	st := &models.Story{}
	if err := row.Scan(&st.ID, &st.Username, &st.Author, &st.Title, &st.URL, &st.Created, &st.Modified); err != nil {
		return nil, err
	}
	st.Created = st.Created.UTC()
	st.Modified = st.Modified.UTC()
	return st, nil
}

func (s *Store) queryStories(ctx context.Context, q dbtx, query string, args ...interface{}) ([]*models.Story, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	defer rows.Close()

	stories := make([]*models.Story, 0)
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stories: %w", err)
	}
	return stories, nil
}
