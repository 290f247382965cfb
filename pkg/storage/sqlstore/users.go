package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/snooze/pkg/models"
	"github.com/platinummonkey/snooze/pkg/storage"
)

const userColumns = `username, password, first_name, last_name, is_staff, date_joined`

// CreateUser inserts u. DateJoined is set when zero.
func (s *Store) CreateUser(ctx context.Context, u *models.User) (err error) {
	defer func(start time.Time) { s.observe("create_user", start, err) }(time.Now())

	if u.DateJoined.IsZero() {
		u.DateJoined = s.timestamp()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.Username, u.PasswordHash, u.FirstName, u.LastName, u.IsStaff, u.DateJoined,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user %q: %w", u.Username, storage.ErrUsernameTaken)
		}
		return fmt.Errorf("create user %q: %w", u.Username, err)
	}
	return nil
}

// GetUser loads a user by username
func (s *Store) GetUser(ctx context.Context, username string) (u *models.User, err error) {
	defer func(start time.Time) { s.observe("get_user", start, err) }(time.Now())

	u = &models.User{}
	err = s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username,
	).Scan(&u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.IsStaff, &u.DateJoined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	u.DateJoined = u.DateJoined.UTC()
	return u, nil
}

// UpdateProfile writes only the columns set in upd. An empty update still
// reports ErrNotFound for an unknown user.
func (s *Store) UpdateProfile(ctx context.Context, username string, upd models.ProfileUpdate) (err error) {
	defer func(start time.Time) { s.observe("update_profile", start, err) }(time.Now())

	if upd.IsEmpty() {
		_, err = s.GetUser(ctx, username)
		return err
	}

	var (
		sets []string
		args []any
	)
	for _, col := range []struct {
		name  string
		value *string
	}{
		{"password", upd.PasswordHash},
		{"first_name", upd.FirstName},
		{"last_name", upd.LastName},
	} {
		if col.value == nil {
			continue
		}
		args = append(args, *col.value)
		sets = append(sets, fmt.Sprintf("%s = $%d", col.name, len(args)))
	}
	args = append(args, username)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s WHERE username = $%d`, strings.Join(sets, ", "), len(args)),
		args...,
	)
	return s.checkUserUpdate(username, res, err)
}

// SetStaff grants or revokes the staff flag without touching the profile
func (s *Store) SetStaff(ctx context.Context, username string, staff bool) (err error) {
	defer func(start time.Time) { s.observe("set_staff", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_staff = $1 WHERE username = $2`, staff, username,
	)
	return s.checkUserUpdate(username, res, err)
}

func (s *Store) checkUserUpdate(username string, res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("update user %q: %w", username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user %q: %w", username, err)
	}
	if n == 0 {
		return fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	return nil
}

// CountUsers returns the number of registered users
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
