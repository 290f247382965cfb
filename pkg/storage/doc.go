// Package storage defines the persistence abstraction for users, stories and
// favorites.
//
// # Architecture
//
// The storage layer uses interface segregation to compose focused capabilities:
//
//   - UserReader / UserWriter: accounts and profile fields
//   - StoryReader / StoryWriter: story links
//   - FavoriteStore: the many-to-many favorites relation
//
// These compose into Store, which the API layer depends on.
//
// # Implementations
//
//   - pkg/storage/sqlstore: database/sql backend for SQLite and PostgreSQL
//     with embedded goose migrations
//   - pkg/storage/cache: Redis read-through cache decorating any Store
//
// # Errors
//
// Implementations return ErrNotFound for missing rows and ErrUsernameTaken
// for duplicate usernames, wrapped with context:
//
//	user, err := store.GetUser(ctx, "test")
//	if errors.Is(err, storage.ErrNotFound) {
//		httputil.WriteNotFound(w)
//		return
//	}
package storage
