// Package sqlstore implements storage.Store on database/sql for SQLite
// (github.com/mattn/go-sqlite3) and PostgreSQL (github.com/lib/pq).
//
// Schema migrations are embedded per dialect and applied with goose:
//
//	store, err := sqlstore.Open(sqlstore.Config{Driver: "sqlite3", DSN: "snooze.db"})
//	if err != nil {
//		return err
//	}
//	if err := store.Migrate(ctx); err != nil {
//		return err
//	}
//
// Stories and favorites carry a serial column so listings keep insertion
// order even when timestamps collide. Constraint failures from either driver
// are mapped onto storage.ErrUsernameTaken and storage.ErrNotFound.
package sqlstore
