// Package cache provides a Redis read-through cache in front of a
// storage.Store.
//
// Only story reads are cached. User records carry password digests and are
// always read from the database.
package cache
