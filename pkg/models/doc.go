// Package models holds the persisted domain types shared by the store, the
// auth layer and the HTTP handlers.
package models
