package cli

import (
	"context"
	"io"

	"github.com/platinummonkey/snooze/pkg/auth"
	"github.com/platinummonkey/snooze/pkg/storage"
)

// AdminStore is the store the admin commands operate on
type AdminStore interface {
	storage.Store
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int64, error)
}

// Admin bundles what the admin commands need
type Admin struct {
	Store  AdminStore
	Hasher *auth.PasswordHasher
	Codec  *auth.TokenCodec
	Out    io.Writer
}

// Opener connects to the database on demand. The returned Admin's store is
// closed by the command when it is done.
type Opener func() (*Admin, error)

func withAdmin(open Opener, fn func(ctx context.Context, a *Admin) error) error {
	a, err := open()
	if err != nil {
		return err
	}
	defer a.Store.Close()
	return fn(context.Background(), a)
}
