//go:build integration

package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/platinummonkey/snooze/pkg/auth"
	"github.com/platinummonkey/snooze/pkg/storage/sqlstore"
)

// setupPostgresStore starts a disposable PostgreSQL container and returns a
// migrated store on it
func setupPostgresStore(t *testing.T, logger logrus.FieldLogger) *sqlstore.Store {
	t.Helper()
	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker/Podman not available, skipping integration tests")
	}
	provider.Close()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("snooze_test"),
		postgres.WithUsername("snooze"),
		postgres.WithPassword("snooze_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := sqlstore.Open(sqlstore.Config{Driver: sqlstore.DriverPostgres, DSN: dsn, MaxOpenConns: 5},
		sqlstore.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestPostgres_EndToEnd(t *testing.T) {
	logger, hook := test.NewNullLogger()
	env := newTestEnvWithStore(t, setupPostgresStore(t, logger), logger, hook, auth.DefaultTokenConfig())

	token := env.signup("test", "password")
	assert.Equal(t, "test:098f6bcd4621", token)

	w := env.do("POST", "/api/users/signup", "", map[string]string{
		"username": "test", "password": "password", "first_name": "ab", "last_name": "cd",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username already exists.", detail(t, w))

	otherToken := env.signup("user", "password")
	id := env.createStory(token, "pg")

	w = env.do("POST", "/api/users/user/favorites/"+id, otherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("DELETE", "/api/stories/"+id, otherToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("DELETE", "/api/stories/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", "/api/users/user", otherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[userEnvelope](t, w).User.Favorites)

	w = env.do("PATCH", "/api/users/test", token, map[string]string{"password": ""})
	require.Equal(t, http.StatusOK, w.Code)
	login := env.do("POST", "/api/users/login", "", map[string]string{"username": "test", "password": ""})
	require.Equal(t, http.StatusOK, login.Code)
	assert.Equal(t, token, decode[authBody](t, login).Token)
}
