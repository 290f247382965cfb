package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/snooze/pkg/auth"
	"github.com/platinummonkey/snooze/pkg/storage"
	"github.com/platinummonkey/snooze/pkg/storage/sqlstore"
)

type testEnv struct {
	t      *testing.T
	store  storage.Store
	server *Server
	logs   *test.Hook
}

// fastPasswords keeps argon2 cheap in tests
var fastPasswords = auth.PasswordConfig{
	Memory:      1024,
	Time:        1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	return newTestEnvWithTokens(t, auth.DefaultTokenConfig(), opts...)
}

func newTestEnvWithTokens(t *testing.T, tokens auth.TokenConfig, opts ...Option) *testEnv {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return newTestEnvWithStore(t, openSQLite(t, logger), logger, hook, tokens, opts...)
}

func openSQLite(t *testing.T, logger logrus.FieldLogger) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.Open(sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: ":memory:"},
		sqlstore.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func newTestEnvWithStore(t *testing.T, store storage.Store, logger *logrus.Logger, hook *test.Hook, tokens auth.TokenConfig, opts ...Option) *testEnv {
	t.Helper()

	codec, err := auth.NewTokenCodec(tokens)
	require.NoError(t, err)
	hasher, err := auth.NewPasswordHasher(fastPasswords)
	require.NoError(t, err)

	opts = append([]Option{WithLogger(logger)}, opts...)
	return &testEnv{
		t:      t,
		store:  store,
		server: NewServer(store, codec, hasher, opts...),
		logs:   hook,
	}
}

// do sends a request through the full middleware chain. body may be nil, a
// string sent verbatim, or a value encoded as JSON.
func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.DefaultTokenHeader, token)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

// signup registers username with the given password and returns its token
func (e *testEnv) signup(username, password string) string {
	e.t.Helper()
	w := e.do("POST", "/api/users/signup", "", map[string]string{
		"username":   username,
		"password":   password,
		"first_name": username + "First",
		"last_name":  username + "Last",
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[authBody](e.t, w).Token
}

// makeStaff flags username as staff directly in the store
func (e *testEnv) makeStaff(username string) {
	e.t.Helper()
	require.NoError(e.t, e.store.SetStaff(context.Background(), username, true))
}

// createStory submits a story as token and returns its id
func (e *testEnv) createStory(token, title string) string {
	e.t.Helper()
	w := e.do("POST", "/api/stories/", token, map[string]string{
		"author": "someone",
		"title":  title,
		"url":    "https://example.com/" + title,
	})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	return decode[storyBody](e.t, w).Story.ID
}

// Response bodies as a client sees them

type userBody struct {
	Username   string      `json:"username"`
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	DateJoined string      `json:"date_joined"`
	Stories    []storyJSON `json:"stories"`
	Favorites  []storyJSON `json:"favorites"`
}

type storyJSON struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Author   string `json:"author"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
}

type authBody struct {
	Token string   `json:"token"`
	User  userBody `json:"user"`
}

type userEnvelope struct {
	User userBody `json:"user"`
}

type favoriteBody struct {
	Message string   `json:"message"`
	User    userBody `json:"user"`
}

type storyBody struct {
	Story storyJSON `json:"story"`
}

type storiesBody struct {
	Stories []storyJSON `json:"stories"`
}

type detailBody struct {
	Detail string `json:"detail"`
}

type issueJSON struct {
	Type string        `json:"type"`
	Loc  []interface{} `json:"loc"`
	Msg  string        `json:"msg"`
}

type issuesBody struct {
	Detail []issueJSON `json:"detail"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[detailBody](t, w).Detail
}

func strPtr(s string) *string { return &s }
