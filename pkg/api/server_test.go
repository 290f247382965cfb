package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/snooze/pkg/auth"
	"github.com/platinummonkey/snooze/pkg/httputil"
	"github.com/platinummonkey/snooze/pkg/middleware"
	"github.com/platinummonkey/snooze/pkg/observability"
)

func TestRoutes(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		method string
		path   string
	}{
		{"POST", "/api/users/signup"},
		{"POST", "/api/users/login"},
		{"GET", "/api/users/test"},
		{"PATCH", "/api/users/test"},
		{"POST", "/api/users/test/favorites/abc"},
		{"DELETE", "/api/users/test/favorites/abc"},
		{"POST", "/api/stories/"},
		{"GET", "/api/stories/"},
		{"POST", "/api/stories"},
		{"GET", "/api/stories"},
		{"GET", "/api/stories/abc"},
		{"DELETE", "/api/stories/abc"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			var match mux.RouteMatch
			assert.True(t, env.server.Router().Match(req, &match))
			assert.NoError(t, match.MatchErr)
		})
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/api/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not Found", detail(t, w))

	w = env.do("PUT", "/api/stories/abc", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestHandler_Middleware(t *testing.T) {
	env := newTestEnv(t, WithMaxBodyBytes(64), WithCORSOrigins([]string{"https://snooze.example"}))

	t.Run("request id is echoed", func(t *testing.T) {
		w := env.do("GET", "/api/stories/", "", nil)
		assert.NotEmpty(t, w.Header().Get(httputil.RequestIDHeader))
	})

	t.Run("oversized body", func(t *testing.T) {
		w := env.do("POST", "/api/users/signup", "", `{"username": "`+strings.Repeat("a", 200)+`"}`)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "Request body too large.", detail(t, w))
	})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/stories/", nil)
		req.Header.Set("Origin", "https://snooze.example")
		w := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(w, req)
		assert.Equal(t, "https://snooze.example", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRateLimitedLogin(t *testing.T) {
	limiter := middleware.NewRateLimiter(&middleware.RateLimitConfig{
		RequestsPerWindow: 2,
		WindowDuration:    time.Hour,
	})
	env := newTestEnv(t, WithRateLimiter(limiter))

	creds := map[string]string{"username": "ghost", "password": "nope"}
	for i := 0; i < 2; i++ {
		w := env.do("POST", "/api/users/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := env.do("POST", "/api/users/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests.", detail(t, w))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// signup has its own bucket
	w = env.do("POST", "/api/users/signup", "", map[string]string{
		"username": "fresh", "password": "password", "first_name": "ab", "last_name": "cd",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// other routes are not limited
	for i := 0; i < 5; i++ {
		w = env.do("GET", "/api/stories/", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitedLogin_ForwardedForRotation(t *testing.T) {
	proxies, err := auth.ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	limiter := middleware.NewRateLimiter(&middleware.RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Hour,
	})
	env := newTestEnv(t, WithRateLimiter(limiter), WithTrustedProxies(proxies))

	login := func(peer, forwarded string) int {
		req := httptest.NewRequest("POST", "/api/users/login",
			strings.NewReader(`{"username":"ghost","password":"nope"}`))
		req.RemoteAddr = peer
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(w, req)
		return w.Code
	}

	limited := 0
	for i := 0; i < 50; i++ {
		if login("203.0.113.7:4000", fmt.Sprintf("198.51.100.%d", i)) == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 49, limited)

	assert.Equal(t, http.StatusUnauthorized, login("10.0.0.2:4000", "198.51.100.200"))
	assert.Equal(t, http.StatusTooManyRequests, login("10.0.0.3:4000", "198.51.100.200"))
}

func TestMetrics(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	env := newTestEnv(t, WithMetrics(metrics))
	token := env.signup("test", "password")
	env.createStory(token, "one")
	env.createStory(token, "two")

	env.do("POST", "/api/users/login", "", map[string]string{"username": "test", "password": "password"})
	env.do("POST", "/api/users/login", "", map[string]string{"username": "test", "password": "bad"})
	env.do("GET", "/api/users/test", "", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LoginsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LoginsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuthAttemptsTotal.WithLabelValues(observability.AuthResultMissing)))
	assert.Positive(t, testutil.CollectAndCount(metrics.HTTPRequestsTotal))

	require.NoError(t, env.server.RefreshStats(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UsersTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.StoriesTotal))
}

func TestRefreshStats_WithoutMetrics(t *testing.T) {
	env := newTestEnv(t)
	assert.NoError(t, env.server.RefreshStats(context.Background()))
}

func TestStartStatsRefresher(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	env := newTestEnv(t, WithMetrics(metrics))
	env.signup("test", "password")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Error(t, env.server.StartStatsRefresher(ctx, "not a schedule"))
	require.NoError(t, env.server.StartStatsRefresher(ctx, "@every 1s"))

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.UsersTotal) == 1
	}, 5*time.Second, 50*time.Millisecond)
}
