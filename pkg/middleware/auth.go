package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/platinummonkey/snooze/pkg/auth"
	"github.com/platinummonkey/snooze/pkg/contextkeys"
	"github.com/platinummonkey/snooze/pkg/httputil"
	"github.com/platinummonkey/snooze/pkg/models"
	"github.com/platinummonkey/snooze/pkg/observability"
	"github.com/platinummonkey/snooze/pkg/storage"
)

// UserLookup resolves the username carried by a token
type UserLookup interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
}

// AuthMiddleware authenticates requests by the token header
type AuthMiddleware struct {
	codec   *auth.TokenCodec
	users   UserLookup
	metrics *observability.Metrics
	audit   *auth.AuditLogger
}

// AuthOption configures an AuthMiddleware
type AuthOption func(*AuthMiddleware)

// WithAuthMetrics records the outcome of every authentication attempt
func WithAuthMetrics(m *observability.Metrics) AuthOption {
	return func(am *AuthMiddleware) { am.metrics = m }
}

// WithAuditLogger records authentication failures as audit events
func WithAuditLogger(a *auth.AuditLogger) AuthOption {
	return func(am *AuthMiddleware) { am.audit = a }
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(codec *auth.TokenCodec, users UserLookup, opts ...AuthOption) *AuthMiddleware {
	m := &AuthMiddleware{
		codec: codec,
		users: users,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler wraps an HTTP handler with authentication. Every rejection gets
// the same 401 body so callers cannot tell the reasons apart.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := r.Header.Get(m.codec.Header())
		if token == "" {
			m.reject(w, r, observability.AuthResultMissing, "")
			return
		}

		username, fragment, err := m.codec.Parse(token)
		if err != nil {
			m.reject(w, r, observability.AuthResultMalformed, "")
			return
		}

		user, err := m.users.GetUser(ctx, username)
		if errors.Is(err, storage.ErrNotFound) {
			m.reject(w, r, observability.AuthResultUnknown, username)
			return
		}
		if err != nil {
			m.metrics.RecordAuth(observability.AuthResultError)
			observability.FromContext(ctx).WithError(err).Error("failed to load user for token")
			httputil.WriteInternalError(w)
			return
		}

		if !m.codec.Verify(user, fragment) {
			m.reject(w, r, observability.AuthResultMismatch, username)
			return
		}

		m.metrics.RecordAuth(observability.AuthResultSuccess)
		httputil.RecordUser(ctx, user.Username)

		ctx = contextkeys.WithAuth(ctx, &auth.Identity{User: user, Token: token})
		ctx = contextkeys.WithUserID(ctx, user.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, result, username string) {
	m.metrics.RecordAuth(result)
	observability.FromContext(r.Context()).
		WithField("reason", result).
		Debug("authentication failed")
	m.audit.LogFromRequest(r, auth.AuditEvent{
		Action: auth.ActionAuthFailure,
		Actor:  username,
		Status: auth.StatusFailure,
		Reason: result,
	})
	httputil.WriteUnauthorized(w)
}

// GetIdentity returns the authenticated caller, or nil outside an
// authenticated route
func GetIdentity(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(contextkeys.AuthKey).(*auth.Identity)
	return identity
}
