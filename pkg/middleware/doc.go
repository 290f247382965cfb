// Package middleware provides HTTP middleware for token authentication and
// rate limiting.
//
// # Authentication
//
// AuthMiddleware reads the token header, resolves the user and verifies the
// digest fragment. Handlers behind it read the caller with GetIdentity:
//
//	authn := middleware.NewAuthMiddleware(codec, store,
//		middleware.WithAuthMetrics(metrics),
//		middleware.WithAuditLogger(audit))
//	router.Handle("/api/stories/", authn.Handler(createStory)).Methods("POST")
//
// A missing, malformed or stale token and an unknown user all produce the
// same 401 response.
//
// # Rate Limiting
//
// RateLimitMiddleware accepts any Limiter. RateLimiter keeps token buckets
// in process; DistributedRateLimiter counts fixed windows in Redis and is
// shared across instances:
//
//	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
//	limiter.StartCleanup(ctx)
//	signup := middleware.NewRateLimitMiddleware(limiter, "signup").Handler(h)
package middleware
