// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// Every error response has the shape {"detail": ...}. Most details are fixed
// strings; schema validation failures carry a list of issues.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteCreated(w, resource)
//	httputil.WriteUnauthorized(w)
//	httputil.WriteNotFound(w)
//	httputil.WriteBadRequest(w, "Username already exists.")
//	httputil.WriteValidationIssues(w, issues)
//
// # Request Parsing
//
//	username, _ := httputil.ParsePathString(r, "username")
//	limit, err := httputil.ParseQueryInt(r, "limit", 0)
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(1<<20),
//	)
//
// # Related Packages
//
//   - pkg/middleware: Token authentication and rate limiting
package httputil
