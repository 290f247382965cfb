// Package api provides the HTTP API of snooze, a link sharing service.
//
// # Endpoints
//
//	POST   /api/users/signup                           - Create an account, returns {token, user}
//	POST   /api/users/login                            - Exchange credentials for {token, user}
//	GET    /api/users/{username}                       - Profile with stories and favorites
//	PATCH  /api/users/{username}                       - Partial profile update
//	POST   /api/users/{username}/favorites/{story_id}  - Favorite a story
//	DELETE /api/users/{username}/favorites/{story_id}  - Unfavorite a story
//	POST   /api/stories/                               - Submit a story
//	GET    /api/stories/                               - List stories (limit, offset)
//	GET    /api/stories/{id}                           - Fetch one story
//	DELETE /api/stories/{id}                           - Delete a story
//
// Authenticated routes read the token from the configured header (default
// "token"). The caller may act on a resource it owns; staff may act on
// anything. Anything else answers 401 with {"detail":"Unauthorized"}.
//
// For user routes the owner is the path username, so permission is checked
// before the user is loaded. For stories the owner is only known once the row
// is loaded: an unknown id answers 404 before any permission check.
//
// # Usage
//
//	srv := api.NewServer(store, codec, hasher,
//		api.WithLogger(logger),
//		api.WithMetrics(metrics),
//	)
//	http.ListenAndServe(":8000", srv.Handler())
package api
