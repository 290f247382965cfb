package api

import (
	"net/http"

	"github.com/platinummonkey/snooze/pkg/auth"
	"github.com/platinummonkey/snooze/pkg/httputil"
	"github.com/platinummonkey/snooze/pkg/middleware"
)

// addFavorite handles POST /api/users/{username}/favorites/{story_id}
func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	s.changeFavorite(w, r, auth.ActionFavoriteAdd)
}

// removeFavorite handles DELETE /api/users/{username}/favorites/{story_id}
func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	s.changeFavorite(w, r, auth.ActionFavoriteRemove)
}

func (s *Server) changeFavorite(w http.ResponseWriter, r *http.Request, action string) {
	identity := middleware.GetIdentity(r.Context())
	username, err := httputil.ParsePathString(r, "username")
	if err != nil {
		httputil.WriteNotFound(w)
		return
	}
	storyID, err := httputil.ParsePathString(r, "story_id")
	if err != nil {
		httputil.WriteNotFound(w)
		return
	}

	if !s.authorize(r, identity, action, "favorite", storyID, username) {
		httputil.WriteUnauthorized(w)
		return
	}

	ctx := r.Context()
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if _, err := s.store.GetStory(ctx, storyID); err != nil {
		writeStoreError(w, r, err)
		return
	}

	message := msgFavoriteAdded
	if action == auth.ActionFavoriteRemove {
		message = msgFavoriteRemoved
		err = s.store.RemoveFavorite(ctx, username, storyID)
	} else {
		err = s.store.AddFavorite(ctx, username, storyID)
	}
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	view, err := s.newUserView(ctx, user)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	s.audit.LogFromRequest(r, auth.AuditEvent{
		Action:       action,
		Actor:        identity.Username(),
		ResourceType: "favorite",
		ResourceID:   storyID,
		Status:       auth.StatusSuccess,
	})
	httputil.WriteSuccess(w, favoriteResponse{Message: message, User: view})
}
