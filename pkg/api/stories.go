package api

import (
	"net/http"

	"github.com/platinummonkey/snooze/pkg/auth"
	"github.com/platinummonkey/snooze/pkg/httputil"
	"github.com/platinummonkey/snooze/pkg/middleware"
	"github.com/platinummonkey/snooze/pkg/models"
	"github.com/platinummonkey/snooze/pkg/validation"
)

const resourceStory = "story"

// createStory handles POST /api/stories/. The caller becomes the owner.
func (s *Server) createStory(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	values, ok := decodeBody(w, r, validation.StoryCreateSchema)
	if !ok {
		return
	}

	story := &models.Story{
		Username: identity.Username(),
		Author:   values["author"],
		Title:    values["title"],
		URL:      values["url"],
	}
	if err := s.store.CreateStory(r.Context(), story); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.audit.LogFromRequest(r, auth.AuditEvent{
		Action:       auth.ActionStoryCreate,
		Actor:        identity.Username(),
		ResourceType: resourceStory,
		ResourceID:   story.ID,
		Status:       auth.StatusSuccess,
	})
	httputil.WriteSuccess(w, storyResponse{Story: story})
}

// listStories handles GET /api/stories/. A limit of zero lists everything.
func (s *Server) listStories(w http.ResponseWriter, r *http.Request) {
	var issues validation.Issues
	limit, err := httputil.ParseQueryInt(r, "limit", 0)
	if err != nil {
		issues = append(issues, validation.QueryIntIssue("limit", r.URL.Query().Get("limit")))
	}
	offset, err := httputil.ParseQueryInt(r, "offset", 0)
	if err != nil {
		issues = append(issues, validation.QueryIntIssue("offset", r.URL.Query().Get("offset")))
	}
	if len(issues) > 0 {
		httputil.WriteValidationIssues(w, issues)
		return
	}

	stories, err := s.store.ListStories(r.Context(), limit, offset)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if stories == nil {
		stories = []*models.Story{}
	}
	httputil.WriteSuccess(w, storiesResponse{Stories: stories})
}

// getStory handles GET /api/stories/{id}
func (s *Server) getStory(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathString(r, "id")
	if err != nil {
		httputil.WriteNotFound(w)
		return
	}
	story, err := s.store.GetStory(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, storyResponse{Story: story})
}

// deleteStory handles DELETE /api/stories/{id}. Only the owner or staff may
// delete.
func (s *Server) deleteStory(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	id, err := httputil.ParsePathString(r, "id")
	if err != nil {
		httputil.WriteNotFound(w)
		return
	}

	story, err := s.store.GetStory(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !s.authorize(r, identity, auth.ActionStoryDelete, resourceStory, id, story.Username) {
		httputil.WriteUnauthorized(w)
		return
	}

	if err := s.store.DeleteStory(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.audit.LogFromRequest(r, auth.AuditEvent{
		Action:       auth.ActionStoryDelete,
		Actor:        identity.Username(),
		ResourceType: resourceStory,
		ResourceID:   id,
		Status:       auth.StatusSuccess,
	})
	httputil.WriteSuccess(w, deleteResponse{Deleted: true, ID: id})
}
