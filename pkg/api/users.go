package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/snooze/pkg/auth"
	"github.com/platinummonkey/snooze/pkg/httputil"
	"github.com/platinummonkey/snooze/pkg/middleware"
	"github.com/platinummonkey/snooze/pkg/models"
	"github.com/platinummonkey/snooze/pkg/observability"
	"github.com/platinummonkey/snooze/pkg/storage"
	"github.com/platinummonkey/snooze/pkg/validation"
)

const resourceUser = "user"

// signup handles POST /api/users/signup
func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	values, ok := decodeBody(w, r, validation.SignupSchema)
	if !ok {
		return
	}

	username, _ := values.Get("username")
	if !validation.ValidUsername(username) {
		httputil.WriteBadRequest(w, validation.UsernameMessage)
		return
	}
	password, _ := values.Get("password")

	hash, err := s.hasher.Hash(password)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		FirstName:    values["first_name"],
		LastName:     values["last_name"],
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			s.audit.LogFromRequest(r, auth.AuditEvent{
				Action:       auth.ActionSignup,
				Actor:        username,
				ResourceType: resourceUser,
				ResourceID:   username,
				Status:       auth.StatusFailure,
				Reason:       "username taken",
			})
		}
		writeStoreError(w, r, err)
		return
	}

	view, err := s.newUserView(r.Context(), user)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	s.audit.LogFromRequest(r, auth.AuditEvent{
		Action:       auth.ActionSignup,
		Actor:        username,
		ResourceType: resourceUser,
		ResourceID:   username,
		Status:       auth.StatusSuccess,
	})
	httputil.WriteCreated(w, authResponse{Token: s.codec.IssueFor(user), User: view})
}

// login handles POST /api/users/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	values, ok := decodeBody(w, r, validation.LoginSchema)
	if !ok {
		return
	}
	username, _ := values.Get("username")
	password, _ := values.Get("password")

	fail := func(reason string) {
		s.metrics.RecordLogin(auth.StatusFailure)
		s.audit.LogFromRequest(r, auth.AuditEvent{
			Action: auth.ActionLogin,
			Actor:  username,
			Status: auth.StatusFailure,
			Reason: reason,
		})
		httputil.WriteInvalidCredentials(w)
	}

	user, err := s.store.GetUser(r.Context(), username)
	if errors.Is(err, storage.ErrNotFound) {
		fail("unknown user")
		return
	}
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	match, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if !match {
		fail("wrong password")
		return
	}

	view, err := s.newUserView(r.Context(), user)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	s.metrics.RecordLogin(auth.StatusSuccess)
	s.audit.LogFromRequest(r, auth.AuditEvent{
		Action: auth.ActionLogin,
		Actor:  username,
		Status: auth.StatusSuccess,
	})
	httputil.WriteSuccess(w, authResponse{Token: s.codec.IssueFor(user), User: view})
}

// getUser handles GET /api/users/{username}
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	username, err := httputil.ParsePathString(r, "username")
	if err != nil {
		httputil.WriteNotFound(w)
		return
	}

	if !s.authorize(r, identity, auth.ActionUserRead, resourceUser, username, username) {
		httputil.WriteUnauthorized(w)
		return
	}

	user, err := s.store.GetUser(r.Context(), username)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	view, err := s.newUserView(r.Context(), user)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, userResponse{User: view})
}

// patchUser handles PATCH /api/users/{username}. Absent and null fields are
// left untouched.
func (s *Server) patchUser(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	username, err := httputil.ParsePathString(r, "username")
	if err != nil {
		httputil.WriteNotFound(w)
		return
	}

	values, ok := decodeBody(w, r, validation.UserPatchSchema)
	if !ok {
		return
	}
	patch := models.UserPatch{
		Password:  values.Ptr("password"),
		FirstName: values.Ptr("first_name"),
		LastName:  values.Ptr("last_name"),
	}

	if !s.authorize(r, identity, auth.ActionUserUpdate, resourceUser, username, username) {
		httputil.WriteUnauthorized(w)
		return
	}

	update, err := patch.ProfileUpdate(s.hasher.Hash)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if err := s.store.UpdateProfile(r.Context(), username, update); err != nil {
		writeStoreError(w, r, err)
		return
	}

	user, err := s.store.GetUser(r.Context(), username)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	view, err := s.newUserView(r.Context(), user)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	s.audit.LogFromRequest(r, auth.AuditEvent{
		Action:       auth.ActionUserUpdate,
		Actor:        identity.Username(),
		ResourceType: resourceUser,
		ResourceID:   username,
		Status:       auth.StatusSuccess,
		Reason:       patchedFields(patch),
	})
	httputil.WriteSuccess(w, userResponse{User: view})
}

// authorize applies the ownership policy and audits denials
func (s *Server) authorize(r *http.Request, identity *auth.Identity, action, resourceType, resourceID, owner string) bool {
	if identity.CanAct(owner) {
		return true
	}
	observability.FromContext(r.Context()).
		WithField("action", action).
		WithField("owner", owner).
		Debug("permission denied")
	s.audit.LogFromRequest(r, auth.AuditEvent{
		Action:       action,
		Actor:        identity.Username(),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Status:       auth.StatusDenied,
	})
	return false
}

func patchedFields(p models.UserPatch) string {
	var fields string
	add := func(name string, v *string) {
		if v == nil {
			return
		}
		if fields != "" {
			fields += ","
		}
		fields += name
	}
	add("password", p.Password)
	add("first_name", p.FirstName)
	add("last_name", p.LastName)
	return fields
}
