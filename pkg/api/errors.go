package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/snooze/pkg/httputil"
	"github.com/platinummonkey/snooze/pkg/observability"
	"github.com/platinummonkey/snooze/pkg/storage"
	"github.com/platinummonkey/snooze/pkg/validation"
)

// Client facing messages
const (
	msgUsernameTaken   = "Username already exists."
	msgBodyTooLarge    = "Request body too large."
	msgFavoriteAdded   = "Favorite added."
	msgFavoriteRemoved = "Favorite removed."
)

// writeStoreError maps storage errors onto responses. Anything unexpected
// is logged and answered with a generic 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httputil.WriteNotFound(w)
	case errors.Is(err, storage.ErrUsernameTaken):
		httputil.WriteBadRequest(w, msgUsernameTaken)
	default:
		writeInternalError(w, r, err)
	}
}

func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.FromContext(r.Context()).WithError(err).Error("request failed")
	httputil.WriteInternalError(w)
}

// decodeBody reads the request body and validates it against schema. It
// writes the error response and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, schema *validation.Schema) (validation.Values, bool) {
	body, err := httputil.ReadBody(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteDetail(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return nil, false
		}
		writeInternalError(w, r, err)
		return nil, false
	}

	values, issues := schema.Decode(body)
	if len(issues) > 0 {
		observability.FromContext(r.Context()).
			WithField("schema", schema.Name).
			WithField("issues", len(issues)).
			Debug("request body rejected")
		httputil.WriteValidationIssues(w, issues)
		return nil, false
	}
	return values, true
}
