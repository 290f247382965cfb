package auth

import (
	"errors"

	"github.com/platinummonkey/snooze/pkg/models"
)

// ErrInvalidCredentials is returned by login for an unknown username or a
// wrong password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Identity is the authenticated caller attached to a request context
type Identity struct {
	User  *models.User
	Token string
}

// Username returns the caller's username, or "" for a nil identity
func (id *Identity) Username() string {
	if id == nil || id.User == nil {
		return ""
	}
	return id.User.Username
}

// IsStaff reports whether the caller has the staff flag
func (id *Identity) IsStaff() bool {
	return id != nil && id.User != nil && id.User.IsStaff
}

// CanAct applies the ownership policy to the caller
func (id *Identity) CanAct(ownerUsername string) bool {
	if id == nil {
		return false
	}
	return CanAct(id.User, ownerUsername)
}
