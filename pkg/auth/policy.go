package auth

import "github.com/platinummonkey/snooze/pkg/models"

// CanAct reports whether actor may read or mutate a resource owned by
// ownerUsername. Staff may act on anything.
func CanAct(actor *models.User, ownerUsername string) bool {
	if actor == nil {
		return false
	}
	return actor.IsStaff || actor.Username == ownerUsername
}
