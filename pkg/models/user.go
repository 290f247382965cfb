package models

import "time"

// User is a registered account. Username is the primary key and never changes.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsStaff      bool      `json:"-"`
	DateJoined   time.Time `json:"date_joined"`
}

// UserPatch is a profile change as submitted by a client. A nil field is
// left untouched, an empty string is applied as-is.
type UserPatch struct {
	Password  *string
	FirstName *string
	LastName  *string
}

// ProfileUpdate converts the patch into stored columns, hashing the password
// when one is given.
func (p UserPatch) ProfileUpdate(hash func(string) (string, error)) (ProfileUpdate, error) {
	upd := ProfileUpdate{FirstName: p.FirstName, LastName: p.LastName}
	if p.Password != nil {
		h, err := hash(*p.Password)
		if err != nil {
			return ProfileUpdate{}, err
		}
		upd.PasswordHash = &h
	}
	return upd, nil
}

// ProfileUpdate lists the columns a profile update writes. Nil fields are
// left as stored. The staff flag is never part of it.
type ProfileUpdate struct {
	PasswordHash *string
	FirstName    *string
	LastName     *string
}

// IsEmpty reports whether the update writes nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.PasswordHash == nil && u.FirstName == nil && u.LastName == nil
}
