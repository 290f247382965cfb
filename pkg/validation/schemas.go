package validation

import "regexp"

// Username limits
const (
	UsernameMinLength = 2
	NameMaxLength     = 150
	NameMinLength     = 2
	PasswordMinLength = 5
)

// UsernameMessage is returned when a username contains characters that
// would break token parsing
const UsernameMessage = "Username must contain only numbers, letters, underscores or hyphens."

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidUsername reports whether username is a slug. The token format
// depends on usernames never containing a colon.
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// SignupSchema validates POST /api/users/signup
var SignupSchema = &Schema{
	Name: "SignupIn",
	Fields: []Field{
		{Name: "username", MinLength: UsernameMinLength, MaxLength: NameMaxLength},
		{Name: "first_name", MinLength: NameMinLength, MaxLength: NameMaxLength},
		{Name: "last_name", MinLength: NameMinLength, MaxLength: NameMaxLength},
		{Name: "password", MinLength: PasswordMinLength},
	},
}

// LoginSchema validates POST /api/users/login. Passwords have no minimum
// here since a patch may set them to anything, including "".
var LoginSchema = &Schema{
	Name: "LoginIn",
	Fields: []Field{
		{Name: "username"},
		{Name: "password"},
	},
}

// UserPatchSchema validates PATCH /api/users/{username}
var UserPatchSchema = &Schema{
	Name: "UserPatchIn",
	Fields: []Field{
		{Name: "password", Optional: true},
		{Name: "first_name", Optional: true, MaxLength: NameMaxLength},
		{Name: "last_name", Optional: true, MaxLength: NameMaxLength},
	},
}

// StoryCreateSchema validates POST /api/stories/
var StoryCreateSchema = &Schema{
	Name: "StoryIn",
	Fields: []Field{
		{Name: "author"},
		{Name: "title"},
		{Name: "url"},
	},
}
