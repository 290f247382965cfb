// Package auth provides token issuance, password hashing and the ownership
// policy for the snooze API.
//
// # Tokens
//
// A token is the username and a hex digest prefix joined by a colon:
//
//	codec, _ := auth.NewTokenCodec(auth.DefaultTokenConfig())
//	codec.Issue("test", "test") // "test:098f6bcd4621"
//
// The digest material is chosen by TokenConfig.DigestSource. With
// DigestUsername the token depends on the username only. With
// DigestCredential it is derived from the stored password hash, so changing
// the password changes the token. Tokens carry no expiry and no signature.
// MD5 is used for compatibility with existing clients and must not be
// relied on for security.
//
// # Passwords
//
// Passwords are stored as argon2id PHC strings:
//
//	hasher, _ := auth.NewPasswordHasher(auth.DefaultPasswordConfig())
//	encoded, _ := hasher.Hash("password")
//	ok, _ := hasher.Verify("password", encoded)
//
// # Policy
//
// CanAct permits the owner of a resource and any staff user. Callers report a
// denial as 401 Unauthorized, the same status as a missing token.
//
// # Related Packages
//
//   - pkg/middleware: resolves the token of each request into an Identity
//   - pkg/api: applies CanAct on user and story endpoints
package auth
