package auth

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/platinummonkey/snooze/pkg/models"
)

const (
	// DefaultTokenHeader is the request header carrying the token
	DefaultTokenHeader = "token"
	// DefaultFragmentLength is the number of hex digits kept from the digest
	DefaultFragmentLength = 12
	// tokenSeparator joins the username and the digest fragment
	tokenSeparator = ":"
)

// DigestSource selects what the token fragment is derived from.
type DigestSource string

const (
	// DigestUsername derives the fragment from the username alone.
	DigestUsername DigestSource = "username"
	// DigestCredential derives the fragment from the stored password hash,
	// so every password change produces a new token.
	DigestCredential DigestSource = "credential"
)

// ErrMalformedToken is returned by Parse when the token has no separator or
// no username.
var ErrMalformedToken = errors.New("malformed token")

// TokenConfig holds the token derivation parameters.
type TokenConfig struct {
	Header         string
	DigestSource   DigestSource
	FragmentLength int
	// CacheSize bounds the fragment memo. Zero disables it.
	CacheSize int
}

// DefaultTokenConfig returns the reference-compatible token settings.
func DefaultTokenConfig() TokenConfig {
	return TokenConfig{
		Header:         DefaultTokenHeader,
		DigestSource:   DigestUsername,
		FragmentLength: DefaultFragmentLength,
		CacheSize:      1024,
	}
}

// Validate checks the token settings.
func (c TokenConfig) Validate() error {
	if c.Header == "" {
		return fmt.Errorf("token header name is required")
	}
	switch c.DigestSource {
	case DigestUsername, DigestCredential:
	default:
		return fmt.Errorf("invalid digest source: %q (must be %s or %s)", c.DigestSource, DigestUsername, DigestCredential)
	}
	if c.FragmentLength < 1 || c.FragmentLength > hex.EncodedLen(md5.Size) {
		return fmt.Errorf("fragment length must be between 1 and %d", hex.EncodedLen(md5.Size))
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("fragment cache size must not be negative")
	}
	return nil
}

// TokenCodec issues and parses bearer tokens of the form
// <username>:<hex digest prefix>.
//
// The digest is MD5, which is fast and not collision resistant. Tokens never
// expire and cannot be revoked without changing the material they derive from.
type TokenCodec struct {
	config TokenConfig
	cache  *lru.Cache[string, string]
}

// NewTokenCodec creates a codec from a validated config
func NewTokenCodec(config TokenConfig) (*TokenCodec, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	tc := &TokenCodec{config: config}
	if config.CacheSize > 0 {
		cache, err := lru.New[string, string](config.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create fragment cache: %w", err)
		}
		tc.cache = cache
	}
	return tc, nil
}

// Header returns the name of the request header carrying the token.
func (tc *TokenCodec) Header() string {
	return tc.config.Header
}

// Fragment returns the digest prefix for the given material.
func (tc *TokenCodec) Fragment(material string) string {
	if tc.cache != nil {
		if fragment, ok := tc.cache.Get(material); ok {
			return fragment
		}
	}

	sum := md5.Sum([]byte(material))
	fragment := hex.EncodeToString(sum[:])[:tc.config.FragmentLength]

	if tc.cache != nil {
		tc.cache.Add(material, fragment)
	}
	return fragment
}

// Issue builds the token for username from the given digest material.
func (tc *TokenCodec) Issue(username, material string) string {
	return username + tokenSeparator + tc.Fragment(material)
}

// Parse splits a token into its username and fragment. Only the first
// separator counts since usernames cannot contain one.
func (tc *TokenCodec) Parse(token string) (username, fragment string, err error) {
	username, fragment, found := strings.Cut(token, tokenSeparator)
	if !found || username == "" {
		return "", "", ErrMalformedToken
	}
	return username, fragment, nil
}

// Material returns the digest material of user for the configured source.
func (tc *TokenCodec) Material(user *models.User) string {
	if tc.config.DigestSource == DigestCredential {
		return user.PasswordHash
	}
	return user.Username
}

// IssueFor builds the current token of user.
func (tc *TokenCodec) IssueFor(user *models.User) string {
	return tc.Issue(user.Username, tc.Material(user))
}

// Verify reports whether fragment matches the one derived from user's
// current credentials.
func (tc *TokenCodec) Verify(user *models.User, fragment string) bool {
	expected := tc.Fragment(tc.Material(user))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(fragment)) == 1
}
