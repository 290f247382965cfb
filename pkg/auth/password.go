package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const passwordAlgorithm = "argon2id"

// ErrInvalidPasswordHash is returned when a stored hash cannot be parsed
var ErrInvalidPasswordHash = errors.New("invalid password hash")

// PasswordConfig holds the argon2id cost parameters
type PasswordConfig struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultPasswordConfig returns production argon2id parameters
func DefaultPasswordConfig() PasswordConfig {
	return PasswordConfig{
		Memory:      64 * 1024,
		Time:        1,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Validate checks the hashing parameters
func (c PasswordConfig) Validate() error {
	if c.Parallelism == 0 {
		return fmt.Errorf("argon2 parallelism must be at least 1")
	}
	if c.Memory < 8*uint32(c.Parallelism) {
		return fmt.Errorf("argon2 memory must be at least %d KiB", 8*uint32(c.Parallelism))
	}
	if c.Time == 0 {
		return fmt.Errorf("argon2 time cost must be at least 1")
	}
	if c.SaltLength < 8 {
		return fmt.Errorf("salt length must be at least 8 bytes")
	}
	if c.KeyLength < 16 {
		return fmt.Errorf("key length must be at least 16 bytes")
	}
	return nil
}

// PasswordHasher hashes and verifies passwords as argon2id PHC strings.
// Any password is accepted, including the empty string.
type PasswordHasher struct {
	config PasswordConfig
	rand   io.Reader
}

// NewPasswordHasher creates a hasher with the given parameters
func NewPasswordHasher(config PasswordConfig) (*PasswordHasher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &PasswordHasher{config: config, rand: rand.Reader}, nil
}

// Hash returns a salted PHC encoded hash of password
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.config.Time, h.config.Memory, h.config.Parallelism, h.config.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		passwordAlgorithm,
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches the encoded hash. Hashes written
// with other cost parameters still verify.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	p, err := parsePasswordHash(encoded)
	if err != nil {
		return false, err
	}

	key := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.parallelism, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1, nil
}

type passwordHash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parsePasswordHash(encoded string) (*passwordHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != passwordAlgorithm {
		return nil, ErrInvalidPasswordHash
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidPasswordHash, parts[2])
	}

	p := &passwordHash{}
	for _, kv := range strings.Split(parts[3], ",") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, ErrInvalidPasswordHash
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad parameter %q", ErrInvalidPasswordHash, kv)
		}
		switch name {
		case "m":
			p.memory = uint32(n)
		case "t":
			p.time = uint32(n)
		case "p":
			if n == 0 || n > 255 {
				return nil, fmt.Errorf("%w: bad parallelism", ErrInvalidPasswordHash)
			}
			p.parallelism = uint8(n)
		default:
			return nil, fmt.Errorf("%w: unknown parameter %q", ErrInvalidPasswordHash, name)
		}
	}
	if p.memory == 0 || p.time == 0 || p.parallelism == 0 {
		return nil, ErrInvalidPasswordHash
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: bad salt encoding", ErrInvalidPasswordHash)
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return nil, fmt.Errorf("%w: bad key encoding", ErrInvalidPasswordHash)
	}
	return p, nil
}
