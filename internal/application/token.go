package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidTokenDigest        = errors.New("invalid token digest format")
	ErrIncompatibleDigestVersion = errors.New("incompatible token digest version")
	errTokenMismatch             = errors.New("token mismatch")
)

// Argon2idParams sets the argon2id cost parameters encoded into a digest.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// tokenDigest is the decoded form of a PHC argon2id string.
type tokenDigest struct {
	params Argon2idParams
	salt   []byte
	hash   []byte
}

func (d tokenDigest) derive(token string) []byte {
	return argon2.IDKey([]byte(token), d.salt,
		d.params.Iterations, d.params.Memory, d.params.Parallelism, d.params.KeyLength)
}

// CreateTokenDigest derives the stored form of an operator bearer token as a
// PHC encoded argon2id string.
func CreateTokenDigest(token string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	digest := tokenDigest{params: params, salt: salt}
	encode := base64.RawStdEncoding.EncodeToString

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Iterations, params.Parallelism,
		encode(salt), encode(digest.derive(token))), nil
}

// parseTokenDigest splits a PHC string into its cost parameters, salt and
// hash. Any deviation from the expected shape maps to ErrInvalidTokenDigest,
// except a well-formed digest from a different argon2 version.
func parseTokenDigest(encoded string) (tokenDigest, error) {
	var digest tokenDigest

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return digest, ErrInvalidTokenDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return digest, ErrInvalidTokenDigest
	}
	if version != argon2.Version {
		return digest, ErrIncompatibleDigestVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&digest.params.Memory, &digest.params.Iterations, &digest.params.Parallelism); err != nil {
		return digest, ErrInvalidTokenDigest
	}

	var err error
	if digest.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return digest, ErrInvalidTokenDigest
	}
	if digest.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return digest, ErrInvalidTokenDigest
	}

	digest.params.SaltLength = uint32(len(digest.salt))
	digest.params.KeyLength = uint32(len(digest.hash))
	return digest, nil
}

// VerifyToken checks a presented token against its stored digest.
func VerifyToken(encoded, token string) error {
	digest, err := parseTokenDigest(encoded)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(digest.hash, digest.derive(token)) != 1 {
		return errTokenMismatch
	}
	return nil
}

// OperatorEntry binds an operator name to a token digest.
type OperatorEntry struct {
	Operator string
	Digest   string
}

// OperatorRegistry resolves presented bearer tokens to principals.
type OperatorRegistry struct {
	entries []OperatorEntry
}

// NewOperatorRegistry builds a registry from configured entries.
func NewOperatorRegistry(entries []OperatorEntry) *OperatorRegistry {
	return &OperatorRegistry{entries: entries}
}

// Resolve returns the principal whose digest matches the token, or
// ErrUnauthorized.
func (r *OperatorRegistry) Resolve(token string) (Principal, error) {
	if r == nil || token == "" {
		return Principal{}, ErrUnauthorized
	}
	for _, entry := range r.entries {
		if err := VerifyToken(entry.Digest, token); err == nil {
			return Principal{Operator: entry.Operator}, nil
		}
	}
	return Principal{}, ErrUnauthorized
}
