package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/alexedwards/argon2id"
)

var (
	// ErrInvalidCredentials does not say whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotConfigured means the server has no doctor credential to compare against.
	ErrNotConfigured = errors.New("doctor credentials not configured")
)

var params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash returns an argon2id hash with its parameters encoded inline.
func Hash(password string) (string, error) {
	return argon2id.CreateHash(password, params)
}

// Verify compares a password with an argon2id hash.
func Verify(password, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}

// Credentials is the single configured administrator identity.
// PasswordHash wins over Password when both are set.
type Credentials struct {
	Email        string
	Password     string
	PasswordHash string
}

// Configured reports whether a login can be checked at all.
func (c Credentials) Configured() bool {
	return strings.TrimSpace(c.Email) != "" && (c.Password != "" || c.PasswordHash != "")
}

// Check returns nil on a match, ErrNotConfigured when nothing is configured and
// ErrInvalidCredentials otherwise.
func (c Credentials) Check(email, password string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	emailOK := strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(c.Email))

	var passOK bool
	if c.PasswordHash != "" {
		ok, err := Verify(password, c.PasswordHash)
		if err != nil {
			return ErrInvalidCredentials
		}
		passOK = ok
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	}

	if !emailOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}
