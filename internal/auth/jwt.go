package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// RoleDoctor is the only role a doctor token can carry.
	RoleDoctor = "doctor"
	// SubjectDoctor is the fixed subject of doctor tokens.
	SubjectDoctor = "doctor"
)

// ErrInvalidToken covers malformed, tampered and expired tokens alike.
var ErrInvalidToken = errors.New("invalid token")

// DoctorClaims is the payload of a doctor token: sub, role, email, iat, exp and jti.
type DoctorClaims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IssuedToken is returned on login.
type IssuedToken struct {
	Token     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager issues and validates HS256 doctor tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates the manager with the configured secret and lifetime.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a new doctor token for email.
func (m *TokenManager) Issue(email string) (*IssuedToken, error) {
	now := m.now().UTC().Truncate(time.Second)
	exp := now.Add(m.ttl)
	jti := uuid.NewString()

	claims := DoctorClaims{
		Role:  RoleDoctor,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   SubjectDoctor,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, err
	}

	return &IssuedToken{Token: signed, ID: jti, IssuedAt: now, ExpiresAt: exp}, nil
}

// Parse checks signature, expiry and the doctor role. Any failure yields ErrInvalidToken.
func (m *TokenManager) Parse(tokenString string) (*DoctorClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	token, err := parser.ParseWithClaims(tokenString, &DoctorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*DoctorClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != RoleDoctor || claims.Subject != SubjectDoctor {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
