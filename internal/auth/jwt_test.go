package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager(strings.Repeat("s", 32), 8*time.Hour)

	issued, err := m.Issue("doctor@clinic.test")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if got := issued.ExpiresAt.Sub(issued.IssuedAt); got != 8*time.Hour {
		t.Fatalf("expected 8h window, got %s", got)
	}

	claims, err := m.Parse(issued.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != RoleDoctor || claims.Subject != SubjectDoctor {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Email != "doctor@clinic.test" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if claims.ID != issued.ID {
		t.Fatalf("jti mismatch %q != %q", claims.ID, issued.ID)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewTokenManager(strings.Repeat("s", 32), time.Hour)
	issued, err := m.Issue("doctor@clinic.test")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = func() time.Time { return issued.ExpiresAt.Add(time.Second) }
	if _, err := m.Parse(issued.Token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken after exp, got %v", err)
	}
}

func TestParseRejectsTamperedSignature(t *testing.T) {
	m := NewTokenManager(strings.Repeat("s", 32), time.Hour)
	issued, err := m.Issue("doctor@clinic.test")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokenManager(strings.Repeat("x", 32), 1000*time.Hour)
	forged, err := other.Issue("doctor@clinic.test")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(issued.Token, ".")
	forgedParts := strings.Split(forged.Token, ".")

	cases := map[string]string{
		"foreign secret":      forged.Token,
		"swapped body":        forgedParts[0] + "." + forgedParts[1] + "." + parts[2],
		"truncated signature": parts[0] + "." + parts[1] + "." + parts[2][:len(parts[2])-2],
		"two parts":           parts[0] + "." + parts[1],
		"garbage":             "not-a-token",
		"empty":               "",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Parse(tok); err != ErrInvalidToken {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestParseRejectsNonDoctorRole(t *testing.T) {
	secret := strings.Repeat("s", 32)
	m := NewTokenManager(secret, time.Hour)

	claims := DoctorClaims{
		Role:  "patient",
		Email: "p@clinic.test",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   SubjectDoctor,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.Parse(signed); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsMissingExpiry(t *testing.T) {
	secret := strings.Repeat("s", 32)
	m := NewTokenManager(secret, time.Hour)

	claims := DoctorClaims{
		Role:             RoleDoctor,
		RegisteredClaims: jwt.RegisteredClaims{Subject: SubjectDoctor},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.Parse(signed); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
