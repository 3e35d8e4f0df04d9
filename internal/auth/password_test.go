package auth

import "testing"

func TestCredentialsCheck(t *testing.T) {
	hash, err := Hash("s3nha-forte")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	tests := []struct {
		name  string
		creds Credentials
		email string
		pass  string
		want  error
	}{
		{"plain match", Credentials{Email: "doc@clinic.test", Password: "pw"}, "doc@clinic.test", "pw", nil},
		{"email case", Credentials{Email: "doc@clinic.test", Password: "pw"}, "DOC@Clinic.test", "pw", nil},
		{"wrong password", Credentials{Email: "doc@clinic.test", Password: "pw"}, "doc@clinic.test", "nope", ErrInvalidCredentials},
		{"wrong email", Credentials{Email: "doc@clinic.test", Password: "pw"}, "other@clinic.test", "pw", ErrInvalidCredentials},
		{"hash match", Credentials{Email: "doc@clinic.test", PasswordHash: hash}, "doc@clinic.test", "s3nha-forte", nil},
		{"hash mismatch", Credentials{Email: "doc@clinic.test", PasswordHash: hash}, "doc@clinic.test", "pw", ErrInvalidCredentials},
		{"hash wins", Credentials{Email: "doc@clinic.test", Password: "pw", PasswordHash: hash}, "doc@clinic.test", "pw", ErrInvalidCredentials},
		{"no password", Credentials{Email: "doc@clinic.test"}, "doc@clinic.test", "", ErrNotConfigured},
		{"no email", Credentials{Password: "pw"}, "", "pw", ErrNotConfigured},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.creds.Check(tc.email, tc.pass); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
