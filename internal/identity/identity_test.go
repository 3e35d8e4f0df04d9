package identity

import (
	"context"
	"errors"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"

	"github.com/sorrisoclinic/clinic-api/internal/auth"
	"github.com/sorrisoclinic/clinic-api/internal/registration"
)

type stubDoctors struct{ tokens map[string]string }

func (s stubDoctors) Verify(ctx context.Context, token string) (*auth.DoctorClaims, error) {
	if email, ok := s.tokens[token]; ok {
		return &auth.DoctorClaims{Role: auth.RoleDoctor, Email: email}, nil
	}
	return nil, auth.ErrInvalidToken
}

type stubFirebase struct{ tokens map[string]*fbauth.Token }

func (s stubFirebase) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	if tok, ok := s.tokens[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("invalid id token")
}

type stubApprovals struct {
	status map[string]string
	err    error
}

func (s stubApprovals) Status(ctx context.Context, uid string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if st, ok := s.status[uid]; ok {
		return st, nil
	}
	return "", registration.ErrNotFound
}

func fbToken(uid string, claims map[string]interface{}) *fbauth.Token {
	if claims == nil {
		claims = map[string]interface{}{}
	}
	claims["email"] = uid + "@b.com"
	return &fbauth.Token{UID: uid, Claims: claims}
}

func newResolver(requireApproval bool, approvals ApprovalLookup) *Resolver {
	return NewResolver(Config{
		Doctors: stubDoctors{tokens: map[string]string{"doctor-jwt": "doc@clinic.com"}},
		Firebase: stubFirebase{tokens: map[string]*fbauth.Token{
			"fb-doctor":     fbToken("d1", map[string]interface{}{"role": "doctor"}),
			"fb-plain":      fbToken("p1", nil),
			"fb-patient":    fbToken("p2", map[string]interface{}{"role": "patient"}),
			"fb-approved":   fbToken("p3", map[string]interface{}{"role": "patient", "approved": true}),
			"fb-unapproved": fbToken("p4", map[string]interface{}{"role": "patient", "approved": false}),
			"fb-admin":      fbToken("x1", map[string]interface{}{"role": "admin"}),
			"fb-verified":   fbToken("p5", map[string]interface{}{"email_verified": true}),
		}},
		Approvals:       approvals,
		RequireApproval: requireApproval,
		Logger:          zerolog.Nop(),
	})
}

func TestResolve(t *testing.T) {
	r := newResolver(false, nil)
	ctx := context.Background()

	tests := []struct {
		bearer  string
		kind    Kind
		source  string
		wantErr error
	}{
		{"", Anonymous, SourceNone, nil},
		{"doctor-jwt", Doctor, SourceToken, nil},
		{"fb-doctor", Doctor, SourceFirebase, nil},
		{"fb-plain", Patient, SourceFirebase, nil},
		{"fb-patient", Patient, SourceFirebase, nil},
		{"garbage", Anonymous, SourceNone, ErrUnauthenticated},
		{"fb-admin", Anonymous, SourceNone, ErrForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.bearer, func(t *testing.T) {
			id, err := r.Resolve(ctx, tc.bearer)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if id.Kind != tc.kind || id.Source != tc.source {
				t.Fatalf("unexpected identity %+v", id)
			}
		})
	}
}

func TestResolveEmailVerified(t *testing.T) {
	r := newResolver(false, nil)
	ctx := context.Background()

	id, err := r.Resolve(ctx, "fb-plain")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id.Email != "p1@b.com" || id.EmailVerified || id.VerifiedEmail() != "" {
		t.Fatalf("unverified email must not be usable for lookups: %+v", id)
	}

	id, err = r.Resolve(ctx, "fb-verified")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !id.EmailVerified || id.VerifiedEmail() != "p5@b.com" {
		t.Fatalf("expected verified email, got %+v", id)
	}

	id, err = r.Resolve(ctx, "doctor-jwt")
	if err != nil || id.VerifiedEmail() != "doc@clinic.com" {
		t.Fatalf("doctor token email: %+v (%v)", id, err)
	}
}

func TestDoctorPathsAreEquivalent(t *testing.T) {
	r := newResolver(true, nil)
	ctx := context.Background()

	for _, bearer := range []string{"doctor-jwt", "fb-doctor"} {
		id, err := r.Doctor(ctx, bearer)
		if err != nil || !id.IsDoctor() {
			t.Fatalf("%s: expected doctor, got %+v (%v)", bearer, id, err)
		}
	}

	if _, err := r.Doctor(ctx, ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := r.Doctor(ctx, "fb-approved"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a patient, got %v", err)
	}
}

func TestOptionalDoctor(t *testing.T) {
	r := newResolver(false, nil)
	ctx := context.Background()

	if id := r.OptionalDoctor(ctx, "doctor-jwt"); !id.IsDoctor() {
		t.Fatal("expected doctor")
	}
	for _, bearer := range []string{"", "garbage", "fb-plain", "fb-admin"} {
		if id := r.OptionalDoctor(ctx, bearer); id.Kind != Anonymous {
			t.Fatalf("%q: expected anonymous, got %+v", bearer, id)
		}
	}
}

func TestPatientWithoutApprovalGate(t *testing.T) {
	r := newResolver(false, nil)
	ctx := context.Background()

	id, err := r.Patient(ctx, "fb-plain")
	if err != nil {
		t.Fatalf("expected access, got %v", err)
	}
	if id.UID != "p1" || id.Email != "p1@b.com" {
		t.Fatalf("unexpected identity %+v", id)
	}

	if _, err := r.Patient(ctx, "fb-unapproved"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("approved=false must be forbidden, got %v", err)
	}
	if _, err := r.Patient(ctx, "doctor-jwt"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("doctor token must not pass patient guard, got %v", err)
	}
	if _, err := r.Patient(ctx, ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestPatientWithApprovalGate(t *testing.T) {
	approvals := stubApprovals{status: map[string]string{
		"p1": registration.StatusPending,
		"p2": registration.StatusApproved,
	}}
	r := newResolver(true, approvals)
	ctx := context.Background()

	if _, err := r.Patient(ctx, "fb-plain"); !errors.Is(err, ErrNotApproved) {
		t.Fatalf("pending registration must be refused, got %v", err)
	}

	id, err := r.Patient(ctx, "fb-patient")
	if err != nil {
		t.Fatalf("approved registration must pass, got %v", err)
	}
	if id.Approved == nil || !*id.Approved {
		t.Fatalf("expected approved identity, got %+v", id)
	}

	if _, err := r.Patient(ctx, "fb-approved"); err != nil {
		t.Fatalf("approved claim must pass without lookup, got %v", err)
	}
}

func TestPatientApprovalLookupFailsClosed(t *testing.T) {
	ctx := context.Background()

	broken := newResolver(true, stubApprovals{err: errors.New("store down")})
	if _, err := broken.Patient(ctx, "fb-plain"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("lookup failure must deny, got %v", err)
	}

	missing := newResolver(true, stubApprovals{})
	if _, err := missing.Patient(ctx, "fb-plain"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("missing registration must deny, got %v", err)
	}

	unwired := newResolver(true, nil)
	if _, err := unwired.Patient(ctx, "fb-plain"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("missing lookup must deny, got %v", err)
	}
}
