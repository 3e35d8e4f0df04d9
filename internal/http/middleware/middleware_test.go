package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"

	"github.com/sorrisoclinic/clinic-api/internal/auth"
	"github.com/sorrisoclinic/clinic-api/internal/identity"
)

type stubDoctors struct{}

func (stubDoctors) Verify(ctx context.Context, token string) (*auth.DoctorClaims, error) {
	if token == "doctor-jwt" {
		return &auth.DoctorClaims{Role: auth.RoleDoctor, Email: "doc@clinic.com"}, nil
	}
	return nil, auth.ErrInvalidToken
}

type stubFirebase struct{}

func (stubFirebase) VerifyIDToken(ctx context.Context, token string) (*fbauth.Token, error) {
	switch token {
	case "fb-patient":
		return &fbauth.Token{UID: "p1", Claims: map[string]interface{}{"email": "p1@b.com"}}, nil
	case "fb-unapproved":
		return &fbauth.Token{UID: "p2", Claims: map[string]interface{}{"approved": false}}, nil
	}
	return nil, errors.New("bad token")
}

func testResolver() *identity.Resolver {
	return identity.NewResolver(identity.Config{
		Doctors:  stubDoctors{},
		Firebase: stubFirebase{},
		Logger:   zerolog.Nop(),
	})
}

func echoIdentity(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	_ = json.NewEncoder(w).Encode(map[string]string{"kind": id.Kind.String(), "email": id.Email})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Error.Code
}

func TestGuards(t *testing.T) {
	res := testResolver()

	tests := []struct {
		name   string
		mw     func(http.Handler) http.Handler
		bearer string
		status int
		code   string
	}{
		{"doctor ok", RequireDoctor(res), "doctor-jwt", http.StatusOK, ""},
		{"doctor missing token", RequireDoctor(res), "", http.StatusUnauthorized, "AUTH"},
		{"doctor bad token", RequireDoctor(res), "nope", http.StatusUnauthorized, "AUTH"},
		{"doctor as patient", RequireDoctor(res), "fb-patient", http.StatusForbidden, "FORBIDDEN"},
		{"patient ok", RequirePatient(res), "fb-patient", http.StatusOK, ""},
		{"patient unapproved", RequirePatient(res), "fb-unapproved", http.StatusForbidden, "FORBIDDEN"},
		{"patient with doctor token", RequirePatient(res), "doctor-jwt", http.StatusForbidden, "FORBIDDEN"},
		{"optional anonymous", OptionalDoctor(res), "", http.StatusOK, ""},
		{"optional bad token", OptionalDoctor(res), "nope", http.StatusOK, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tc.bearer)
			}
			rec := httptest.NewRecorder()
			tc.mw(http.HandlerFunc(echoIdentity)).ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if tc.code != "" && errorCode(t, rec) != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, rec.Body.String())
			}
		})
	}
}

func TestOptionalDoctorSetsIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer doctor-jwt")
	rec := httptest.NewRecorder()
	OptionalDoctor(testResolver())(http.HandlerFunc(echoIdentity)).ServeHTTP(rec, req)

	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["kind"] != "doctor" || body["email"] != "doc@clinic.com" {
		t.Fatalf("unexpected identity %v", body)
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.clinic.com", "*.clinic.dev"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://app.clinic.com", true},
		{"https://staging.clinic.dev", true},
		{"https://clinic.dev", false},
		{"https://evil.com", false},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/bookings", nil)
		req.Header.Set("Origin", tc.origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("%s: expected 204 preflight, got %d", tc.origin, rec.Code)
		}
		got := rec.Header().Get("Access-Control-Allow-Origin") == tc.origin
		if got != tc.allowed {
			t.Fatalf("%s: allowed=%v, want %v", tc.origin, got, tc.allowed)
		}
	}
}

func TestIPRateLimit(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	h := IPRateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
		if i < 2 && last.Code != http.StatusOK {
			t.Fatalf("request %d should pass, got %d", i, last.Code)
		}
	}
	if last.Code != http.StatusTooManyRequests || errorCode(t, last) != "RATE_LIMIT" {
		t.Fatalf("expected 429 after burst, got %d", last.Code)
	}
	// one token per 1000s: the caller is told to wait far longer than a second
	if retry, err := strconv.Atoi(last.Header().Get("Retry-After")); err != nil || retry < 100 {
		t.Fatalf("unexpected Retry-After %q", last.Header().Get("Retry-After"))
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("other IP should pass, got %d", rec.Code)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError || errorCode(t, rec) != "INTERNAL" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}
