package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sorrisoclinic/clinic-api/internal/identity"
)

type contextKey string

const ContextKeyIdentity contextKey = "identity"

// RequireDoctor admits doctor tokens and Firebase identities with role=doctor.
func RequireDoctor(res *identity.Resolver) func(http.Handler) http.Handler {
	return guard(res.Doctor)
}

// RequirePatient admits Firebase patient identities that pass the approval gate.
func RequirePatient(res *identity.Resolver) func(http.Handler) http.Handler {
	return guard(res.Patient)
}

// OptionalDoctor never rejects; handlers read GetIdentity to pick the view.
func OptionalDoctor(res *identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := res.OptionalDoctor(r.Context(), BearerToken(r))
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func guard(check func(ctx context.Context, bearer string) (identity.Identity, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := check(r.Context(), BearerToken(r))
			if err != nil {
				writeGuardError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// BearerToken extracts the token from an Authorization: Bearer header.
func BearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id identity.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, id)
}

// GetIdentity returns the identity set by a guard, Anonymous if none.
func GetIdentity(ctx context.Context) identity.Identity {
	id, _ := ctx.Value(ContextKeyIdentity).(identity.Identity)
	return id
}

func writeGuardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrNotApproved):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "registration not approved")
	case errors.Is(err, identity.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "access denied")
	default:
		writeError(w, http.StatusUnauthorized, "AUTH", "authentication required")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
