package http

import (
	"errors"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"

	httpmiddleware "github.com/sorrisoclinic/clinic-api/internal/http/middleware"
	"github.com/sorrisoclinic/clinic-api/internal/service"
	"github.com/sorrisoclinic/clinic-api/internal/util"
)

// Login checks the doctor credential and issues a doctor token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	verr := &util.ValidationError{}
	if strings.TrimSpace(payload.Email) == "" {
		verr.Missing = append(verr.Missing, "email")
	}
	if payload.Password == "" {
		verr.Missing = append(verr.Missing, "password")
	}
	if len(verr.Missing) > 0 {
		WriteValidation(w, verr)
		return
	}

	result, err := h.auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotConfigured):
			WriteError(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", "doctor login is not configured", nil)
		case errors.Is(err, service.ErrInvalidCredentials):
			WriteError(w, http.StatusUnauthorized, "AUTH", "invalid credentials", nil)
		default:
			WriteInternal(w, r, err, "could not sign in")
		}
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Validate reports whether the presented doctor token is valid.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	claims, err := h.auth.Verify(r.Context(), httpmiddleware.BearerToken(r))
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid or expired token", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"valid":     true,
		"role":      claims.Role,
		"email":     claims.Email,
		"expiresAt": claims.ExpiresAt.Time,
	})
}

// Logout revokes the presented doctor token when a denylist is configured.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	revoked, err := h.auth.Logout(r.Context(), httpmiddleware.BearerToken(r))
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			WriteError(w, http.StatusUnauthorized, "AUTH", "invalid or expired token", nil)
			return
		}
		WriteInternal(w, r, err, "could not revoke token")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"status": "logged_out", "revoked": revoked})
}

// SetDoctorClaims grants role=doctor to a Firebase user. Only an existing
// doctor can call it.
func (h *Handler) SetDoctorClaims(w http.ResponseWriter, r *http.Request) {
	if h.claims == nil {
		WriteError(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", "identity provider is not configured", nil)
		return
	}

	var payload struct {
		UID string `json:"uid"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	uid := strings.TrimSpace(payload.UID)
	if uid == "" {
		WriteValidation(w, &util.ValidationError{Missing: []string{"uid"}})
		return
	}

	if err := h.claims.SetCustomUserClaims(r.Context(), uid, map[string]interface{}{"role": "doctor"}); err != nil {
		if fbauth.IsUserNotFound(err) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		WriteInternal(w, r, err, "could not set claims")
		return
	}

	by := httpmiddleware.GetIdentity(r.Context()).Email
	reqLogger(r).Info().Str("uid", uid).Str("by", by).Msg("doctor claims granted")
	WriteJSON(w, http.StatusOK, map[string]string{"uid": uid, "role": "doctor"})
}
