package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/sorrisoclinic/clinic-api/internal/http/middleware"
	"github.com/sorrisoclinic/clinic-api/internal/registration"
	"github.com/sorrisoclinic/clinic-api/internal/util"
)

// Register records a patient signup as pending.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload registration.RegisterInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	reg, created, err := h.registrations.Register(r.Context(), payload)
	if err != nil {
		writeServiceError(w, r, err, "could not register")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, reg)
}

// RegistrationStatus returns the approval status of a UID.
func (h *Handler) RegistrationStatus(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	status, err := h.registrations.Status(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err, "could not load registration")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"uid": uid, "status": status})
}

// ListPending lists registrations awaiting a decision.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	items, err := h.registrations.ListPending(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "could not list registrations")
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

// Approve approves or rejects a registration.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var payload registration.DecideInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := util.ValidateStruct(payload); err != nil {
		writeServiceError(w, r, err, "could not decide registration")
		return
	}

	doctor := httpmiddleware.GetIdentity(r.Context())
	decision, err := h.registrations.Decide(r.Context(), payload.UID, *payload.Approved, doctor.Email)
	if err != nil {
		writeServiceError(w, r, err, "could not decide registration")
		return
	}
	WriteJSON(w, http.StatusOK, decision)
}
