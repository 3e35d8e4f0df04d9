package http

import (
	"net/http"

	httpmiddleware "github.com/sorrisoclinic/clinic-api/internal/http/middleware"
)

// MyPatient returns the caller's own patient profile.
func (h *Handler) MyPatient(w http.ResponseWriter, r *http.Request) {
	id := httpmiddleware.GetIdentity(r.Context())
	p, err := h.patients.FindSelf(r.Context(), id.UID, id.VerifiedEmail())
	if err != nil {
		writeServiceError(w, r, err, "could not load profile")
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// MyRecords returns the caller's medical records.
func (h *Handler) MyRecords(w http.ResponseWriter, r *http.Request) {
	id := httpmiddleware.GetIdentity(r.Context())
	items, err := h.patients.SelfRecords(r.Context(), id.UID, id.VerifiedEmail())
	if err != nil {
		writeServiceError(w, r, err, "could not load records")
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

// MyBookings returns bookings submitted with the caller's verified email.
func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	id := httpmiddleware.GetIdentity(r.Context())
	items, err := h.bookings.ListForEmail(r.Context(), id.VerifiedEmail())
	if err != nil {
		writeServiceError(w, r, err, "could not load bookings")
		return
	}
	WriteJSON(w, http.StatusOK, items)
}
