package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sorrisoclinic/clinic-api/internal/booking"
	httpmiddleware "github.com/sorrisoclinic/clinic-api/internal/http/middleware"
)

// ListBookings serves the full list to doctors and the masked public view to
// everyone else.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	privileged := httpmiddleware.GetIdentity(r.Context()).IsDoctor()
	items, err := h.bookings.List(r.Context(), privileged)
	if err != nil {
		writeServiceError(w, r, err, "could not list bookings")
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

// CreateBooking accepts the public booking form.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var payload booking.CreateInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	b, err := h.bookings.Create(r.Context(), payload)
	if err != nil {
		writeServiceError(w, r, err, "could not create booking")
		return
	}
	WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.bookings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "could not load booking")
		return
	}
	WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var payload booking.UpdateInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	b, err := h.bookings.Update(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		writeServiceError(w, r, err, "could not update booking")
		return
	}
	WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.bookings.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "could not delete booking")
		return
	}
	WriteJSON(w, http.StatusOK, b)
}
