package http

import (
	"errors"
	"net/http"

	"github.com/sorrisoclinic/clinic-api/internal/booking"
	"github.com/sorrisoclinic/clinic-api/internal/patient"
	"github.com/sorrisoclinic/clinic-api/internal/registration"
	"github.com/sorrisoclinic/clinic-api/internal/util"
)

// writeServiceError maps domain errors onto the envelope. Unknown errors are
// logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var verr *util.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteValidation(w, verr)
	case errors.Is(err, booking.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking not found", nil)
	case errors.Is(err, patient.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "patient not found", nil)
	case errors.Is(err, patient.ErrRecordNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "record not found", nil)
	case errors.Is(err, registration.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "registration not found", nil)
	case errors.Is(err, patient.ErrAmbiguous):
		WriteError(w, http.StatusConflict, "CONFLICT", "more than one patient profile matches this account", nil)
	case errors.Is(err, patient.ErrConflict):
		WriteError(w, http.StatusConflict, "CONFLICT", "patient already exists", nil)
	default:
		WriteInternal(w, r, err, msg)
	}
}
