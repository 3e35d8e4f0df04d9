package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sorrisoclinic/clinic-api/internal/util"
)

const maxBodyBytes = 1 << 20

// SuccessEnvelope wraps successful responses.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope wraps failures.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody is the normalized error payload. Details only ever carries
// validation field lists.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON writes a success envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// WriteValidation writes a 400 with the offending field lists.
func WriteValidation(w http.ResponseWriter, verr *util.ValidationError) {
	msg := "invalid request"
	if len(verr.Missing) > 0 {
		msg = "missing required fields"
	}
	WriteError(w, http.StatusBadRequest, "VALIDATION", msg, verr)
}

// WriteInternal logs err and writes a generic 500.
func WriteInternal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	reqLogger(r).Error().Err(err).Msg(msg)
	WriteError(w, http.StatusInternalServerError, "INTERNAL", msg, nil)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return false
	}
	return true
}

func reqLogger(r *http.Request) *zerolog.Logger {
	l := log.With().Str("path", r.URL.Path).Str("request_id", chimiddleware.GetReqID(r.Context())).Logger()
	return &l
}
