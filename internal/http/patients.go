package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sorrisoclinic/clinic-api/internal/patient"
)

func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	items, err := h.patients.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "could not list patients")
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var payload patient.CreateInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	p, err := h.patients.Create(r.Context(), payload)
	if err != nil {
		writeServiceError(w, r, err, "could not create patient")
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	p, err := h.patients.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "could not load patient")
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	var payload patient.UpdateInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	p, err := h.patients.Update(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		writeServiceError(w, r, err, "could not update patient")
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.patients.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "could not delete patient")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	items, err := h.patients.ListRecords(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "could not list records")
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var payload patient.RecordInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	rec, err := h.patients.CreateRecord(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		writeServiceError(w, r, err, "could not create record")
		return
	}
	WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.patients.GetRecord(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "rid"))
	if err != nil {
		writeServiceError(w, r, err, "could not load record")
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	var payload patient.RecordUpdate
	if !decodeJSON(w, r, &payload) {
		return
	}
	rec, err := h.patients.UpdateRecord(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "rid"), payload)
	if err != nil {
		writeServiceError(w, r, err, "could not update record")
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	patientID, rid := chi.URLParam(r, "id"), chi.URLParam(r, "rid")
	if err := h.patients.DeleteRecord(r.Context(), patientID, rid); err != nil {
		writeServiceError(w, r, err, "could not delete record")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"id": rid, "status": "deleted"})
}
