package patient

import (
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("patient not found")
	ErrRecordNotFound = errors.New("record not found")
	// ErrAmbiguous is returned when a self-service email lookup matches more
	// than one patient.
	ErrAmbiguous = errors.New("more than one patient matches this email")
	ErrConflict  = errors.New("patient already exists for this uid")
)

const listLimit = 500

// Patient is a clinic profile. When UID is set the document id equals the
// Firebase UID.
type Patient struct {
	ID             string     `json:"id" firestore:"-"`
	UID            string     `json:"uid,omitempty" firestore:"uid,omitempty"`
	Name           string     `json:"name" firestore:"name"`
	Email          string     `json:"email,omitempty" firestore:"email"`
	Phone          string     `json:"phone,omitempty" firestore:"phone"`
	Address        string     `json:"address,omitempty" firestore:"address"`
	DateOfBirth    string     `json:"dateOfBirth,omitempty" firestore:"dateOfBirth"`
	Gender         string     `json:"gender,omitempty" firestore:"gender"`
	Allergies      []string   `json:"allergies,omitempty" firestore:"allergies"`
	MedicalHistory string     `json:"medicalHistory,omitempty" firestore:"medicalHistory"`
	Notes          string     `json:"notes,omitempty" firestore:"notes"`
	CreatedAt      time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty"`
}

// Record is one treatment entry under patients/<id>/records.
type Record struct {
	ID           string     `json:"id" firestore:"-"`
	PatientID    string     `json:"patientId" firestore:"patientId"`
	Date         string     `json:"date" firestore:"date"`
	Treatment    string     `json:"treatment" firestore:"treatment"`
	Diagnosis    string     `json:"diagnosis,omitempty" firestore:"diagnosis"`
	Notes        string     `json:"notes,omitempty" firestore:"notes"`
	Prescription string     `json:"prescription,omitempty" firestore:"prescription"`
	CreatedAt    time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty"`
}

// CreateInput is the doctor's new-patient payload.
type CreateInput struct {
	UID            string   `json:"uid"`
	Name           string   `json:"name" validate:"required"`
	Email          string   `json:"email" validate:"omitempty,email"`
	Phone          string   `json:"phone"`
	Address        string   `json:"address"`
	DateOfBirth    string   `json:"dateOfBirth"`
	Gender         string   `json:"gender"`
	Allergies      []string `json:"allergies"`
	MedicalHistory string   `json:"medicalHistory"`
	Notes          string   `json:"notes"`
}

// UpdateInput patches a patient; nil fields are left untouched.
type UpdateInput struct {
	UID            *string   `json:"uid"`
	Name           *string   `json:"name"`
	Email          *string   `json:"email"`
	Phone          *string   `json:"phone"`
	Address        *string   `json:"address"`
	DateOfBirth    *string   `json:"dateOfBirth"`
	Gender         *string   `json:"gender"`
	Allergies      *[]string `json:"allergies"`
	MedicalHistory *string   `json:"medicalHistory"`
	Notes          *string   `json:"notes"`
}

// RecordInput creates a record.
type RecordInput struct {
	Date         string `json:"date" validate:"required"`
	Treatment    string `json:"treatment" validate:"required"`
	Diagnosis    string `json:"diagnosis"`
	Notes        string `json:"notes"`
	Prescription string `json:"prescription"`
}

// RecordUpdate patches a record.
type RecordUpdate struct {
	Date         *string `json:"date"`
	Treatment    *string `json:"treatment"`
	Diagnosis    *string `json:"diagnosis"`
	Notes        *string `json:"notes"`
	Prescription *string `json:"prescription"`
}
