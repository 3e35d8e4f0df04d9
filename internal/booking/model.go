package booking

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("booking not found")
)

// Email delivery states recorded on each booking.
const (
	EmailDisabled = "disabled"
	EmailPending  = "pending"
	EmailSent     = "sent"
	EmailError    = "error"
)

const (
	DefaultService = "GENERAL"

	// PublicListLimit and DoctorListLimit bound the two listing views.
	PublicListLimit = 10
	DoctorListLimit = 500
	SelfListLimit   = 100
)

// Booking is an appointment request submitted through the public form.
type Booking struct {
	ID          string     `json:"id" firestore:"-"`
	Name        string     `json:"name" firestore:"name"`
	Email       string     `json:"email,omitempty" firestore:"email"`
	Phone       string     `json:"phone" firestore:"phone"`
	Date        string     `json:"date" firestore:"date"`
	Time        string     `json:"time" firestore:"time"`
	Address     string     `json:"address,omitempty" firestore:"address"`
	Service     string     `json:"service" firestore:"service"`
	Reasons     []string   `json:"reasons,omitempty" firestore:"reasons"`
	Notes       string     `json:"notes,omitempty" firestore:"notes"`
	EmailStatus string     `json:"emailStatus" firestore:"emailStatus"`
	CreatedAt   time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty"`
}

// CreateInput is the public form payload.
type CreateInput struct {
	Name    string   `json:"name" validate:"required"`
	Email   string   `json:"email" validate:"omitempty,email"`
	Phone   string   `json:"phone" validate:"required"`
	Date    string   `json:"date" validate:"required"`
	Time    string   `json:"time" validate:"required"`
	Address string   `json:"address" validate:"required"`
	Service string   `json:"service"`
	Reasons []string `json:"reasons"`
	Notes   string   `json:"notes"`
}

// UpdateInput patches a booking; nil fields are left untouched.
type UpdateInput struct {
	Name    *string   `json:"name"`
	Email   *string   `json:"email"`
	Phone   *string   `json:"phone"`
	Date    *string   `json:"date"`
	Time    *string   `json:"time"`
	Address *string   `json:"address"`
	Service *string   `json:"service"`
	Reasons *[]string `json:"reasons"`
	Notes   *string   `json:"notes"`
}
