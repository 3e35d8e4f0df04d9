package registration

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("registration not found")
	ErrExists   = errors.New("registration already exists")
)

// Registration states. A record starts pending and only moves to approved or
// rejected; a decided record is never returned to pending.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Registration is the approval record kept for every patient signup, keyed by
// the Firebase UID.
type Registration struct {
	UID        string     `json:"uid" firestore:"uid"`
	Name       string     `json:"name" firestore:"name"`
	Email      string     `json:"email" firestore:"email"`
	Status     string     `json:"status" firestore:"status"`
	CreatedAt  time.Time  `json:"createdAt" firestore:"createdAt"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty" firestore:"approvedAt,omitempty"`
	ApprovedBy string     `json:"approvedBy,omitempty" firestore:"approvedBy,omitempty"`
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	UID   string `json:"uid" validate:"required"`
	Name  string `json:"name"`
	Email string `json:"email" validate:"required,email"`
}

// DecideInput is the doctor's approve/reject payload.
type DecideInput struct {
	UID      string `json:"uid" validate:"required"`
	Approved *bool  `json:"approved" validate:"required"`
}

// Decision reports the stored outcome and whether the identity provider
// claims were updated.
type Decision struct {
	Registration Registration `json:"registration"`
	ClaimsSynced bool         `json:"claimsSynced"`
}
