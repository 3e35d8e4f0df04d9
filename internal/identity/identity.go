// Package identity resolves a bearer token into a single caller identity.
// Doctor tokens are tried first, then Firebase ID tokens. Every guard is a
// predicate over the resolved Identity.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"

	"github.com/sorrisoclinic/clinic-api/internal/auth"
	"github.com/sorrisoclinic/clinic-api/internal/registration"
)

var (
	// ErrUnauthenticated means no usable credential was presented.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the caller is known but not allowed.
	ErrForbidden = errors.New("access denied")
	// ErrNotApproved wraps ErrForbidden for patients still waiting on, or
	// refused by, the approval workflow.
	ErrNotApproved = fmt.Errorf("%w: registration not approved", ErrForbidden)
)

// Kind tags the resolved identity.
type Kind int

const (
	Anonymous Kind = iota
	Doctor
	Patient
)

func (k Kind) String() string {
	switch k {
	case Doctor:
		return "doctor"
	case Patient:
		return "patient"
	default:
		return "anonymous"
	}
}

// Sources of a resolved identity.
const (
	SourceNone     = ""
	SourceToken    = "token"
	SourceFirebase = "firebase"
)

// Identity is the caller behind a request.
type Identity struct {
	Kind          Kind   `json:"kind"`
	UID           string `json:"uid,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"emailVerified,omitempty"`
	Approved      *bool  `json:"approved,omitempty"`
	Source        string `json:"source,omitempty"`
}

// IsDoctor reports whether id carries doctor rights.
func (id Identity) IsDoctor() bool { return id.Kind == Doctor }

// VerifiedEmail returns the email only when the identity provider verified it.
// Doctor tokens are issued against the configured address and count as verified.
func (id Identity) VerifiedEmail() string {
	if id.Source == SourceToken || id.EmailVerified {
		return id.Email
	}
	return ""
}

// DoctorVerifier validates doctor tokens.
type DoctorVerifier interface {
	Verify(ctx context.Context, token string) (*auth.DoctorClaims, error)
}

// IDTokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// ApprovalLookup returns the registration status for a UID.
type ApprovalLookup interface {
	Status(ctx context.Context, uid string) (string, error)
}

// Resolver turns bearer tokens into identities.
type Resolver struct {
	doctors         DoctorVerifier
	firebase        IDTokenVerifier
	approvals       ApprovalLookup
	requireApproval bool
	log             zerolog.Logger
}

// Config wires a Resolver. Firebase and Approvals may be nil.
type Config struct {
	Doctors         DoctorVerifier
	Firebase        IDTokenVerifier
	Approvals       ApprovalLookup
	RequireApproval bool
	Logger          zerolog.Logger
}

// NewResolver creates the resolver.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{
		doctors:         cfg.Doctors,
		firebase:        cfg.Firebase,
		approvals:       cfg.Approvals,
		requireApproval: cfg.RequireApproval,
		log:             cfg.Logger,
	}
}

// RequireApproval reports whether the patient approval gate is on.
func (r *Resolver) RequireApproval() bool { return r.requireApproval }

// Resolve maps bearer to an identity. An empty bearer is Anonymous with no
// error; a bearer that verifies nowhere yields ErrUnauthenticated; a valid
// Firebase identity with an unknown role yields ErrForbidden.
func (r *Resolver) Resolve(ctx context.Context, bearer string) (Identity, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return Identity{}, nil
	}

	if r.doctors != nil {
		if claims, err := r.doctors.Verify(ctx, bearer); err == nil {
			return Identity{Kind: Doctor, Email: claims.Email, Source: SourceToken}, nil
		}
	}

	if r.firebase == nil {
		return Identity{}, ErrUnauthenticated
	}
	tok, err := r.firebase.VerifyIDToken(ctx, bearer)
	if err != nil {
		r.log.Debug().Err(err).Msg("firebase id token rejected")
		return Identity{}, ErrUnauthenticated
	}

	verified, _ := tok.Claims["email_verified"].(bool)
	id := Identity{
		UID:           tok.UID,
		Email:         stringClaim(tok.Claims, "email"),
		EmailVerified: verified,
		Source:        SourceFirebase,
	}
	switch role := tok.Claims["role"]; role {
	case "doctor":
		id.Kind = Doctor
	case nil, "", "patient":
		id.Kind = Patient
		if approved, ok := tok.Claims["approved"].(bool); ok {
			id.Approved = &approved
		}
	default:
		r.log.Warn().Str("uid", tok.UID).Interface("role", role).Msg("unknown role claim")
		return Identity{}, ErrForbidden
	}
	return id, nil
}

// Doctor accepts doctor tokens and Firebase identities with role=doctor.
func (r *Resolver) Doctor(ctx context.Context, bearer string) (Identity, error) {
	id, err := r.Resolve(ctx, bearer)
	if err != nil {
		return Identity{}, err
	}
	switch id.Kind {
	case Doctor:
		return id, nil
	case Anonymous:
		return Identity{}, ErrUnauthenticated
	default:
		return Identity{}, ErrForbidden
	}
}

// OptionalDoctor returns the doctor identity when there is one and Anonymous
// otherwise. It never fails.
func (r *Resolver) OptionalDoctor(ctx context.Context, bearer string) Identity {
	id, err := r.Resolve(ctx, bearer)
	if err != nil || id.Kind != Doctor {
		return Identity{}
	}
	return id
}

// Patient accepts Firebase identities with role absent or "patient". An
// approved=false claim is refused. With the approval gate on, a caller
// without approved=true must have an approved registration record; any
// failure to establish that is a refusal.
func (r *Resolver) Patient(ctx context.Context, bearer string) (Identity, error) {
	id, err := r.Resolve(ctx, bearer)
	if err != nil {
		return Identity{}, err
	}
	switch id.Kind {
	case Anonymous:
		return Identity{}, ErrUnauthenticated
	case Doctor:
		return Identity{}, ErrForbidden
	}

	if id.Approved != nil && !*id.Approved {
		return Identity{}, ErrNotApproved
	}
	if !r.requireApproval || (id.Approved != nil && *id.Approved) {
		return id, nil
	}

	if r.approvals == nil {
		r.log.Error().Str("uid", id.UID).Msg("approval required but no registration lookup configured")
		return Identity{}, ErrNotApproved
	}
	status, err := r.approvals.Status(ctx, id.UID)
	if err != nil {
		if !errors.Is(err, registration.ErrNotFound) {
			r.log.Error().Err(err).Str("uid", id.UID).Msg("approval lookup failed")
		}
		return Identity{}, ErrNotApproved
	}
	if status != registration.StatusApproved {
		return Identity{}, ErrNotApproved
	}

	approved := true
	id.Approved = &approved
	return id, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return strings.ToLower(strings.TrimSpace(v))
}
