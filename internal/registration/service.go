package registration

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sorrisoclinic/clinic-api/internal/util"
)

const pendingListLimit = 500

type repository interface {
	Get(ctx context.Context, uid string) (Registration, error)
	Insert(ctx context.Context, reg Registration) error
	Update(ctx context.Context, uid string, fields map[string]any) error
	ListByStatus(ctx context.Context, status string, limit int) ([]Registration, error)
}

// ClaimsSetter writes custom claims on an identity provider user.
// *auth.Client from the Firebase Admin SDK satisfies it.
type ClaimsSetter interface {
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
}

// Service runs the patient approval workflow.
type Service struct {
	repo   repository
	claims ClaimsSetter
	log    zerolog.Logger
	now    func() time.Time
}

// NewService creates the service. claims may be nil when Firebase is not
// configured; decisions are then stored without a claims update.
func NewService(repo repository, claims ClaimsSetter, logger zerolog.Logger) *Service {
	return &Service{repo: repo, claims: claims, log: logger, now: util.Now}
}

// Register creates a pending record for a new signup. If a record already
// exists for the UID it is returned unchanged with created=false.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Registration, bool, error) {
	input.UID = strings.TrimSpace(input.UID)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := util.ValidateStruct(input); err != nil {
		return nil, false, err
	}

	reg := Registration{
		UID:       input.UID,
		Name:      input.Name,
		Email:     input.Email,
		Status:    StatusPending,
		CreatedAt: s.now(),
	}
	err := s.repo.Insert(ctx, reg)
	if err == nil {
		return &reg, true, nil
	}
	if !errors.Is(err, ErrExists) {
		return nil, false, err
	}

	existing, err := s.repo.Get(ctx, input.UID)
	if err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

// Decide approves or rejects a registration on behalf of doctorEmail and then
// syncs the role:patient / approved claims. A claims failure is logged and
// reported in the Decision, the stored status stands.
func (s *Service) Decide(ctx context.Context, uid string, approved bool, doctorEmail string) (*Decision, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, &util.ValidationError{Missing: []string{"uid"}}
	}

	reg, err := s.repo.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	status := StatusRejected
	if approved {
		status = StatusApproved
	}
	decidedAt := s.now()
	fields := map[string]any{
		"status":     status,
		"approvedAt": decidedAt,
		"approvedBy": doctorEmail,
	}
	if err := s.repo.Update(ctx, uid, fields); err != nil {
		return nil, err
	}

	reg.Status = status
	reg.ApprovedAt = &decidedAt
	reg.ApprovedBy = doctorEmail

	decision := &Decision{Registration: reg}
	if s.claims != nil {
		claims := map[string]interface{}{"role": "patient", "approved": approved}
		if err := s.claims.SetCustomUserClaims(ctx, uid, claims); err != nil {
			s.log.Warn().Err(err).Str("uid", uid).Msg("could not sync approval claims")
		} else {
			decision.ClaimsSynced = true
		}
	}

	s.log.Info().Str("uid", uid).Str("status", status).Str("by", doctorEmail).Msg("registration decided")
	return decision, nil
}

// Get returns the record for uid.
func (s *Service) Get(ctx context.Context, uid string) (*Registration, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, ErrNotFound
	}
	reg, err := s.repo.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Status returns the current status string for uid.
func (s *Service) Status(ctx context.Context, uid string) (string, error) {
	reg, err := s.Get(ctx, uid)
	if err != nil {
		return "", err
	}
	return reg.Status, nil
}

// ListPending returns registrations awaiting a decision.
func (s *Service) ListPending(ctx context.Context) ([]Registration, error) {
	return s.repo.ListByStatus(ctx, StatusPending, pendingListLimit)
}
