package booking

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sorrisoclinic/clinic-api/internal/util"
)

type repository interface {
	Create(ctx context.Context, b Booking) (Booking, error)
	Get(ctx context.Context, id string) (Booking, error)
	List(ctx context.Context, limit int) ([]Booking, error)
	ListByEmail(ctx context.Context, email string, limit int) ([]Booking, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// Notifier delivers the new-booking email. Enabled reports whether the
// transport was verified at startup.
type Notifier interface {
	Enabled() bool
	BookingCreated(ctx context.Context, b Booking) error
}

// Service holds booking rules.
type Service struct {
	repo          repository
	notifier      Notifier
	log           zerolog.Logger
	notifyTimeout time.Duration
	wg            sync.WaitGroup
}

// NewService creates the service. notifier may be nil.
func NewService(repo repository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		notifier:      notifier,
		log:           logger,
		notifyTimeout: 30 * time.Second,
	}
}

// Create validates and stores a booking. When mail is enabled the booking is
// stored as pending and the notification runs in the background; its outcome
// is written back to emailStatus and never affects the caller.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Booking, error) {
	input = normalizeCreate(input)
	if err := util.ValidateStruct(input); err != nil {
		return nil, err
	}

	b := Booking{
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		Date:        input.Date,
		Time:        input.Time,
		Address:     input.Address,
		Service:     input.Service,
		Reasons:     input.Reasons,
		Notes:       input.Notes,
		EmailStatus: EmailDisabled,
		CreatedAt:   util.Now(),
	}
	if s.notifier != nil && s.notifier.Enabled() {
		b.EmailStatus = EmailPending
	}

	created, err := s.repo.Create(ctx, b)
	if err != nil {
		return nil, err
	}

	if created.EmailStatus == EmailPending {
		s.dispatch(created)
	}

	return &created, nil
}

func (s *Service) dispatch(b Booking) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		status := EmailSent
		if err := s.notifier.BookingCreated(ctx, b); err != nil {
			status = EmailError
			s.log.Error().Err(err).Str("booking_id", b.ID).Msg("booking notification failed")
		}

		if err := s.repo.Update(ctx, b.ID, map[string]any{"emailStatus": status}); err != nil {
			s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("could not record email status")
		}
	}()
}

// Wait blocks until in-flight notifications finish or ctx ends.
func (s *Service) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// List returns the doctor view (up to 500, unmasked) or the public view
// (latest 10, masked).
func (s *Service) List(ctx context.Context, privileged bool) ([]Booking, error) {
	if privileged {
		return s.repo.List(ctx, DoctorListLimit)
	}

	items, err := s.repo.List(ctx, PublicListLimit)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = Public(items[i])
	}
	return items, nil
}

// ListForEmail returns the bookings a patient submitted.
func (s *Service) ListForEmail(ctx context.Context, email string) ([]Booking, error) {
	if strings.TrimSpace(email) == "" {
		return []Booking{}, nil
	}
	return s.repo.ListByEmail(ctx, email, SelfListLimit)
}

// Get loads a booking.
func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Update applies a partial change.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Booking, error) {
	fields := map[string]any{}
	invalid := &util.ValidationError{}

	setRequired := func(name string, val *string) {
		if val == nil {
			return
		}
		v := strings.TrimSpace(*val)
		if v == "" {
			invalid.Missing = append(invalid.Missing, name)
			return
		}
		fields[name] = v
	}
	setRequired("name", input.Name)
	setRequired("phone", input.Phone)
	setRequired("date", input.Date)
	setRequired("time", input.Time)
	setRequired("address", input.Address)

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != "" && util.ValidateEmail(email) != nil {
			invalid.Invalid = append(invalid.Invalid, "email")
		} else {
			fields["email"] = email
		}
	}
	if input.Service != nil {
		svc := strings.TrimSpace(*input.Service)
		if svc == "" {
			svc = DefaultService
		}
		fields["service"] = svc
	}
	if input.Reasons != nil {
		fields["reasons"] = cleanReasons(*input.Reasons)
	}
	if input.Notes != nil {
		fields["notes"] = strings.TrimSpace(*input.Notes)
	}

	if len(invalid.Missing) > 0 || len(invalid.Invalid) > 0 {
		return nil, invalid
	}

	if len(fields) > 0 {
		fields["updatedAt"] = util.Now()
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, id)
}

// Delete removes a booking and returns what was removed.
func (s *Service) Delete(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &b, nil
}

func normalizeCreate(in CreateInput) CreateInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.Address = strings.TrimSpace(in.Address)
	in.Service = strings.TrimSpace(in.Service)
	if in.Service == "" {
		in.Service = DefaultService
	}
	in.Reasons = cleanReasons(in.Reasons)
	in.Notes = strings.TrimSpace(in.Notes)
	return in
}

func cleanReasons(reasons []string) []string {
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
