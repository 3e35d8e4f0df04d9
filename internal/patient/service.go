package patient

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sorrisoclinic/clinic-api/internal/util"
)

type repository interface {
	Create(ctx context.Context, p Patient) (Patient, error)
	Get(ctx context.Context, id string) (Patient, error)
	List(ctx context.Context, limit int) ([]Patient, error)
	FindByEmail(ctx context.Context, email string, limit int) ([]Patient, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	CreateRecord(ctx context.Context, rec Record) (Record, error)
	GetRecord(ctx context.Context, patientID, id string) (Record, error)
	ListRecords(ctx context.Context, patientID string, limit int) ([]Record, error)
	UpdateRecord(ctx context.Context, patientID, id string, fields map[string]any) error
	DeleteRecord(ctx context.Context, patientID, id string) error
}

// Service manages patient profiles and medical records.
type Service struct {
	repo repository
	log  zerolog.Logger
}

// NewService creates the service.
func NewService(repo repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, log: logger}
}

// Create stores a new patient. A UID, when given, becomes the document id and
// must not already be taken (ErrConflict).
func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	in.UID = strings.TrimSpace(in.UID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}

	p := Patient{
		UID:            in.UID,
		Name:           in.Name,
		Email:          in.Email,
		Phone:          strings.TrimSpace(in.Phone),
		Address:        strings.TrimSpace(in.Address),
		DateOfBirth:    strings.TrimSpace(in.DateOfBirth),
		Gender:         strings.TrimSpace(in.Gender),
		Allergies:      cleanList(in.Allergies),
		MedicalHistory: strings.TrimSpace(in.MedicalHistory),
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      util.Now(),
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Service) List(ctx context.Context) ([]Patient, error) {
	return s.repo.List(ctx, listLimit)
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update applies a partial change. Name cannot be blanked.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Patient, error) {
	fields := map[string]any{}
	verr := &util.ValidationError{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			verr.Missing = append(verr.Missing, "name")
		} else {
			fields["name"] = name
		}
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != "" && util.ValidateEmail(email) != nil {
			verr.Invalid = append(verr.Invalid, "email")
		} else {
			fields["email"] = email
		}
	}
	setTrimmed(fields, "uid", in.UID)
	setTrimmed(fields, "phone", in.Phone)
	setTrimmed(fields, "address", in.Address)
	setTrimmed(fields, "dateOfBirth", in.DateOfBirth)
	setTrimmed(fields, "gender", in.Gender)
	setTrimmed(fields, "medicalHistory", in.MedicalHistory)
	setTrimmed(fields, "notes", in.Notes)
	if in.Allergies != nil {
		fields["allergies"] = cleanList(*in.Allergies)
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return nil, verr
	}
	if len(fields) > 0 {
		fields["updatedAt"] = util.Now()
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// Delete removes the patient and, best effort, its records.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	records, err := s.repo.ListRecords(ctx, id, 0)
	if err != nil {
		s.log.Warn().Err(err).Str("patient_id", id).Msg("could not list records for delete")
	}
	for _, rec := range records {
		if err := s.repo.DeleteRecord(ctx, id, rec.ID); err != nil && !errors.Is(err, ErrRecordNotFound) {
			s.log.Warn().Err(err).Str("patient_id", id).Str("record_id", rec.ID).Msg("could not delete record")
		}
	}
	return s.repo.Delete(ctx, id)
}

// ListRecords returns a patient's records, newest first.
func (s *Service) ListRecords(ctx context.Context, patientID string) ([]Record, error) {
	if _, err := s.repo.Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.repo.ListRecords(ctx, patientID, listLimit)
}

func (s *Service) GetRecord(ctx context.Context, patientID, id string) (*Record, error) {
	if _, err := s.repo.Get(ctx, patientID); err != nil {
		return nil, err
	}
	rec, err := s.repo.GetRecord(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Service) CreateRecord(ctx context.Context, patientID string, in RecordInput) (*Record, error) {
	in.Date = strings.TrimSpace(in.Date)
	in.Treatment = strings.TrimSpace(in.Treatment)
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, patientID); err != nil {
		return nil, err
	}

	rec := Record{
		PatientID:    patientID,
		Date:         in.Date,
		Treatment:    in.Treatment,
		Diagnosis:    strings.TrimSpace(in.Diagnosis),
		Notes:        strings.TrimSpace(in.Notes),
		Prescription: strings.TrimSpace(in.Prescription),
		CreatedAt:    util.Now(),
	}
	created, err := s.repo.CreateRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Service) UpdateRecord(ctx context.Context, patientID, id string, in RecordUpdate) (*Record, error) {
	fields := map[string]any{}
	verr := &util.ValidationError{}

	required := []struct {
		name string
		val  *string
	}{{"date", in.Date}, {"treatment", in.Treatment}}
	for _, f := range required {
		if f.val == nil {
			continue
		}
		if v := strings.TrimSpace(*f.val); v == "" {
			verr.Missing = append(verr.Missing, f.name)
		} else {
			fields[f.name] = v
		}
	}
	setTrimmed(fields, "diagnosis", in.Diagnosis)
	setTrimmed(fields, "notes", in.Notes)
	setTrimmed(fields, "prescription", in.Prescription)

	if len(verr.Missing) > 0 {
		return nil, verr
	}
	if _, err := s.repo.Get(ctx, patientID); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		fields["updatedAt"] = util.Now()
		if err := s.repo.UpdateRecord(ctx, patientID, id, fields); err != nil {
			return nil, err
		}
	}
	return s.GetRecord(ctx, patientID, id)
}

func (s *Service) DeleteRecord(ctx context.Context, patientID, id string) error {
	if _, err := s.repo.Get(ctx, patientID); err != nil {
		return err
	}
	return s.repo.DeleteRecord(ctx, patientID, id)
}

// FindSelf resolves the caller's own profile: the document keyed by uid
// first, then a unique email match. email must be a verified address; pass
// "" when it is not. Profiles bound to another uid never match by email.
func (s *Service) FindSelf(ctx context.Context, uid, email string) (*Patient, error) {
	if uid = strings.TrimSpace(uid); uid != "" {
		p, err := s.repo.Get(ctx, uid)
		if err == nil {
			return &p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrNotFound
	}
	found, err := s.repo.FindByEmail(ctx, email, listLimit)
	if err != nil {
		return nil, err
	}
	matches := found[:0]
	for _, p := range found {
		if p.UID != "" && p.UID != uid {
			continue
		}
		matches = append(matches, p)
	}
	switch len(matches) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &matches[0], nil
	default:
		s.log.Warn().Str("uid", uid).Msg("self lookup matched several patients by email")
		return nil, ErrAmbiguous
	}
}

// SelfRecords returns the caller's own records.
func (s *Service) SelfRecords(ctx context.Context, uid, email string) ([]Record, error) {
	p, err := s.FindSelf(ctx, uid, email)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRecords(ctx, p.ID, listLimit)
}

func setTrimmed(fields map[string]any, name string, val *string) {
	if val != nil {
		fields[name] = strings.TrimSpace(*val)
	}
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
