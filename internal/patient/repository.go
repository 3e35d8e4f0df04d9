package patient

import (
	"context"
	"errors"
	"strings"

	"github.com/sorrisoclinic/clinic-api/internal/docstore"
)

const collection = "patients"

func recordsOf(patientID string) string {
	return docstore.SubCollection(collection, patientID, "records")
}

// Repository persists patients and their records.
type Repository struct {
	store docstore.Store
}

// NewRepository creates the repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) Create(ctx context.Context, p Patient) (Patient, error) {
	if p.UID != "" {
		if err := r.store.CreateWithID(ctx, collection, p.UID, p); err != nil {
			if errors.Is(err, docstore.ErrExists) {
				return Patient{}, ErrConflict
			}
			return Patient{}, err
		}
		p.ID = p.UID
		return p, nil
	}
	id, err := r.store.Create(ctx, collection, p)
	if err != nil {
		return Patient{}, err
	}
	p.ID = id
	return p, nil
}

func (r *Repository) Get(ctx context.Context, id string) (Patient, error) {
	var p Patient
	if err := r.store.Get(ctx, collection, id, &p); err != nil {
		return Patient{}, mapErr(err, ErrNotFound)
	}
	p.ID = id
	return p, nil
}

func (r *Repository) List(ctx context.Context, limit int) ([]Patient, error) {
	return r.findPatients(ctx, docstore.Query{OrderBy: "createdAt", Desc: true, Limit: limit})
}

// FindByEmail returns at most limit patients whose email matches.
func (r *Repository) FindByEmail(ctx context.Context, email string, limit int) ([]Patient, error) {
	q := docstore.Query{Limit: limit}.Where("email", strings.ToLower(strings.TrimSpace(email)))
	return r.findPatients(ctx, q)
}

func (r *Repository) Update(ctx context.Context, id string, fields map[string]any) error {
	return mapErr(r.store.Update(ctx, collection, id, fields), ErrNotFound)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return mapErr(r.store.Delete(ctx, collection, id), ErrNotFound)
}

func (r *Repository) CreateRecord(ctx context.Context, rec Record) (Record, error) {
	id, err := r.store.Create(ctx, recordsOf(rec.PatientID), rec)
	if err != nil {
		return Record{}, err
	}
	rec.ID = id
	return rec, nil
}

func (r *Repository) GetRecord(ctx context.Context, patientID, id string) (Record, error) {
	var rec Record
	if err := r.store.Get(ctx, recordsOf(patientID), id, &rec); err != nil {
		return Record{}, mapErr(err, ErrRecordNotFound)
	}
	rec.ID = id
	return rec, nil
}

// ListRecords returns the newest records first.
func (r *Repository) ListRecords(ctx context.Context, patientID string, limit int) ([]Record, error) {
	docs, err := r.store.Find(ctx, recordsOf(patientID), docstore.Query{OrderBy: "createdAt", Desc: true, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(docs))
	for _, doc := range docs {
		var rec Record
		if err := doc.DataTo(&rec); err != nil {
			return nil, err
		}
		rec.ID = doc.ID
		out = append(out, rec)
	}
	return out, nil
}

func (r *Repository) UpdateRecord(ctx context.Context, patientID, id string, fields map[string]any) error {
	return mapErr(r.store.Update(ctx, recordsOf(patientID), id, fields), ErrRecordNotFound)
}

func (r *Repository) DeleteRecord(ctx context.Context, patientID, id string) error {
	return mapErr(r.store.Delete(ctx, recordsOf(patientID), id), ErrRecordNotFound)
}

func (r *Repository) findPatients(ctx context.Context, q docstore.Query) ([]Patient, error) {
	docs, err := r.store.Find(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	out := make([]Patient, 0, len(docs))
	for _, doc := range docs {
		var p Patient
		if err := doc.DataTo(&p); err != nil {
			return nil, err
		}
		p.ID = doc.ID
		out = append(out, p)
	}
	return out, nil
}

func mapErr(err, notFound error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return notFound
	}
	return err
}
