package registration

import (
	"context"
	"errors"

	"github.com/sorrisoclinic/clinic-api/internal/docstore"
)

const collection = "registrations"

// Repository stores registrations keyed by UID.
type Repository struct {
	store docstore.Store
}

// NewRepository creates the repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) Get(ctx context.Context, uid string) (Registration, error) {
	var reg Registration
	if err := r.store.Get(ctx, collection, uid, &reg); err != nil {
		return Registration{}, mapErr(err)
	}
	reg.UID = uid
	return reg, nil
}

// Insert stores a new registration. It never replaces an existing one and
// returns ErrExists instead.
func (r *Repository) Insert(ctx context.Context, reg Registration) error {
	err := r.store.CreateWithID(ctx, collection, reg.UID, reg)
	if errors.Is(err, docstore.ErrExists) {
		return ErrExists
	}
	return err
}

func (r *Repository) Update(ctx context.Context, uid string, fields map[string]any) error {
	return mapErr(r.store.Update(ctx, collection, uid, fields))
}

// ListByStatus returns registrations in status, oldest first.
func (r *Repository) ListByStatus(ctx context.Context, status string, limit int) ([]Registration, error) {
	docs, err := r.store.Find(ctx, collection, docstore.Query{OrderBy: "createdAt", Limit: limit}.Where("status", status))
	if err != nil {
		return nil, err
	}
	out := make([]Registration, 0, len(docs))
	for _, doc := range docs {
		var reg Registration
		if err := doc.DataTo(&reg); err != nil {
			return nil, err
		}
		reg.UID = doc.ID
		out = append(out, reg)
	}
	return out, nil
}

func mapErr(err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
