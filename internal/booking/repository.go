package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/sorrisoclinic/clinic-api/internal/docstore"
)

const collection = "bookings"

// Repository persists bookings in the document store.
type Repository struct {
	store docstore.Store
}

// NewRepository creates the repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Create stores b and returns it with its generated id.
func (r *Repository) Create(ctx context.Context, b Booking) (Booking, error) {
	id, err := r.store.Create(ctx, collection, b)
	if err != nil {
		return Booking{}, err
	}
	b.ID = id
	return b, nil
}

// Get loads one booking.
func (r *Repository) Get(ctx context.Context, id string) (Booking, error) {
	var b Booking
	if err := r.store.Get(ctx, collection, id, &b); err != nil {
		return Booking{}, mapErr(err)
	}
	b.ID = id
	return b, nil
}

// List returns the newest bookings first.
func (r *Repository) List(ctx context.Context, limit int) ([]Booking, error) {
	return r.find(ctx, docstore.Query{OrderBy: "createdAt", Desc: true, Limit: limit})
}

// ListByEmail returns bookings submitted with email, newest first.
func (r *Repository) ListByEmail(ctx context.Context, email string, limit int) ([]Booking, error) {
	q := docstore.Query{OrderBy: "createdAt", Desc: true, Limit: limit}.
		Where("email", strings.ToLower(strings.TrimSpace(email)))
	return r.find(ctx, q)
}

// Update merges fields into the stored booking.
func (r *Repository) Update(ctx context.Context, id string, fields map[string]any) error {
	return mapErr(r.store.Update(ctx, collection, id, fields))
}

// Delete removes a booking.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return mapErr(r.store.Delete(ctx, collection, id))
}

func (r *Repository) find(ctx context.Context, q docstore.Query) ([]Booking, error) {
	docs, err := r.store.Find(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	out := make([]Booking, 0, len(docs))
	for _, doc := range docs {
		var b Booking
		if err := doc.DataTo(&b); err != nil {
			return nil, err
		}
		b.ID = doc.ID
		out = append(out, b)
	}
	return out, nil
}

func mapErr(err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
