// Package docstore is the opaque document database behind the clinic API.
// Backends: Firestore (primary), Postgres JSONB, and a process-local memory
// store used as the degraded fallback when nothing persistent is configured.
package docstore

import (
	"context"
	"errors"
	"regexp"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrExists is returned by CreateWithID when the id is already taken.
	ErrExists = errors.New("document already exists")
	// ErrInvalidQuery flags field names the backends refuse to use.
	ErrInvalidQuery = errors.New("invalid query")
)

// Store is implemented by every backend.
type Store interface {
	Get(ctx context.Context, collection, id string, dst any) error
	Create(ctx context.Context, collection string, doc any) (string, error)
	// CreateWithID inserts doc under id only if no document holds it yet.
	CreateWithID(ctx context.Context, collection, id string, doc any) error
	Set(ctx context.Context, collection, id string, doc any) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Find(ctx context.Context, collection string, q Query) ([]Document, error)
	Ping(ctx context.Context) error
	Name() string
}

// Filter is an equality condition on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Query selects documents from one collection.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Where appends an equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(q.Filters, Filter{Field: field, Value: value})
	return q
}

// Document is a query result; DataTo decodes it into a struct.
type Document struct {
	ID     string
	decode func(dst any) error
}

// DataTo decodes the document body into dst.
func (d Document) DataTo(dst any) error {
	if d.decode == nil {
		return errors.New("docstore: empty document")
	}
	return d.decode(dst)
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

func (q Query) validate() error {
	for _, f := range q.Filters {
		if !fieldPattern.MatchString(f.Field) {
			return ErrInvalidQuery
		}
	}
	if q.OrderBy != "" && !fieldPattern.MatchString(q.OrderBy) {
		return ErrInvalidQuery
	}
	if q.Limit < 0 {
		return ErrInvalidQuery
	}
	return nil
}

// SubCollection builds the path of a nested collection, e.g. patients/<id>/records.
func SubCollection(parent, id, child string) string {
	return parent + "/" + id + "/" + child
}
