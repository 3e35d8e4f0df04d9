package docstore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore adapts a Cloud Firestore client. Models carry `firestore` struct tags.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore wraps an existing client.
func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (f *Firestore) Name() string { return "firestore" }

// Ping lists root collections to confirm credentials and connectivity.
func (f *Firestore) Ping(ctx context.Context) error {
	_, err := f.client.Collections(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

func (f *Firestore) Get(ctx context.Context, collection, id string, dst any) error {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return mapFirestoreErr(err)
	}
	return snap.DataTo(dst)
}

func (f *Firestore) Create(ctx context.Context, collection string, doc any) (string, error) {
	ref := f.client.Collection(collection).NewDoc()
	if _, err := ref.Create(ctx, doc); err != nil {
		return "", mapFirestoreErr(err)
	}
	return ref.ID, nil
}

func (f *Firestore) CreateWithID(ctx context.Context, collection, id string, doc any) error {
	_, err := f.client.Collection(collection).Doc(id).Create(ctx, doc)
	return mapFirestoreErr(err)
}

func (f *Firestore) Set(ctx context.Context, collection, id string, doc any) error {
	_, err := f.client.Collection(collection).Doc(id).Set(ctx, doc)
	return mapFirestoreErr(err)
}

func (f *Firestore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	_, err := f.client.Collection(collection).Doc(id).Update(ctx, updates)
	return mapFirestoreErr(err)
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	ref := f.client.Collection(collection).Doc(id)
	_, err := ref.Delete(ctx, firestore.Exists)
	return mapFirestoreErr(err)
}

// Find runs an equality query. Combining filters with an order on another
// field requires a composite index in the Firestore project.
func (f *Firestore) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	query := f.client.Collection(collection).Query
	for _, flt := range q.Filters {
		query = query.Where(flt.Field, "==", flt.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, mapFirestoreErr(err)
	}

	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		snap := snap
		docs = append(docs, Document{ID: snap.Ref.ID, decode: snap.DataTo})
	}
	return docs, nil
}

func mapFirestoreErr(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrExists
	}
	return err
}
