package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/sorrisoclinic/clinic-api/internal/db"
)

// Open returns the backend named by driver. fs is required for "firestore",
// dsn for "postgres". The returned close func is never nil.
func Open(ctx context.Context, driver string, fs *firestore.Client, dsn string) (Store, func(), error) {
	switch driver {
	case "firestore":
		if fs == nil {
			return nil, nil, errors.New("docstore: firestore driver needs a client")
		}
		return NewFirestore(fs), func() {}, nil
	case "postgres":
		pool, err := db.NewPool(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("db: %w", err)
		}
		pg := NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("db migrate: %w", err)
		}
		return pg, pool.Close, nil
	case "memory", "":
		return NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("docstore: unknown driver %q", driver)
	}
}
