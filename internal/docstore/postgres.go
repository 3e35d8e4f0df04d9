package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sorrisoclinic/clinic-api/internal/db"
)

// pgxConn is the subset of *pgxpool.Pool the store uses.
type pgxConn interface {
	db.TxBeginner
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Postgres keeps every collection in a single JSONB table.
type Postgres struct {
	pool pgxConn
}

// NewPostgres wraps a pool. Call Migrate once at startup.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Migrate creates the documents table and its containment index.
func (p *Postgres) Migrate(ctx context.Context) error {
	return db.WithTx(ctx, p.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            CREATE TABLE IF NOT EXISTS documents (
                collection TEXT NOT NULL,
                id TEXT NOT NULL,
                data JSONB NOT NULL,
                created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
                updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
                PRIMARY KEY (collection, id)
            )`); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `CREATE INDEX IF NOT EXISTS documents_data_idx ON documents USING GIN (data jsonb_path_ops)`)
		return err
	})
}

func (p *Postgres) Get(ctx context.Context, collection, id string, dst any) error {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT data FROM documents WHERE collection = $1 AND id = $2`, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(raw, dst)
}

func (p *Postgres) Create(ctx context.Context, collection string, doc any) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = p.pool.Exec(ctx, `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`, collection, id, raw)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) CreateWithID(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	cmd, err := p.pool.Exec(ctx, `
        INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
        ON CONFLICT (collection, id) DO NOTHING
    `, collection, id, raw)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrExists
	}
	return nil
}

func (p *Postgres) Set(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
        INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
        ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
    `, collection, id, raw)
	return err
}

func (p *Postgres) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	cmd, err := p.pool.Exec(ctx, `
        UPDATE documents SET data = data || $3::jsonb, updated_at = now()
        WHERE collection = $1 AND id = $2
    `, collection, id, raw)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	cmd, err := p.pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Find filters by JSONB containment and orders by the text value of a field.
func (p *Postgres) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	query, args, err := buildFindQuery(collection, q)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, decode: func(dst any) error { return json.Unmarshal(raw, dst) }})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func buildFindQuery(collection string, q Query) (string, []any, error) {
	if err := q.validate(); err != nil {
		return "", nil, err
	}

	var (
		clauses = []string{"collection = $1"}
		args    = []any{collection}
		idx     = 2
	)

	if len(q.Filters) > 0 {
		cond := make(map[string]any, len(q.Filters))
		for _, f := range q.Filters {
			cond[f.Field] = f.Value
		}
		raw, err := json.Marshal(cond)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, fmt.Sprintf("data @> $%d::jsonb", idx))
		args = append(args, raw)
		idx++
	}

	query := `SELECT id, data FROM documents WHERE ` + strings.Join(clauses, " AND ")

	if q.OrderBy != "" {
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY data->>$%d %s, created_at %s", idx, dir, dir)
		args = append(args, q.OrderBy)
		idx++
	} else {
		query += " ORDER BY created_at ASC"
	}

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, q.Limit)
	}
	return query, args, nil
}
