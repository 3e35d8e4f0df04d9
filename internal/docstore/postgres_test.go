package docstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubConn struct {
	tag  string
	err  error
	sqls []string
}

func (s *stubConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.sqls = append(s.sqls, sql)
	return pgconn.NewCommandTag(s.tag), s.err
}

func (s *stubConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (s *stubConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (s *stubConn) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	return nil, errors.New("not implemented")
}

func (s *stubConn) Ping(ctx context.Context) error { return nil }

func TestBuildFindQuery(t *testing.T) {
	cases := []struct {
		name  string
		q     Query
		query string
		args  int
	}{
		{
			name:  "bare",
			q:     Query{},
			query: "SELECT id, data FROM documents WHERE collection = $1 ORDER BY created_at ASC",
			args:  1,
		},
		{
			name:  "filter order limit",
			q:     Query{OrderBy: "createdAt", Desc: true, Limit: 10}.Where("status", "pending"),
			query: "SELECT id, data FROM documents WHERE collection = $1 AND data @> $2::jsonb ORDER BY data->>$3 DESC, created_at DESC LIMIT $4",
			args:  4,
		},
		{
			name:  "order without filter",
			q:     Query{OrderBy: "createdAt", Limit: 5},
			query: "SELECT id, data FROM documents WHERE collection = $1 ORDER BY data->>$2 ASC, created_at ASC LIMIT $3",
			args:  3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query, args, err := buildFindQuery("bookings", tc.q)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if query != tc.query {
				t.Fatalf("query mismatch:\n got %s\nwant %s", query, tc.query)
			}
			if len(args) != tc.args || args[0] != "bookings" {
				t.Fatalf("unexpected args %v", args)
			}
		})
	}
}

func TestBuildFindQueryFilterPayload(t *testing.T) {
	_, args, err := buildFindQuery("patients", Query{}.Where("email", "a@b.com").Where("uid", "u1"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := string(args[1].([]byte)); got != `{"email":"a@b.com","uid":"u1"}` {
		t.Fatalf("unexpected containment payload %s", got)
	}
}

func TestBuildFindQueryRejectsFields(t *testing.T) {
	for _, q := range []Query{
		{OrderBy: "createdAt; DROP TABLE documents"},
		Query{}.Where("a b", 1),
		{Limit: -1},
	} {
		if _, _, err := buildFindQuery("bookings", q); !errors.Is(err, ErrInvalidQuery) {
			t.Fatalf("expected ErrInvalidQuery for %+v, got %v", q, err)
		}
	}
}

func TestPostgresRowsAffectedMapping(t *testing.T) {
	ctx := context.Background()

	conn := &stubConn{tag: "UPDATE 0"}
	pg := &Postgres{pool: conn}
	if err := pg.Update(ctx, "bookings", "missing", map[string]any{"name": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update of missing row: %v", err)
	}

	conn.tag = "DELETE 0"
	if err := pg.Delete(ctx, "bookings", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete of missing row: %v", err)
	}

	conn.tag = "INSERT 0 0"
	if err := pg.CreateWithID(ctx, "registrations", "u1", map[string]string{"status": "pending"}); !errors.Is(err, ErrExists) {
		t.Fatalf("insert over existing row: %v", err)
	}
	if last := conn.sqls[len(conn.sqls)-1]; !strings.Contains(last, "ON CONFLICT (collection, id) DO NOTHING") {
		t.Fatalf("create must not upsert: %s", last)
	}

	conn.tag = "INSERT 0 1"
	if err := pg.CreateWithID(ctx, "registrations", "u2", map[string]string{"status": "pending"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	conn.tag = "UPDATE 1"
	if err := pg.Update(ctx, "bookings", "b1", map[string]any{"name": "x"}); err != nil {
		t.Fatalf("update: %v", err)
	}
}
