package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// PostgresStore keeps every collection in a single JSONB table.
type PostgresStore struct {
	PG     *sql.DB
	logger hclog.Logger
}

func NewPostgresStore(pg *sql.DB, logger hclog.Logger) *PostgresStore {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &PostgresStore{PG: pg, logger: logger.Named("postgres")}
}

// Migrate creates the documents table and, for each collection in unique,
// a unique index on the named string field. With the index in place a
// concurrent duplicate write fails with ErrConflict instead of racing
// the application-level uniqueness check.
func Migrate(ctx context.Context, pg *sql.DB, unique map[string]string) error {
	_, err := pg.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			body JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (collection, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	collections := make([]string, 0, len(unique))
	for collection := range unique {
		collections = append(collections, collection)
	}
	sort.Strings(collections)

	for _, collection := range collections {
		field := unique[collection]
		if !collectionNamePattern.MatchString(collection) || !collectionNamePattern.MatchString(field) {
			return fmt.Errorf("invalid unique index %s.%s", collection, field)
		}
		stmt := fmt.Sprintf(
			"CREATE UNIQUE INDEX IF NOT EXISTS %s ON documents ((body->>%s)) WHERE collection = %s",
			pq.QuoteIdentifier(fmt.Sprintf("documents_%s_%s_key", collection, field)),
			pq.QuoteLiteral(field),
			pq.QuoteLiteral(collection),
		)
		if _, err := pg.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create unique index on %s.%s: %w", collection, field, err)
		}
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var body []byte
	err := s.PG.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&body)
	if err != nil {
		if err == sql.ErrNoRows {
			return Document{}, &Error{Op: "get", Collection: collection, ID: id, Err: ErrNotFound}
		}
		return Document{}, &Error{Op: "get", Collection: collection, ID: id, Err: err}
	}

	source := make(map[string]interface{})
	if err := json.Unmarshal(body, &source); err != nil {
		return Document{}, &Error{Op: "get", Collection: collection, ID: id, Err: err, Msg: "failed to decode document"}
	}
	return Document{ID: id, Source: source}, nil
}

// Search implements Store. Field names are bound as parameters, never
// interpolated.
func (s *PostgresStore) Search(ctx context.Context, collection string, q Query) ([]Document, error) {
	query := `SELECT id, body FROM documents WHERE collection = $1`
	args := []interface{}{collection}

	if q.Field != "" {
		query += fmt.Sprintf(" AND body->>$%d::text = $%d", len(args)+1, len(args)+2)
		args = append(args, q.Field, q.Value)
	}

	if q.SortField != "" {
		direction := "ASC"
		if q.Descending {
			direction = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY body->>$%d::text %s, id", len(args)+1, direction)
		args = append(args, q.SortField)
	} else {
		query += " ORDER BY id"
	}
	query += fmt.Sprintf(" LIMIT %d", q.limit())

	rows, err := s.PG.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &Error{Op: "search", Collection: collection, Err: err}
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, &Error{Op: "search", Collection: collection, Err: err, Msg: "failed to scan document"}
		}
		source := make(map[string]interface{})
		if err := json.Unmarshal(body, &source); err != nil {
			s.logger.Warn("skipping undecodable document", "collection", collection, "id", id, "error", err)
			continue
		}
		docs = append(docs, Document{ID: id, Source: source})
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "search", Collection: collection, Err: err}
	}
	return docs, nil
}

// Index implements Store. Postgres commits synchronously, so the refresh
// mode does not change behavior.
func (s *PostgresStore) Index(ctx context.Context, collection, id string, source map[string]interface{}, refresh Refresh) (string, error) {
	body, err := json.Marshal(source)
	if err != nil {
		return "", &Error{Op: "index", Collection: collection, ID: id, Err: err, Msg: "failed to encode document"}
	}

	_, err = s.PG.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()
	`, collection, id, body)
	if err != nil {
		return "", &Error{Op: "index", Collection: collection, ID: id, Err: translatePQError(err)}
	}
	return id, nil
}

// Update implements Store using a JSONB merge.
func (s *PostgresStore) Update(ctx context.Context, collection, id string, partial map[string]interface{}, refresh Refresh) error {
	body, err := json.Marshal(partial)
	if err != nil {
		return &Error{Op: "update", Collection: collection, ID: id, Err: err, Msg: "failed to encode document"}
	}

	res, err := s.PG.ExecContext(ctx, `
		UPDATE documents SET body = body || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`, collection, id, body)
	if err != nil {
		return &Error{Op: "update", Collection: collection, ID: id, Err: translatePQError(err)}
	}
	return expectOneRow(res, "update", collection, id)
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, collection, id string, refresh Refresh) error {
	res, err := s.PG.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return &Error{Op: "delete", Collection: collection, ID: id, Err: err}
	}
	return expectOneRow(res, "delete", collection, id)
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.PG.PingContext(ctx); err != nil {
		return &Error{Op: "ping", Err: ErrUnavailable, Msg: err.Error()}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.PG.Close()
}

func expectOneRow(res sql.Result, op, collection, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return &Error{Op: op, Collection: collection, ID: id, Err: err}
	}
	if n == 0 {
		return &Error{Op: op, Collection: collection, ID: id, Err: ErrNotFound}
	}
	return nil
}

func translatePQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	}
	return err
}
