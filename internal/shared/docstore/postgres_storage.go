package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
	"github.com/samber/oops"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	created_at TIMESTAMPTZ,
	data JSONB NOT NULL DEFAULT '{}'::jsonb,
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (collection, created_at);
`

// PoolConfig tunes the pgx connection pool
type PoolConfig struct {
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// PostgresStorage implements Store on a JSONB table
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects to dsn and applies the schema
func NewPostgresStorage(ctx context.Context, dsn string, cfg PoolConfig) (*PostgresStorage, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.With("context", "failed to parse database url").Wrap(err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, oops.With("context", "failed to create connection pool").Wrap(err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, oops.With("context", "failed to apply schema").Wrap(err)
	}

	return &PostgresStorage{pool: pool}, nil
}

func (s *PostgresStorage) Add(ctx context.Context, collection string, doc *Document) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if err := s.Set(ctx, collection, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (s *PostgresStorage) Set(ctx context.Context, collection string, doc *Document) error {
	if err := validateDocument(collection, doc); err != nil {
		return err
	}
	return upsertPostgres(ctx, s.pool, collection, doc)
}

func (s *PostgresStorage) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := validateName("collection", collection); err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx,
		`SELECT id, created_at, data FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	doc, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("collection", collection, "document_id", id).Wrap(apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("collection", collection, "document_id", id, "context", "failed to read document").Wrap(err)
	}
	return doc, nil
}

func (s *PostgresStorage) Delete(ctx context.Context, collection, id string) error {
	if err := validateName("collection", collection); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id); err != nil {
		return oops.With("collection", collection, "document_id", id, "context", "failed to delete document").Wrap(err)
	}
	return nil
}

func (s *PostgresStorage) List(ctx context.Context, collection string, q Query) ([]*Document, error) {
	if err := validateQuery(collection, q); err != nil {
		return nil, err
	}

	query := `SELECT id, created_at, data FROM documents WHERE collection = $1`
	args := []any{collection}

	for _, f := range q.Filters {
		args = append(args, f.Field, f.Value)
		field, value := len(args)-1, len(args)
		query += fmt.Sprintf(` AND jsonb_typeof(data->($%d::text)) = 'string' AND data->>($%d::text) = $%d`, field, field, value)
	}
	if q.OrderByCreatedAt {
		query += ` AND created_at IS NOT NULL ORDER BY created_at`
		if q.Descending {
			query += ` DESC`
		}
		query += `, id`
	} else {
		query += ` ORDER BY id`
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.With("collection", collection, "context", "failed to query documents").Wrap(err)
	}
	defer rows.Close()

	docs := []*Document{}
	for rows.Next() {
		doc, err := scanPostgres(rows)
		if err != nil {
			return nil, oops.With("collection", collection, "context", "failed to scan document").Wrap(err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStorage) Move(ctx context.Context, from, to, id string) error {
	if err := validateName("collection", from); err != nil {
		return err
	}
	if err := validateName("collection", to); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return oops.With("context", "failed to begin transaction").Wrap(err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT id, created_at, data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`, from, id)
	doc, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return oops.With("collection", from, "document_id", id).Wrap(apperrors.ErrNotFound)
	}
	if err != nil {
		return oops.With("collection", from, "document_id", id, "context", "failed to read document").Wrap(err)
	}

	if err := upsertPostgres(ctx, tx, to, doc); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, from, id); err != nil {
		return oops.With("collection", from, "document_id", id, "context", "failed to delete moved document").Wrap(err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

type pgxExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func upsertPostgres(ctx context.Context, db pgxExecer, collection string, doc *Document) error {
	data, err := encodeFields(doc)
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx,
		`INSERT INTO documents (collection, id, created_at, data) VALUES ($1, $2, $3, $4::jsonb)
		 ON CONFLICT (collection, id) DO UPDATE SET created_at = excluded.created_at, data = excluded.data`,
		collection, doc.ID, doc.CreatedAt, string(data))
	if err != nil {
		return oops.With("collection", collection, "document_id", doc.ID, "context", "failed to write document").Wrap(err)
	}
	return nil
}

func scanPostgres(row pgx.Row) (*Document, error) {
	var (
		doc       Document
		createdAt *time.Time
		data      []byte
	)
	if err := row.Scan(&doc.ID, &createdAt, &data); err != nil {
		return nil, err
	}
	if createdAt != nil {
		t := createdAt.UTC()
		doc.CreatedAt = &t
	}
	fields, err := decodeFields(doc.ID, data)
	if err != nil {
		return nil, err
	}
	doc.Fields = fields
	return &doc, nil
}
