package docstore

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
	"github.com/samber/oops"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	created_at INTEGER,
	data TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (collection, created_at);
`

// SQLiteStorage implements Store on a single SQLite table with a JSON data column
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at path and applies the schema
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, oops.With("sqlite_path", path, "context", "failed to create database directory").Wrap(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.With("sqlite_path", path, "context", "failed to open database").Wrap(err)
	}
	// One connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, oops.With("pragma", pragma).Wrap(err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, oops.With("context", "failed to apply schema").Wrap(err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Add(ctx context.Context, collection string, doc *Document) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if err := s.Set(ctx, collection, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (s *SQLiteStorage) Set(ctx context.Context, collection string, doc *Document) error {
	if err := validateDocument(collection, doc); err != nil {
		return err
	}
	return upsertSQLite(ctx, s.db, collection, doc)
}

func (s *SQLiteStorage) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := validateName("collection", collection); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, data FROM documents WHERE collection = ? AND id = ?`, collection, id)
	doc, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.With("collection", collection, "document_id", id).Wrap(apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("collection", collection, "document_id", id, "context", "failed to read document").Wrap(err)
	}
	return doc, nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, collection, id string) error {
	if err := validateName("collection", collection); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return oops.With("collection", collection, "document_id", id, "context", "failed to delete document").Wrap(err)
	}
	return nil
}

func (s *SQLiteStorage) List(ctx context.Context, collection string, q Query) ([]*Document, error) {
	if err := validateQuery(collection, q); err != nil {
		return nil, err
	}

	query := `SELECT id, created_at, data FROM documents WHERE collection = ?`
	args := []any{collection}

	for _, f := range q.Filters {
		query += ` AND json_type(data, ?) = 'text' AND json_extract(data, ?) = ?`
		args = append(args, "$."+f.Field, "$."+f.Field, f.Value)
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
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, oops.With("collection", collection, "context", "failed to query documents").Wrap(err)
	}
	defer rows.Close()

	docs := []*Document{}
	for rows.Next() {
		doc, err := scanSQLite(rows)
		if err != nil {
			return nil, oops.With("collection", collection, "context", "failed to scan document").Wrap(err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStorage) Move(ctx context.Context, from, to, id string) error {
	if err := validateName("collection", from); err != nil {
		return err
	}
	if err := validateName("collection", to); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.With("context", "failed to begin transaction").Wrap(err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, created_at, data FROM documents WHERE collection = ? AND id = ?`, from, id)
	doc, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return oops.With("collection", from, "document_id", id).Wrap(apperrors.ErrNotFound)
	}
	if err != nil {
		return oops.With("collection", from, "document_id", id, "context", "failed to read document").Wrap(err)
	}

	if err := upsertSQLite(ctx, tx, to, doc); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, from, id); err != nil {
		return oops.With("collection", from, "document_id", id, "context", "failed to delete moved document").Wrap(err)
	}

	return tx.Commit()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func upsertSQLite(ctx context.Context, db sqlExecer, collection string, doc *Document) error {
	data, err := encodeFields(doc)
	if err != nil {
		return err
	}

	var createdAt sql.NullInt64
	if doc.CreatedAt != nil {
		createdAt = sql.NullInt64{Int64: doc.CreatedAt.UnixNano(), Valid: true}
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, created_at, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET created_at=excluded.created_at, data=excluded.data`,
		collection, doc.ID, createdAt, string(data))
	if err != nil {
		return oops.With("collection", collection, "document_id", doc.ID, "context", "failed to write document").Wrap(err)
	}
	return nil
}

func scanSQLite(row rowScanner) (*Document, error) {
	var (
		doc       Document
		createdAt sql.NullInt64
		data      string
	)
	if err := row.Scan(&doc.ID, &createdAt, &data); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		t := time.Unix(0, createdAt.Int64).UTC()
		doc.CreatedAt = &t
	}
	fields, err := decodeFields(doc.ID, []byte(data))
	if err != nil {
		return nil, err
	}
	doc.Fields = fields
	return &doc, nil
}
