package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"ledger/internal/server/repository"
)

// Repository keeps each document as one row, so the sqlite backend stores
// exactly what the JSON file backend would write to disk.
type Repository struct {
	db *sql.DB
}

func New(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			name TEXT PRIMARY KEY,
			body BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) ReadDocument(ctx context.Context, name string) ([]byte, error) {
	if !known(name) {
		return nil, fmt.Errorf("%w: %s", repository.ErrUnknownDocument, name)
	}
	var body []byte
	row := r.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = ?`, name)
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrDocumentNotFound
		}
		return nil, err
	}
	return body, nil
}

func (r *Repository) WriteDocument(ctx context.Context, name string, body []byte) error {
	if !known(name) {
		return fmt.Errorf("%w: %s", repository.ErrUnknownDocument, name)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents(name, body, updated_at) VALUES(?,?,?)
		ON CONFLICT(name) DO UPDATE SET
			body=excluded.body,
			updated_at=excluded.updated_at
	`, name, body, time.Now().UTC())
	return err
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func known(name string) bool {
	return name == repository.AccountsDocument || name == repository.SessionsDocument
}
