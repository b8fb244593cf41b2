// Package jsonfile stores each document in its own file on disk.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ledger/internal/server/repository"
)

type Repository struct {
	paths map[string]string
}

func New(accountsPath, sessionsPath string) *Repository {
	return &Repository{paths: map[string]string{
		repository.AccountsDocument: accountsPath,
		repository.SessionsDocument: sessionsPath,
	}}
}

func (r *Repository) path(name string) (string, error) {
	p, ok := r.paths[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", repository.ErrUnknownDocument, name)
	}
	return p, nil
}

func (r *Repository) ReadDocument(_ context.Context, name string) ([]byte, error) {
	p, err := r.path(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, repository.ErrDocumentNotFound
	}
	return b, err
}

// WriteDocument writes to a temporary file next to the target and renames it
// over the target, so readers never see a half-written document.
func (r *Repository) WriteDocument(_ context.Context, name string, body []byte) error {
	p, err := r.path(name)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, body, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (r *Repository) Close() error { return nil }
