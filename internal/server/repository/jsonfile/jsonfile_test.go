package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/server/repository"
)

func TestReadMissingDocument(t *testing.T) {
	dir := t.TempDir()
	repo := New(filepath.Join(dir, "data.json"), filepath.Join(dir, "sessions.json"))

	_, err := repo.ReadDocument(context.Background(), repository.AccountsDocument)
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}

func TestWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	accounts := filepath.Join(dir, "nested", "data.json")
	repo := New(accounts, filepath.Join(dir, "sessions.json"))
	ctx := context.Background()

	require.NoError(t, repo.WriteDocument(ctx, repository.AccountsDocument, []byte(`{"accounts":[]}`)))

	got, err := repo.ReadDocument(ctx, repository.AccountsDocument)
	require.NoError(t, err)
	assert.Equal(t, `{"accounts":[]}`, string(got))

	raw, err := os.ReadFile(accounts)
	require.NoError(t, err)
	assert.Equal(t, `{"accounts":[]}`, string(raw))

	_, err = os.Stat(accounts + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must not survive the rename")
}

func TestUnknownDocument(t *testing.T) {
	repo := New("a.json", "s.json")
	err := repo.WriteDocument(context.Background(), "users", nil)
	assert.ErrorIs(t, err, repository.ErrUnknownDocument)
}
