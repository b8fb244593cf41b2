package secret

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")

	key, created, err := LoadOrGenerate(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, key, KeyLength)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, created, err := LoadOrGenerate(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, key, again)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short")
	require.NoError(t, Save(short, []byte("abc")))
	_, err := Load(short)
	assert.ErrorIs(t, err, ErrInvalidKey)

	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte("!!not base64!!"), 0o600))
	_, _, err = LoadOrGenerate(garbage)
	assert.Error(t, err, "a corrupt key file is not silently replaced")
}
