// Package secret keeps the key used to sign session cookies in a local file,
// so cookies stay valid across restarts without configuring a secret.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// KeyLength is the size of a generated key in bytes.
const KeyLength = 32

var ErrInvalidKey = errors.New("invalid key length")

// Load reads a base64 key from path.
func Load(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(b)))
	if err != nil {
		return nil, err
	}
	if len(key) != KeyLength {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// Save writes key base64 encoded with 0600 perms.
func Save(path string, key []byte) error {
	return os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(key)), 0o600)
}

// LoadOrGenerate returns the key stored at path, creating it on first use.
// The boolean reports whether a new key was generated.
func LoadOrGenerate(path string) ([]byte, bool, error) {
	key, err := Load(path)
	if err == nil {
		return key, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, fmt.Errorf("read key %s: %w", path, err)
	}
	key = make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, false, err
	}
	if err := Save(path, key); err != nil {
		return nil, false, fmt.Errorf("write key %s: %w", path, err)
	}
	return key, true, nil
}
