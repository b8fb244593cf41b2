// Package store owns the in-memory accounts and sessions collections and
// persists both of them wholesale through a document Backend.
//
// All access goes through View and Update, which run under one process-wide
// mutex. Update works on a copy of the collections: the copy is written to the
// backend and only then becomes current, so a failed callback or a failed
// write leaves the store exactly as it was.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledger/internal/server/repository"
	"ledger/internal/shared/models"
)

// DefaultSessionTTL is how long a session lives after login.
const DefaultSessionTTL = 24 * time.Hour

// Backend reads and writes whole documents by name.
type Backend interface {
	ReadDocument(ctx context.Context, name string) ([]byte, error)
	WriteDocument(ctx context.Context, name string, body []byte) error
	Close() error
}

// LoadError reports a document that could not be read or decoded. The store
// starts with an empty collection in its place.
type LoadError struct {
	Document string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Document, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

type Store struct {
	mu       sync.Mutex
	backend  Backend
	now      func() time.Time
	ttl      time.Duration
	accounts []models.AccountRecord
	sessions map[string]models.UserSession
}

type accountsDocument struct {
	Accounts []models.AccountRecord `json:"accounts"`
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		now:      time.Now,
		ttl:      DefaultSessionTTL,
		accounts: []models.AccountRecord{},
		sessions: map[string]models.UserSession{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) SessionTTL() time.Duration { return s.ttl }

// Load replaces both collections with the stored documents. A document that
// was never written loads as empty. A document that cannot be read or decoded
// also loads as empty, and is reported as a *LoadError; when both fail the
// errors are joined. The store is usable whatever Load returns.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	accounts, err := s.loadAccounts(ctx)
	if err != nil {
		errs = append(errs, &LoadError{Document: repository.AccountsDocument, Err: err})
		accounts = []models.AccountRecord{}
	}
	sessions, err := s.loadSessions(ctx)
	if err != nil {
		errs = append(errs, &LoadError{Document: repository.SessionsDocument, Err: err})
		sessions = map[string]models.UserSession{}
	}
	s.accounts = accounts
	s.sessions = sessions
	return errors.Join(errs...)
}

func (s *Store) loadAccounts(ctx context.Context) ([]models.AccountRecord, error) {
	body, err := s.backend.ReadDocument(ctx, repository.AccountsDocument)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return []models.AccountRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	var doc accountsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	out := make([]models.AccountRecord, 0, len(doc.Accounts))
	for _, rec := range doc.Accounts {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		out = append(out, rec.Clone())
	}
	return out, nil
}

func (s *Store) loadSessions(ctx context.Context) (map[string]models.UserSession, error) {
	body, err := s.backend.ReadDocument(ctx, repository.SessionsDocument)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return map[string]models.UserSession{}, nil
	}
	if err != nil {
		return nil, err
	}
	var doc map[string]models.UserSession
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	now := s.now()
	out := make(map[string]models.UserSession, len(doc))
	for token, sess := range doc {
		if sess.Expired(now, s.ttl) {
			continue
		}
		out[token] = sess
	}
	return out, nil
}

// SaveAll writes both collections to the backend.
func (s *Store) SaveAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, s.accounts, s.sessions)
}

func (s *Store) write(ctx context.Context, accounts []models.AccountRecord, sessions map[string]models.UserSession) error {
	accountsBody, err := encode(accountsDocument{Accounts: accounts})
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	sessionsBody, err := encode(sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	if err := s.backend.WriteDocument(ctx, repository.AccountsDocument, accountsBody); err != nil {
		return fmt.Errorf("write accounts: %w", err)
	}
	if err := s.backend.WriteDocument(ctx, repository.SessionsDocument, sessionsBody); err != nil {
		return fmt.Errorf("write sessions: %w", err)
	}
	return nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// View runs fn against a snapshot of the collections. Changes made through
// the Tx are discarded.
func (s *Store) View(_ context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.begin())
}

// Update runs fn against a copy of the collections. If fn succeeds and
// changed anything, both documents are written and the copy becomes current.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.begin()
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}
	if err := s.write(ctx, tx.accounts, tx.sessions); err != nil {
		return err
	}
	s.accounts = tx.accounts
	s.sessions = tx.sessions
	return nil
}

func (s *Store) begin() *Tx {
	return &Tx{
		accounts: slices.Clone(s.accounts),
		sessions: maps.Clone(s.sessions),
		now:      s.now(),
		ttl:      s.ttl,
	}
}

func (s *Store) Close() error {
	return s.backend.Close()
}
