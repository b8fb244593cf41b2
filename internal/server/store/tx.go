package store

import (
	"errors"
	"slices"
	"sort"
	"strconv"
	"time"

	"ledger/internal/shared/models"
)

var ErrAccountNotFound = errors.New("account not found")

// AccountRef addresses an account either by its position in storage order or
// by its stable id. A parsed decimal ref keeps its text in id so that it can
// still match a record whose id is all digits.
type AccountRef struct {
	index int
	id    string
	byID  bool
}

func RefByIndex(i int) AccountRef { return AccountRef{index: i} }

func RefByID(id string) AccountRef { return AccountRef{id: id, byID: true} }

// ParseRef reads a decimal string as an index and anything else as an id.
// Find prefers a record whose id equals the decimal string over the index.
func ParseRef(s string) AccountRef {
	if i, err := strconv.Atoi(s); err == nil {
		return AccountRef{index: i, id: s}
	}
	return RefByID(s)
}

func (r AccountRef) String() string {
	if r.byID {
		return r.id
	}
	return strconv.Itoa(r.index)
}

// Tx is the view of the store handed to View and Update callbacks. Records
// going in and out are copied, so callers may modify what they get.
type Tx struct {
	accounts []models.AccountRecord
	sessions map[string]models.UserSession
	now      time.Time
	ttl      time.Duration
	dirty    bool
}

// Now is the store clock, read once when the Tx began.
func (tx *Tx) Now() time.Time { return tx.now }

func (tx *Tx) SessionTTL() time.Duration { return tx.ttl }

func (tx *Tx) Len() int { return len(tx.accounts) }

// Accounts lists every record in storage order.
func (tx *Tx) Accounts() []models.AccountRecord {
	out := make([]models.AccountRecord, len(tx.accounts))
	for i, rec := range tx.accounts {
		out[i] = rec.Clone()
	}
	return out
}

// Find resolves ref to a current index.
func (tx *Tx) Find(ref AccountRef) (int, error) {
	if ref.id != "" {
		for i, rec := range tx.accounts {
			if rec.ID == ref.id {
				return i, nil
			}
		}
	}
	if ref.byID || ref.index < 0 || ref.index >= len(tx.accounts) {
		return 0, ErrAccountNotFound
	}
	return ref.index, nil
}

func (tx *Tx) Account(i int) (models.AccountRecord, error) {
	if i < 0 || i >= len(tx.accounts) {
		return models.AccountRecord{}, ErrAccountNotFound
	}
	return tx.accounts[i].Clone(), nil
}

// AppendAccount stores rec at the end and returns its index.
func (tx *Tx) AppendAccount(rec models.AccountRecord) int {
	tx.accounts = append(tx.accounts, rec.Clone())
	tx.dirty = true
	return len(tx.accounts) - 1
}

// ReplaceAccount overwrites the record at i with rec as given.
func (tx *Tx) ReplaceAccount(i int, rec models.AccountRecord) error {
	if i < 0 || i >= len(tx.accounts) {
		return ErrAccountNotFound
	}
	tx.accounts[i] = rec.Clone()
	tx.dirty = true
	return nil
}

func (tx *Tx) RemoveAccount(i int) error {
	if i < 0 || i >= len(tx.accounts) {
		return ErrAccountNotFound
	}
	tx.accounts = slices.Delete(tx.accounts, i, i+1)
	tx.dirty = true
	return nil
}

func (tx *Tx) Session(token string) (models.UserSession, bool) {
	sess, ok := tx.sessions[token]
	return sess, ok
}

func (tx *Tx) PutSession(token string, sess models.UserSession) {
	tx.sessions[token] = sess
	tx.dirty = true
}

// DeleteSession removes token and reports whether it was present.
func (tx *Tx) DeleteSession(token string) bool {
	if _, ok := tx.sessions[token]; !ok {
		return false
	}
	delete(tx.sessions, token)
	tx.dirty = true
	return true
}

// SessionTokens lists every stored token, sorted.
func (tx *Tx) SessionTokens() []string {
	out := make([]string, 0, len(tx.sessions))
	for token := range tx.sessions {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}
