package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/server/repository"
	"ledger/internal/server/repository/jsonfile"
	"ledger/internal/shared/models"
)

type memBackend struct {
	docs     map[string][]byte
	writes   int
	failWith error
}

func newMemBackend() *memBackend { return &memBackend{docs: map[string][]byte{}} }

func (m *memBackend) ReadDocument(_ context.Context, name string) ([]byte, error) {
	b, ok := m.docs[name]
	if !ok {
		return nil, repository.ErrDocumentNotFound
	}
	return b, nil
}

func (m *memBackend) WriteDocument(_ context.Context, name string, body []byte) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.writes++
	m.docs[name] = body
	return nil
}

func (m *memBackend) Close() error { return nil }

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestLoad_MissingDocumentsStartEmpty(t *testing.T) {
	s := New(newMemBackend())
	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, s.View(context.Background(), func(tx *Tx) error {
		assert.Equal(t, 0, tx.Len())
		assert.Empty(t, tx.SessionTokens())
		return nil
	}))
}

func TestLoad_CorruptDocumentsStartEmpty(t *testing.T) {
	b := newMemBackend()
	b.docs[repository.AccountsDocument] = []byte("{not json")
	b.docs[repository.SessionsDocument] = []byte("[]")
	s := New(b)

	err := s.Load(context.Background())
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "load accounts")
	assert.Contains(t, err.Error(), "load sessions")

	require.NoError(t, s.View(context.Background(), func(tx *Tx) error {
		assert.Equal(t, 0, tx.Len())
		assert.Empty(t, tx.SessionTokens())
		return nil
	}))
}

func TestLoad_DropsExpiredSessionsAndBackfillsIDs(t *testing.T) {
	b := newMemBackend()
	b.docs[repository.AccountsDocument] = []byte(`{"accounts":[
		{"account_code":"1001","account_name":"n","total_amount":10,"manager":"alice","created_time":"2025-03-01T10:00:00","paid_amounts":null,"locked":false}
	]}`)
	sessions := map[string]models.UserSession{
		"fresh":   {Username: "alice", LoginTime: models.FormatTimestamp(t0.Add(-23 * time.Hour))},
		"stale":   {Username: "bob", LoginTime: models.FormatTimestamp(t0.Add(-24 * time.Hour))},
		"garbled": {Username: "carol", LoginTime: "not a time"},
	}
	raw, err := json.Marshal(sessions)
	require.NoError(t, err)
	b.docs[repository.SessionsDocument] = raw

	s := New(b, WithClock(fixedClock(t0)))
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.View(context.Background(), func(tx *Tx) error {
		assert.Equal(t, []string{"fresh"}, tx.SessionTokens())
		rec, err := tx.Account(0)
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.NotNil(t, rec.PaidAmounts)
		return nil
	}))
	assert.Zero(t, b.writes, "load must not write")
}

func TestUpdate_WritesBothDocuments(t *testing.T) {
	dir := t.TempDir()
	accountsPath := filepath.Join(dir, "data.json")
	sessionsPath := filepath.Join(dir, "sessions.json")
	s := New(jsonfile.New(accountsPath, sessionsPath), WithClock(fixedClock(t0)))
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		tx.AppendAccount(models.AccountRecord{ID: "a1", AccountCode: "1001", AccountName: "平安保险养老金", TotalAmount: 1000, Manager: "alice"})
		tx.PutSession("tok", models.UserSession{Username: "alice", LoginTime: models.FormatTimestamp(tx.Now())})
		return nil
	}))

	accountsRaw, err := os.ReadFile(accountsPath)
	require.NoError(t, err)
	assert.Contains(t, string(accountsRaw), "平安保险养老金", "non-ASCII names are stored unescaped")
	var doc struct {
		Accounts []map[string]any `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(accountsRaw, &doc))
	require.Len(t, doc.Accounts, 1)
	assert.NotContains(t, doc.Accounts[0], "remaining_amount")

	sessionsRaw, err := os.ReadFile(sessionsPath)
	require.NoError(t, err)
	var sess map[string]models.UserSession
	require.NoError(t, json.Unmarshal(sessionsRaw, &sess))
	assert.Equal(t, "alice", sess["tok"].Username)

	// a fresh store sees the same state
	reloaded := New(jsonfile.New(accountsPath, sessionsPath), WithClock(fixedClock(t0)))
	require.NoError(t, reloaded.Load(ctx))
	require.NoError(t, reloaded.View(ctx, func(tx *Tx) error {
		assert.Equal(t, 1, tx.Len())
		_, ok := tx.Session("tok")
		assert.True(t, ok)
		return nil
	}))
}

func TestUpdate_CallbackErrorLeavesStateUnchanged(t *testing.T) {
	b := newMemBackend()
	s := New(b)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx *Tx) error {
		tx.AppendAccount(models.AccountRecord{ID: "x"})
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, b.writes)
	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		assert.Equal(t, 0, tx.Len())
		return nil
	}))
}

func TestUpdate_WriteFailureLeavesStateUnchanged(t *testing.T) {
	b := newMemBackend()
	s := New(b)
	ctx := context.Background()
	b.failWith = errors.New("disk full")

	err := s.Update(ctx, func(tx *Tx) error {
		tx.AppendAccount(models.AccountRecord{ID: "x"})
		return nil
	})
	require.ErrorContains(t, err, "disk full")
	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		assert.Equal(t, 0, tx.Len())
		return nil
	}))
}

func TestUpdate_NoChangeNoWrite(t *testing.T) {
	b := newMemBackend()
	s := New(b)
	require.NoError(t, s.Update(context.Background(), func(tx *Tx) error {
		_, _ = tx.Session("missing")
		assert.False(t, tx.DeleteSession("missing"))
		return nil
	}))
	assert.Zero(t, b.writes)
}

func TestView_DiscardsChanges(t *testing.T) {
	b := newMemBackend()
	s := New(b)
	ctx := context.Background()
	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		tx.AppendAccount(models.AccountRecord{ID: "x"})
		return nil
	}))
	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		assert.Equal(t, 0, tx.Len())
		return nil
	}))
	assert.Zero(t, b.writes)
}

func TestSaveAll(t *testing.T) {
	b := newMemBackend()
	s := New(b)
	require.NoError(t, s.SaveAll(context.Background()))
	assert.JSONEq(t, `{"accounts":[]}`, string(b.docs[repository.AccountsDocument]))
	assert.JSONEq(t, `{}`, string(b.docs[repository.SessionsDocument]))
}

func TestTx_AccountsAreCopies(t *testing.T) {
	s := New(newMemBackend())
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		tx.AppendAccount(models.AccountRecord{ID: "a", PaidAmounts: []int64{1}})
		return nil
	}))
	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		rec, err := tx.Account(0)
		require.NoError(t, err)
		rec.PaidAmounts[0] = 99
		tx.Accounts()[0].PaidAmounts[0] = 98
		return nil
	}))
	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		rec, _ := tx.Account(0)
		assert.Equal(t, []int64{1}, rec.PaidAmounts)
		return nil
	}))
}

func TestTx_FindAndRemove(t *testing.T) {
	s := New(newMemBackend())
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		tx.AppendAccount(models.AccountRecord{ID: "a"})
		tx.AppendAccount(models.AccountRecord{ID: "b"})
		tx.AppendAccount(models.AccountRecord{ID: "c"})
		return nil
	}))
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		i, err := tx.Find(RefByID("b"))
		require.NoError(t, err)
		assert.Equal(t, 1, i)

		_, err = tx.Find(RefByIndex(3))
		assert.ErrorIs(t, err, ErrAccountNotFound)
		_, err = tx.Find(RefByIndex(-1))
		assert.ErrorIs(t, err, ErrAccountNotFound)
		_, err = tx.Find(RefByID("zzz"))
		assert.ErrorIs(t, err, ErrAccountNotFound)

		require.NoError(t, tx.RemoveAccount(0))
		// positions shift, ids do not
		i, err = tx.Find(RefByID("b"))
		require.NoError(t, err)
		assert.Equal(t, 0, i)
		assert.ErrorIs(t, tx.RemoveAccount(5), ErrAccountNotFound)
		assert.ErrorIs(t, tx.ReplaceAccount(5, models.AccountRecord{}), ErrAccountNotFound)
		return nil
	}))
}

func TestParseRef(t *testing.T) {
	assert.Equal(t, RefByID("4f1c"), ParseRef("4f1c"))
	assert.Equal(t, "2", ParseRef("2").String())
	assert.Equal(t, "abc", ParseRef("abc").String())
}

func TestTx_FindParsedRef(t *testing.T) {
	st := New(newMemBackend())
	ctx := context.Background()
	require.NoError(t, st.Update(ctx, func(tx *Tx) error {
		tx.AppendAccount(models.AccountRecord{ID: "a"})
		tx.AppendAccount(models.AccountRecord{ID: "b"})
		tx.AppendAccount(models.AccountRecord{ID: "0"})
		return nil
	}))

	require.NoError(t, st.View(ctx, func(tx *Tx) error {
		cases := map[string]int{"1": 1, "2": 2, "b": 1, "0": 2, "-1": -1, "3": -1, "zz": -1}
		for in, want := range cases {
			i, err := tx.Find(ParseRef(in))
			if want < 0 {
				assert.ErrorIs(t, err, ErrAccountNotFound, in)
				continue
			}
			require.NoError(t, err, in)
			assert.Equal(t, want, i, in)
		}
		// explicit index refs ignore ids
		i, err := tx.Find(RefByIndex(0))
		require.NoError(t, err)
		assert.Equal(t, 0, i)
		return nil
	}))
}

func TestWithSessionTTL(t *testing.T) {
	assert.Equal(t, DefaultSessionTTL, New(newMemBackend(), WithSessionTTL(0)).SessionTTL())
	assert.Equal(t, time.Hour, New(newMemBackend(), WithSessionTTL(time.Hour)).SessionTTL())
}
