package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ledger/internal/server/repository/jsonfile"
	"ledger/internal/server/store"
	"ledger/internal/shared/models"
)

// clock is a settable time source for the store.
type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestServices(t *testing.T) (*Services, *store.Store, *clock) {
	t.Helper()
	dir := t.TempDir()
	c := &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	st := store.New(
		jsonfile.New(filepath.Join(dir, "data.json"), filepath.Join(dir, "sessions.json")),
		store.WithClock(c.Now),
	)
	require.NoError(t, st.Load(context.Background()))
	return NewServices(st, nil), st, c
}

func user(name string) models.UserSession {
	return models.UserSession{Username: name}
}

func viewer() models.UserSession {
	return models.UserSession{Username: models.ViewerUsername, IsViewer: true}
}
