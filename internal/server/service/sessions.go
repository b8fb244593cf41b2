package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ledger/internal/logging"
	"ledger/internal/server/store"
	"ledger/internal/shared/models"
)

// SessionService creates, resolves and expires login sessions. A session is
// expired once it is at least the store's session TTL old; expired sessions
// are removed lazily by Resolve and in bulk by SweepExpired.
type SessionService struct {
	store  Store
	logger logging.Logger
}

// Create starts a session and returns its opaque token. Viewer sessions
// ignore username and use models.ViewerUsername.
func (s *SessionService) Create(ctx context.Context, username string, isViewer bool) (string, models.UserSession, error) {
	username = strings.TrimSpace(username)
	if isViewer {
		username = models.ViewerUsername
	} else {
		if username == "" {
			return "", models.UserSession{}, fmt.Errorf("%w: username required", ErrInvalidInput)
		}
		if username == models.ViewerUsername {
			return "", models.UserSession{}, fmt.Errorf("%w: username reserved", ErrInvalidInput)
		}
	}

	token := uuid.NewString()
	var sess models.UserSession
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		sess = models.UserSession{
			Username:  username,
			IsViewer:  isViewer,
			LoginTime: models.FormatTimestamp(tx.Now()),
		}
		tx.PutSession(token, sess)
		return nil
	})
	if err != nil {
		return "", models.UserSession{}, err
	}
	s.logger.Info(ctx, "session created", "username", username, "viewer", isViewer)
	return token, sess, nil
}

// Resolve returns the live session for token. An expired session is deleted
// on the way out.
func (s *SessionService) Resolve(ctx context.Context, token string) (models.UserSession, error) {
	if token == "" {
		return models.UserSession{}, ErrSessionNotFound
	}
	var (
		sess  models.UserSession
		found bool
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		cur, ok := tx.Session(token)
		if !ok {
			return nil
		}
		if cur.Expired(tx.Now(), tx.SessionTTL()) {
			tx.DeleteSession(token)
			return nil
		}
		sess, found = cur, true
		return nil
	})
	if err != nil {
		return models.UserSession{}, err
	}
	if !found {
		return models.UserSession{}, ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionService) Destroy(ctx context.Context, token string) error {
	return s.store.Update(ctx, func(tx *store.Tx) error {
		if tx.DeleteSession(token) {
			s.logger.Info(ctx, "session destroyed")
		}
		return nil
	})
}

// SweepExpired deletes every expired session and reports how many went.
func (s *SessionService) SweepExpired(ctx context.Context) (int, error) {
	removed := 0
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		for _, token := range tx.SessionTokens() {
			sess, _ := tx.Session(token)
			if sess.Expired(tx.Now(), tx.SessionTTL()) {
				tx.DeleteSession(token)
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info(ctx, "expired sessions removed", "count", removed)
	}
	return removed, nil
}

// List returns every stored session keyed by token, expired ones included.
func (s *SessionService) List(ctx context.Context) (map[string]models.UserSession, error) {
	out := map[string]models.UserSession{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		for _, token := range tx.SessionTokens() {
			out[token], _ = tx.Session(token)
		}
		return nil
	})
	return out, err
}
