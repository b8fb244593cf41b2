package service

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/logging"
	"ledger/internal/server/store"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidInput            = errors.New("invalid input")
	ErrInvalidCode             = fmt.Errorf("%w: unknown account code", ErrInvalidInput)
	ErrPaymentExceedsRemaining = errors.New("payment exceeds remaining amount")
	ErrSessionNotFound         = errors.New("session not found")
)

// Store is the transactional access the services need; *store.Store
// implements it.
type Store interface {
	View(ctx context.Context, fn func(tx *store.Tx) error) error
	Update(ctx context.Context, fn func(tx *store.Tx) error) error
}

type Services struct {
	Sessions *SessionService
	Ledger   *LedgerService
}

func NewServices(st Store, logger logging.Logger) *Services {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Services{
		Sessions: &SessionService{store: st, logger: logger.With("component", "sessions")},
		Ledger:   &LedgerService{store: st, logger: logger.With("component", "ledger")},
	}
}
