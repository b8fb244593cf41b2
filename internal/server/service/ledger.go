package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ledger/internal/logging"
	"ledger/internal/server/mapping"
	"ledger/internal/server/store"
	"ledger/internal/shared/models"
)

// LedgerService implements the account operations and their authorization
// rules:
//   - viewers cannot create accounts;
//   - a locked account takes payments only from its manager;
//   - only the manager locks or unlocks;
//   - the manager or any viewer may delete.
type LedgerService struct {
	store  Store
	logger logging.Logger
}

// List returns every account in storage order with its remaining amount.
func (l *LedgerService) List(ctx context.Context) ([]models.AccountView, error) {
	var out []models.AccountView
	err := l.store.View(ctx, func(tx *store.Tx) error {
		recs := tx.Accounts()
		out = make([]models.AccountView, len(recs))
		for i, rec := range recs {
			out[i] = models.NewAccountView(i, rec)
		}
		return nil
	})
	return out, err
}

func (l *LedgerService) Create(ctx context.Context, code string, total int64, sess models.UserSession) (models.AccountView, error) {
	if sess.IsViewer {
		return models.AccountView{}, fmt.Errorf("%w: viewers cannot add accounts", ErrForbidden)
	}
	name, ok := mapping.Lookup(code)
	if !ok {
		return models.AccountView{}, ErrInvalidCode
	}

	var view models.AccountView
	err := l.store.Update(ctx, func(tx *store.Tx) error {
		rec := models.AccountRecord{
			ID:          uuid.NewString(),
			AccountCode: code,
			AccountName: name,
			TotalAmount: total,
			Manager:     sess.Username,
			CreatedTime: models.FormatTimestamp(tx.Now()),
			PaidAmounts: []int64{},
		}
		i := tx.AppendAccount(rec)
		view = models.NewAccountView(i, rec)
		return nil
	})
	if err != nil {
		return models.AccountView{}, err
	}
	l.logger.Info(ctx, "account created", "id", view.ID, "code", code, "manager", sess.Username)
	return view, nil
}

// AddPayment records amount against the account. The amount may not exceed
// what remains. Negative amounts are accepted as long as the remaining amount
// still fits in an int64.
func (l *LedgerService) AddPayment(ctx context.Context, ref store.AccountRef, amount int64, sess models.UserSession) (models.AccountView, error) {
	var view models.AccountView
	err := l.store.Update(ctx, func(tx *store.Tx) error {
		i, rec, err := find(tx, ref)
		if err != nil {
			return err
		}
		if rec.Locked && rec.Manager != sess.Username {
			return fmt.Errorf("%w: account is locked", ErrForbidden)
		}
		remaining, ok := rec.CheckedRemaining()
		if !ok {
			return fmt.Errorf("%w: stored amounts out of range", ErrInvalidInput)
		}
		if amount > remaining {
			return ErrPaymentExceedsRemaining
		}
		rec.PaidAmounts = append(rec.PaidAmounts, amount)
		if _, ok := rec.CheckedRemaining(); !ok {
			return fmt.Errorf("%w: payment amount out of range", ErrInvalidInput)
		}
		if err := tx.ReplaceAccount(i, rec); err != nil {
			return err
		}
		view = models.NewAccountView(i, rec)
		return nil
	})
	if err != nil {
		return models.AccountView{}, err
	}
	l.logger.Info(ctx, "payment recorded", "id", view.ID, "amount", amount, "remaining", view.RemainingAmount)
	return view, nil
}

// ToggleLock flips the lock. Only the manager may do it; viewers never can.
func (l *LedgerService) ToggleLock(ctx context.Context, ref store.AccountRef, sess models.UserSession) (models.AccountView, error) {
	var view models.AccountView
	err := l.store.Update(ctx, func(tx *store.Tx) error {
		i, rec, err := find(tx, ref)
		if err != nil {
			return err
		}
		if sess.IsViewer || rec.Manager != sess.Username {
			return fmt.Errorf("%w: only the manager can lock or unlock", ErrForbidden)
		}
		rec.Locked = !rec.Locked
		if err := tx.ReplaceAccount(i, rec); err != nil {
			return err
		}
		view = models.NewAccountView(i, rec)
		return nil
	})
	if err != nil {
		return models.AccountView{}, err
	}
	l.logger.Info(ctx, "lock toggled", "id", view.ID, "locked", view.Locked)
	return view, nil
}

func (l *LedgerService) Delete(ctx context.Context, ref store.AccountRef, sess models.UserSession) error {
	var id string
	err := l.store.Update(ctx, func(tx *store.Tx) error {
		i, rec, err := find(tx, ref)
		if err != nil {
			return err
		}
		if rec.Manager != sess.Username && !sess.IsViewer {
			return fmt.Errorf("%w: only the manager can delete", ErrForbidden)
		}
		id = rec.ID
		return tx.RemoveAccount(i)
	})
	if err != nil {
		return err
	}
	l.logger.Info(ctx, "account deleted", "id", id, "by", sess.Username)
	return nil
}

// UpdateRaw replaces the stored record wholesale. No authorization is applied
// and nothing is merged, except that the stored id is kept.
func (l *LedgerService) UpdateRaw(ctx context.Context, ref store.AccountRef, rec models.AccountRecord) (models.AccountView, error) {
	var view models.AccountView
	err := l.store.Update(ctx, func(tx *store.Tx) error {
		i, cur, err := find(tx, ref)
		if err != nil {
			return err
		}
		rec.ID = cur.ID
		if err := tx.ReplaceAccount(i, rec); err != nil {
			return err
		}
		view = models.NewAccountView(i, rec)
		return nil
	})
	return view, err
}

func (l *LedgerService) AccountName(code string) (string, error) {
	name, ok := mapping.Lookup(code)
	if !ok {
		return "", fmt.Errorf("%w: account code %s", ErrNotFound, code)
	}
	return name, nil
}

func find(tx *store.Tx, ref store.AccountRef) (int, models.AccountRecord, error) {
	i, err := tx.Find(ref)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return 0, models.AccountRecord{}, fmt.Errorf("%w: account %s", ErrNotFound, ref)
		}
		return 0, models.AccountRecord{}, err
	}
	rec, err := tx.Account(i)
	if err != nil {
		return 0, models.AccountRecord{}, err
	}
	return i, rec, nil
}
