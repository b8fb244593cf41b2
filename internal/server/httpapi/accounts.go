package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ledger/internal/server/mapping"
	"ledger/internal/server/service"
	"ledger/internal/server/store"
	"ledger/internal/shared/models"
)

func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) {
	if _, err := r.services.Sessions.SweepExpired(req.Context()); err != nil {
		r.logger.Warn(req.Context(), "session sweep failed", "error", err)
	}
	sess, ok := getSession(req.Context())
	if !ok {
		r.cookies.clear(w)
		r.render(w, req, http.StatusOK, "login.html", loginPage{})
		return
	}
	accounts, err := r.services.Ledger.List(req.Context())
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	r.render(w, req, http.StatusOK, "index.html", indexPage{
		Session:  sess,
		Accounts: accounts,
		Mapping:  mapping.Entries(),
	})
}

func (r *Router) handleAddAccount(w http.ResponseWriter, req *http.Request) {
	sess, ok := r.requireSession(w, req)
	if !ok {
		return
	}
	total, err := formInt(req, "total_amount")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	code := strings.TrimSpace(req.PostFormValue("account_code"))
	if _, err := r.services.Ledger.Create(req.Context(), code, total, sess); err != nil {
		r.writeError(w, req, err)
		return
	}
	redirectHome(w, req)
}

func (r *Router) handleAddPayment(w http.ResponseWriter, req *http.Request) {
	sess, ok := r.requireSession(w, req)
	if !ok {
		return
	}
	amount, err := formInt(req, "amount")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if _, err := r.services.Ledger.AddPayment(req.Context(), accountRef(req), amount, sess); err != nil {
		r.writeError(w, req, err)
		return
	}
	redirectHome(w, req)
}

func (r *Router) handleToggleLock(w http.ResponseWriter, req *http.Request) {
	sess, ok := r.requireSession(w, req)
	if !ok {
		return
	}
	if _, err := r.services.Ledger.ToggleLock(req.Context(), accountRef(req), sess); err != nil {
		r.writeError(w, req, err)
		return
	}
	redirectHome(w, req)
}

func (r *Router) handleDeleteAccount(w http.ResponseWriter, req *http.Request) {
	sess, ok := r.requireSession(w, req)
	if !ok {
		return
	}
	if err := r.services.Ledger.Delete(req.Context(), accountRef(req), sess); err != nil {
		r.writeError(w, req, err)
		return
	}
	redirectHome(w, req)
}

func (r *Router) handleAccountName(w http.ResponseWriter, req *http.Request) {
	name, err := r.services.Ledger.AccountName(chi.URLParam(req, "code"))
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"account_name": name})
}

func (r *Router) requireSession(w http.ResponseWriter, req *http.Request) (models.UserSession, bool) {
	sess, ok := getSession(req.Context())
	if !ok {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not logged in"})
	}
	return sess, ok
}

// accountRef reads the {ref} segment: an index into the current listing or
// an account id.
func accountRef(req *http.Request) store.AccountRef {
	return store.ParseRef(chi.URLParam(req, "ref"))
}

func formInt(req *http.Request, field string) (int64, error) {
	raw := strings.TrimSpace(req.PostFormValue(field))
	if raw == "" {
		return 0, errors.New(field + " required")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New(field + " must be an integer")
	}
	return v, nil
}

func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrSessionNotFound):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrPaymentExceedsRemaining):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		r.logger.Error(req.Context(), "request failed", "path", req.URL.Path, "error", err)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
