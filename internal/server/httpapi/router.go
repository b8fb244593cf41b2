package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ledger/internal/logging"
	"ledger/internal/server/service"
)

type Options struct {
	// CookieSecret signs the session cookie.
	CookieSecret []byte
	SessionTTL   time.Duration
	SecureCookie bool
	// Now defaults to time.Now. It must agree with the store clock.
	Now func() time.Time
}

type Router struct {
	services *service.Services
	logger   logging.Logger
	cookies  cookieCodec
}

func NewRouter(services *service.Services, logger logging.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Router{
		services: services,
		logger:   logger.With("component", "httpapi"),
		cookies: cookieCodec{
			secret: opts.CookieSecret,
			ttl:    opts.SessionTTL,
			secure: opts.SecureCookie,
			now:    opts.Now,
		},
	}
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(r.requestLogger)
	mux.Use(middleware.Recoverer)

	mux.Get("/health", r.handleHealth)
	mux.Get("/get_account_name/{code}", r.handleAccountName)
	mux.Post("/login", r.handleLogin)
	mux.Post("/logout", r.handleLogout)

	mux.Group(func(sr chi.Router) {
		sr.Use(r.sessionMiddleware)
		sr.Get("/", r.handleIndex)
		sr.Post("/add_account", r.handleAddAccount)
		sr.Post("/add_payment/{ref}", r.handleAddPayment)
		sr.Post("/toggle_lock/{ref}", r.handleToggleLock)
		sr.Post("/delete_account/{ref}", r.handleDeleteAccount)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func redirectHome(w http.ResponseWriter, req *http.Request) {
	http.Redirect(w, req, "/", http.StatusSeeOther)
}
