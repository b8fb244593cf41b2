package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ledger/internal/logging"
	"ledger/internal/server/config"
	"ledger/internal/server/httpapi"
	"ledger/internal/server/repository/jsonfile"
	"ledger/internal/server/repository/sqlite"
	"ledger/internal/server/secret"
	"ledger/internal/server/service"
	"ledger/internal/server/store"
)

type App struct {
	version   string
	buildDate string
	cfg       config.Config
	logger    logging.Logger
	store     *store.Store
	services  *service.Services
	server    *http.Server
}

// OpenStore opens the configured backend and loads both documents. Load
// failures are logged and returned together with the store, which is still
// usable with the affected collection empty. Any other error leaves the store
// nil.
func OpenStore(ctx context.Context, cfg config.Config, logger logging.Logger, opts ...store.Option) (*store.Store, error) {
	backend, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]store.Option{store.WithSessionTTL(cfg.SessionTTL)}, opts...)
	st := store.New(backend, opts...)
	loadErr := st.Load(ctx)
	if loadErr != nil {
		var le *store.LoadError
		for _, e := range unjoin(loadErr) {
			if errors.As(e, &le) {
				logger.Warn(ctx, "document not loaded, starting empty", "document", le.Document, "error", le.Err)
				continue
			}
			logger.Warn(ctx, "load failed", "error", e)
		}
	}
	return st, loadErr
}

func openBackend(cfg config.Config) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendJSON, "":
		return jsonfile.New(cfg.AccountsFile, cfg.SessionsFile), nil
	case config.BackendSQLite:
		return sqlite.New(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func New(cfg config.Config, logger logging.Logger, version, buildDate string) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	ctx := context.Background()

	key := []byte(cfg.CookieSecret)
	if len(key) == 0 {
		var created bool
		var err error
		key, created, err = secret.LoadOrGenerate(cfg.SecretFile)
		if err != nil {
			return nil, fmt.Errorf("cookie secret: %w", err)
		}
		if created {
			logger.Info(ctx, "generated cookie secret", "path", cfg.SecretFile)
		}
	}

	// A document that failed to load is left untouched until the next
	// mutation; the server starts with it empty.
	st, err := OpenStore(ctx, cfg, logger)
	if st == nil {
		return nil, err
	}
	services := service.NewServices(st, logger)
	router := httpapi.NewRouter(services, logger, httpapi.Options{
		CookieSecret: key,
		SessionTTL:   st.SessionTTL(),
		SecureCookie: cfg.SecureCookie,
	})
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &App{
		version:   version,
		buildDate: buildDate,
		cfg:       cfg,
		logger:    logger,
		store:     st,
		services:  services,
		server:    server,
	}, nil
}

func (a *App) Handler() http.Handler { return a.server.Handler }

// Run serves until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}

// Serve runs the HTTP server and the session sweeper until ctx is done, then
// shuts both down and closes the store.
func (a *App) Serve(ctx context.Context) error {
	defer func() { _ = a.store.Close() }()

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		a.sweep(sweepCtx, a.cfg.SweepInterval)
	}()
	defer func() {
		cancelSweep()
		<-sweepDone
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	a.logger.Info(ctx, "ledger server started", "version", a.version, "build_date", a.buildDate, "addr", a.server.Addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.logger.Info(shutdownCtx, "shutting down")
	return a.server.Shutdown(shutdownCtx)
}

// sweep removes expired sessions every interval. A zero interval disables it.
func (a *App) sweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.services.Sessions.SweepExpired(ctx); err != nil {
				a.logger.Error(ctx, "session sweep failed", "error", err)
			}
		}
	}
}
