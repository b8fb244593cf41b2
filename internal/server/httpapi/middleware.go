package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"ledger/internal/server/service"
	"ledger/internal/shared/models"
)

type contextKey string

const sessionContextKey contextKey = "session"

// sessionMiddleware attaches the caller's live session, if any, to the
// request context. It never rejects a request; handlers decide.
func (r *Router) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		token, err := r.cookies.tokenFromRequest(req)
		if err != nil {
			next.ServeHTTP(w, req)
			return
		}
		sess, err := r.services.Sessions.Resolve(req.Context(), token)
		switch {
		case err == nil:
			ctx := context.WithValue(req.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, req.WithContext(ctx))
		case errors.Is(err, service.ErrSessionNotFound):
			next.ServeHTTP(w, req)
		default:
			r.writeError(w, req, err)
		}
	})
}

func getSession(ctx context.Context) (models.UserSession, bool) {
	sess, ok := ctx.Value(sessionContextKey).(models.UserSession)
	return sess, ok
}

func (r *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)
		r.logger.Info(req.Context(), "request",
			"request_id", middleware.GetReqID(req.Context()),
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
