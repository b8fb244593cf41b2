package httpapi

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"ledger/internal/server/mapping"
	"ledger/internal/shared/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type loginPage struct {
	Error string
}

type indexPage struct {
	Session  models.UserSession
	Accounts []models.AccountView
	Mapping  []mapping.Entry
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind a 200.
func (r *Router) render(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error(req.Context(), "render failed", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
