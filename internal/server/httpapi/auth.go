package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"ledger/internal/server/service"
)

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}
	viewer, err := parseFormBool(req.PostFormValue("viewer_mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid viewer_mode"})
		return
	}
	token, sess, err := r.services.Sessions.Create(req.Context(), req.PostFormValue("username"), viewer)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			r.render(w, req, http.StatusBadRequest, "login.html", loginPage{Error: err.Error()})
			return
		}
		r.writeError(w, req, err)
		return
	}
	issued, err := sess.LoggedInAt()
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	if err := r.cookies.set(w, token, issued); err != nil {
		r.writeError(w, req, err)
		return
	}
	redirectHome(w, req)
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	if token, err := r.cookies.tokenFromRequest(req); err == nil {
		if err := r.services.Sessions.Destroy(req.Context(), token); err != nil {
			r.writeError(w, req, err)
			return
		}
	}
	r.cookies.clear(w)
	redirectHome(w, req)
}

// parseFormBool accepts the spellings HTML forms and API clients send.
func parseFormBool(v string) (bool, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "":
		return false, nil
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(v)
}
