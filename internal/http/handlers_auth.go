package http

import (
	"log/slog"
	"net/http"
	"strings"

	"recibos/internal/session"
)

// handleLoginPage renders the login form, or jumps straight to the
// dashboard when a valid session already exists.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	sess, ok, err := s.sessions.Restore(r.Context(), r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Session restore failed on login page", "error", err)
	}
	if ok && sess.Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := struct {
		From  string
		Error string
	}{
		From: sanitizeRedirect(r.URL.Query().Get("from")),
	}
	s.render(w, r, "login.html", data)
}

// handleLogin authenticates against the backend and establishes the
// session. On success the user returns to the page that sent them here.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de requisição inválido").Write(w)
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	secret := r.Form.Get("senha")
	if email == "" || secret == "" {
		UnprocessableEntityError("Informe e-mail e senha").Write(w)
		return
	}

	sess, err := s.sessions.Login(r.Context(), w, r, email, secret)
	if err != nil {
		msg := session.LoginErrorMessage(err)
		slog.WarnContext(r.Context(), "Login failed", "email", email, "error", err)
		ErrorResponse(http.StatusUnauthorized, msg).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Login succeeded",
		"email", email, "role", string(sess.Identity.Role))

	target := sanitizeRedirect(r.Form.Get("from"))
	if target == "" {
		target = "/dashboard"
	}
	s.redirect(w, r, target)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context(), w, r); err != nil {
		slog.ErrorContext(r.Context(), "Logout failed", "error", err)
	}
	s.redirect(w, r, "/")
}

// sanitizeRedirect only accepts local absolute paths, dropping anything
// that could bounce the user off-site.
func sanitizeRedirect(target string) string {
	target = strings.TrimSpace(target)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return ""
	}
	return target
}
