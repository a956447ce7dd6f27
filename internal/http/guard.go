package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"recibos/internal/api"
	"recibos/internal/core"
)

// guarded wraps a handler with session restoration and role checks, on top
// of the standard security headers. Unauthenticated requests bounce to the
// login page carrying the original path; authenticated requests whose role
// is not allowed land on the dashboard. No declared roles means any
// authenticated session is admitted.
func (s *Server) guarded(next func(http.ResponseWriter, *http.Request, core.Session), roles ...core.Role) http.HandlerFunc {
	return s.withSecurityHeaders(func(w http.ResponseWriter, r *http.Request) {
		sess, ok, err := s.sessions.Restore(r.Context(), r)
		if err != nil {
			slog.ErrorContext(r.Context(), "Session restore failed",
				"url", r.URL.Path, "error", err)
			http.Error(w, "erro ao restaurar sessão", http.StatusInternalServerError)
			return
		}
		if !ok {
			s.redirect(w, r, "/?from="+url.QueryEscape(r.URL.RequestURI()))
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, sess.Identity.Role) {
			slog.WarnContext(r.Context(), "Role not allowed for route",
				"url", r.URL.Path, "role", string(sess.Identity.Role))
			s.redirect(w, r, "/dashboard")
			return
		}

		next(w, r, sess)
	})
}

// redirect handles both full-page navigation and HTMX requests, which need
// an HX-Redirect header instead of a 3xx the XHR would follow silently.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleAPIError funnels backend failures into one place. A rejected token
// clears the session and sends the user back to login; everything else
// turns into a notification. Returns true when the response was written.
func (s *Server) handleAPIError(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}
	ctx := r.Context()

	if errors.Is(err, api.ErrUnauthorized) {
		slog.WarnContext(ctx, "Backend rejected session token", "url", r.URL.Path)
		s.sessions.Clear(ctx, w, r)
		s.redirect(w, r, "/")
		return true
	}
	if errors.Is(err, api.ErrUnavailable) {
		slog.ErrorContext(ctx, "Backend unavailable", "url", r.URL.Path, "error", err)
		NewHTMXResponse().
			Status(http.StatusBadGateway).
			TriggerErrorNotification("Serviço indisponível. Tente novamente.").
			BodyHTML(`<div class="error">Serviço indisponível. Tente novamente.</div>`).
			Write(w)
		return true
	}

	var se *api.StatusError
	if errors.As(err, &se) {
		slog.ErrorContext(ctx, "Backend request failed",
			"url", r.URL.Path, "status", se.Code, "message", se.Message)
		msg := se.Message
		if msg == "" {
			msg = "Falha na operação"
		}
		ErrorResponse(http.StatusBadGateway, msg).
			TriggerErrorNotification(msg).
			Write(w)
		return true
	}

	slog.ErrorContext(ctx, "Unexpected backend error", "url", r.URL.Path, "error", err)
	InternalServerError("Erro inesperado").
		TriggerErrorNotification("Erro inesperado").
		Write(w)
	return true
}
