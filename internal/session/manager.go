// Package session owns "who is logged in and with what privileges". The
// Manager is constructed and injected explicitly; there is no ambient
// package-level session state. Identity and token live server-side in the
// sqlite vault, keyed by an opaque sid carried in a cookie, and are always
// written and cleared together.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"recibos/internal/api"
	"recibos/internal/core"
	"recibos/internal/storage"
)

const (
	cookieName = "recibos_sid"
	sidKey     = "sid"
)

type Manager struct {
	cookies *sessions.CookieStore
	vault   *storage.Repository
	auth    *api.AuthService
}

func NewManager(cookieSecret []byte, vault *storage.Repository, auth *api.AuthService) *Manager {
	store := sessions.NewCookieStore(cookieSecret)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   12 * 60 * 60,
	}
	return &Manager{cookies: store, vault: vault, auth: auth}
}

// Login authenticates against the backend, resolves the full identity and
// persists both to the vault under a fresh sid. On any failure the prior
// session (if one exists) is left untouched and the classified error is
// returned for the handler to render.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, email, secret string) (core.Session, error) {
	token, err := m.auth.Login(ctx, email, secret)
	if err != nil {
		return core.Session{}, fmt.Errorf("login: %w", err)
	}

	identity, err := m.auth.Me(ctx, token)
	if err != nil {
		return core.Session{}, fmt.Errorf("resolve identity: %w", err)
	}
	if err := identity.Validate(); err != nil {
		return core.Session{}, fmt.Errorf("backend returned malformed identity: %w", err)
	}

	sid, err := newSID()
	if err != nil {
		return core.Session{}, fmt.Errorf("generate sid: %w", err)
	}
	identityJSON, err := json.Marshal(identity)
	if err != nil {
		return core.Session{}, fmt.Errorf("encode identity: %w", err)
	}
	if err := m.vault.PutSession(ctx, sid, string(identityJSON), token); err != nil {
		return core.Session{}, fmt.Errorf("persist session: %w", err)
	}

	cookie, _ := m.cookies.Get(r, cookieName)
	cookie.Values[sidKey] = sid
	if err := cookie.Save(r, w); err != nil {
		// The vault row is orphaned without its cookie; drop it.
		_ = m.vault.DeleteSession(ctx, sid)
		return core.Session{}, fmt.Errorf("set session cookie: %w", err)
	}

	slog.InfoContext(ctx, "Login succeeded",
		"user", identity.Email, "role", identity.Role)
	return core.Session{ID: sid, Identity: identity, Token: token}, nil
}

// Logout clears the vault entries and the cookie. The session is
// unauthenticated the moment this returns, before any navigation happens.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sid, ok := m.sidFrom(r)
	if ok {
		if err := m.vault.DeleteSession(ctx, sid); err != nil {
			return fmt.Errorf("clear vault: %w", err)
		}
	}
	m.dropCookie(w, r)
	slog.InfoContext(ctx, "Session logged out")
	return nil
}

// Restore resolves the request's session from the vault. It reports
// unauthenticated (with no error) when there is no cookie, no record, or a
// record that fails to parse; a half-present record is cleared by the
// vault on read, so restore never yields a half-valid state.
func (m *Manager) Restore(ctx context.Context, r *http.Request) (core.Session, bool, error) {
	sid, ok := m.sidFrom(r)
	if !ok {
		return core.Session{}, false, nil
	}

	identityJSON, token, err := m.vault.GetSession(ctx, sid)
	if errors.Is(err, storage.ErrNoSession) {
		return core.Session{}, false, nil
	}
	if err != nil {
		return core.Session{}, false, fmt.Errorf("restore session: %w", err)
	}

	var identity core.Identity
	if err := json.Unmarshal([]byte(identityJSON), &identity); err != nil || identity.Validate() != nil {
		slog.WarnContext(ctx, "Stored identity failed to parse, clearing session", "sid", sid)
		if derr := m.vault.DeleteSession(ctx, sid); derr != nil {
			return core.Session{}, false, fmt.Errorf("clear unparseable session: %w", derr)
		}
		return core.Session{}, false, nil
	}

	sess := core.Session{ID: sid, Identity: identity, Token: token}
	return sess, sess.Authenticated(), nil
}

// Clear destroys the session after a downstream authorization failure,
// regardless of which page the failing request came from.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if sid, ok := m.sidFrom(r); ok {
		if err := m.vault.DeleteSession(ctx, sid); err != nil {
			slog.ErrorContext(ctx, "Failed clearing vault after auth failure", "error", err)
		}
	}
	m.dropCookie(w, r)
}

func (m *Manager) sidFrom(r *http.Request) (string, bool) {
	cookie, err := m.cookies.Get(r, cookieName)
	if err != nil {
		return "", false
	}
	sid, ok := cookie.Values[sidKey].(string)
	return sid, ok && sid != ""
}

func (m *Manager) dropCookie(w http.ResponseWriter, r *http.Request) {
	cookie, _ := m.cookies.Get(r, cookieName)
	cookie.Options.MaxAge = -1
	delete(cookie.Values, sidKey)
	_ = cookie.Save(r, w)
}

func newSID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// LoginErrorMessage maps a classified login failure onto the user-facing
// message shown on the login form.
func LoginErrorMessage(err error) string {
	var se *api.StatusError
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return "Credenciais inválidas"
	case errors.Is(err, api.ErrUnavailable):
		return "Serviço de autenticação indisponível. Tente novamente."
	case errors.As(err, &se) && se.Message != "":
		return se.Message
	default:
		return "Falha ao fazer login"
	}
}
