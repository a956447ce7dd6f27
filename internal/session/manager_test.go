package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"recibos/internal/api"
	"recibos/internal/core"
	"recibos/internal/storage"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T, backend http.HandlerFunc) (*Manager, *storage.Repository) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client := api.New(srv.URL)
	return NewManager(testSecret, repo, client.Auth), repo
}

func authBackend(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var creds struct {
				Email  string `json:"email"`
				Secret string `json:"secret"`
			}
			_ = json.NewDecoder(r.Body).Decode(&creds)
			if creds.Secret != "s3cret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-1"})
		case "/auth/me":
			_ = json.NewEncoder(w).Encode(core.Identity{
				ID: "u1", Name: "Ana Admin", Email: "ana@corp.com", Role: core.RoleAdmin,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

// carryCookies moves the cookies a handler set onto a follow-up request.
func carryCookies(t *testing.T, rec *httptest.ResponseRecorder, req *http.Request) {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
}

func TestLoginEstablishesSession(t *testing.T) {
	m, repo := newTestManager(t, authBackend(t))
	ctx := context.Background()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)

	sess, err := m.Login(ctx, rec, req, "ana@corp.com", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !sess.Authenticated() || sess.Identity.Role != core.RoleAdmin {
		t.Fatalf("unexpected session: %+v", sess)
	}

	// Both correlated entries must exist in the vault.
	n, err := repo.CountEntries(ctx, sess.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 vault entries, got %d", n)
	}

	// A follow-up request with the cookie restores the same session.
	next := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	carryCookies(t, rec, next)

	restored, ok, err := m.Restore(ctx, next)
	if err != nil || !ok {
		t.Fatalf("restore: ok=%v err=%v", ok, err)
	}
	if restored.ID != sess.ID || restored.Token != "tok-1" || restored.Identity.Email != "ana@corp.com" {
		t.Fatalf("restored session mismatch: %+v", restored)
	}
}

func TestLoginRejectedLeavesNoState(t *testing.T) {
	m, repo := newTestManager(t, authBackend(t))
	ctx := context.Background()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)

	_, err := m.Login(ctx, rec, req, "ana@corp.com", "wrong")
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if msg := LoginErrorMessage(err); msg != "Credenciais inválidas" {
		t.Fatalf("unexpected message: %q", msg)
	}

	// Nothing should have been written anywhere.
	if _, _, err := repo.GetSession(ctx, "anything"); !errors.Is(err, storage.ErrNoSession) {
		t.Fatalf("vault should be empty, got %v", err)
	}
}

func TestRestoreWithoutCookie(t *testing.T) {
	m, _ := newTestManager(t, authBackend(t))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	_, ok, err := m.Restore(context.Background(), req)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if ok {
		t.Fatal("no cookie must mean unauthenticated")
	}
}

func TestLogoutClearsVaultAndCookie(t *testing.T) {
	m, repo := newTestManager(t, authBackend(t))
	ctx := context.Background()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	sess, err := m.Login(ctx, rec, req, "ana@corp.com", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	outRec := httptest.NewRecorder()
	outReq := httptest.NewRequest(http.MethodPost, "/logout", nil)
	carryCookies(t, rec, outReq)

	if err := m.Logout(ctx, outRec, outReq); err != nil {
		t.Fatalf("logout: %v", err)
	}

	// Vault empty the moment Logout returns.
	n, err := repo.CountEntries(ctx, sess.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("vault should be empty after logout, found %d entries", n)
	}

	// The old cookie no longer restores anything.
	again := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	carryCookies(t, rec, again)
	if _, ok, _ := m.Restore(ctx, again); ok {
		t.Fatal("stale cookie must not restore a session")
	}
}

func TestRestoreUnparseableIdentityClears(t *testing.T) {
	m, repo := newTestManager(t, authBackend(t))
	ctx := context.Background()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	sess, err := m.Login(ctx, rec, req, "ana@corp.com", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Corrupt the stored identity behind the manager's back.
	if err := repo.PutSession(ctx, sess.ID, "{not json", "tok-1"); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	next := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	carryCookies(t, rec, next)

	_, ok, err := m.Restore(ctx, next)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if ok {
		t.Fatal("corrupt session must read as unauthenticated")
	}

	n, _ := repo.CountEntries(ctx, sess.ID)
	if n != 0 {
		t.Fatalf("corrupt session should have been purged, found %d entries", n)
	}
}

func TestLoginErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{api.ErrUnauthorized, "Credenciais inválidas"},
		{api.ErrUnavailable, "Serviço de autenticação indisponível. Tente novamente."},
		{&api.StatusError{Code: 422, Message: "conta bloqueada"}, "conta bloqueada"},
		{errors.New("boom"), "Falha ao fazer login"},
	}
	for _, tc := range cases {
		if got := LoginErrorMessage(tc.err); got != tc.want {
			t.Fatalf("%v: expected %q, got %q", tc.err, tc.want, got)
		}
	}
}
