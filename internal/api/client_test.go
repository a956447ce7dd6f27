package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"recibos/internal/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]core.Company{})
	})

	if _, err := c.Companies.List(context.Background(), "tok-123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestNoTokenNoHeader(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "t"})
	})

	if _, err := c.Auth.Login(context.Background(), "a@b.com", "secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("login must not send a stale credential, got %q", gotAuth)
	}
}

func TestUnauthorizedClassified(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Receipts.List(context.Background(), "expired")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestStatusErrorCarriesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"referência inválida"}`))
	})

	_, err := c.Receipts.Create(context.Background(), "tok", core.Receipt{})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusUnprocessableEntity || se.Message != "referência inválida" {
		t.Fatalf("unexpected StatusError: %+v", se)
	}
}

func TestStatusErrorFallsBackToErrorField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"empresa já existe"}`))
	})

	err := c.Companies.Delete(context.Background(), "tok", 7)
	var se *StatusError
	if !errors.As(err, &se) || se.Message != "empresa já existe" {
		t.Fatalf("expected conflict message, got %v", err)
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := New(srv.URL)
	_, err := c.Companies.List(context.Background(), "tok")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestNotFoundHelper(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"não encontrado"}`))
	})

	_, err := c.Receipts.Get(context.Background(), "tok", 99)
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound, got %v", err)
	}
}

func TestLoginAndMe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var creds struct {
				Email  string `json:"email"`
				Secret string `json:"secret"`
			}
			_ = json.NewDecoder(r.Body).Decode(&creds)
			if creds.Email != "ana@corp.com" || creds.Secret != "s3cret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-xyz"})
		case "/auth/me":
			if r.Header.Get("Authorization") != "Bearer tok-xyz" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(core.Identity{
				ID: "u1", Name: "Ana", Email: "ana@corp.com", Role: core.RoleAdmin,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	token, err := c.Auth.Login(context.Background(), "ana@corp.com", "s3cret")
	if err != nil || token != "tok-xyz" {
		t.Fatalf("login: token=%q err=%v", token, err)
	}

	id, err := c.Auth.Me(context.Background(), token)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if id.Name != "Ana" || id.Role != core.RoleAdmin {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestEmployeeListCompanyParam(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode([]core.Employee{})
	})

	if _, err := c.Employees.List(context.Background(), "tok", 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "empresaId=42" {
		t.Fatalf("expected empresaId=42, got %q", gotQuery)
	}

	if _, err := c.Employees.List(context.Background(), "tok", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "" {
		t.Fatalf("no company selected should mean no query, got %q", gotQuery)
	}
}
