package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSessionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.PutSession(ctx, "sid-1", `{"id":"u1"}`, "tok-1"); err != nil {
		t.Fatalf("put: %v", err)
	}

	identity, token, err := repo.GetSession(ctx, "sid-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if identity != `{"id":"u1"}` || token != "tok-1" {
		t.Fatalf("unexpected session: identity=%q token=%q", identity, token)
	}
}

func TestSessionOverwrite(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.PutSession(ctx, "sid-1", `{"id":"u1"}`, "old"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.PutSession(ctx, "sid-1", `{"id":"u1"}`, "new"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	_, token, err := repo.GetSession(ctx, "sid-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if token != "new" {
		t.Fatalf("expected refreshed token, got %q", token)
	}

	n, err := repo.CountEntries(ctx, "sid-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("overwrite must leave exactly two entries, got %d", n)
	}
}

func TestSessionMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, _, err := repo.GetSession(context.Background(), "nope")
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestHalfPresentSessionRepaired(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Only one of the two correlated entries exists.
	if err := repo.PutEntry(ctx, "sid-half", "token", "tok-orphan"); err != nil {
		t.Fatalf("seed orphan entry: %v", err)
	}

	_, _, err := repo.GetSession(ctx, "sid-half")
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("half-present session must read as absent, got %v", err)
	}

	// The read should also have purged the orphan.
	n, err := repo.CountEntries(ctx, "sid-half")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("orphan entry should be gone, found %d", n)
	}
}

func TestDeleteSession(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.PutSession(ctx, "sid-1", `{}`, "tok"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.DeleteSession(ctx, "sid-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := repo.GetSession(ctx, "sid-1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after delete, got %v", err)
	}

	// Deleting again is a no-op, not an error.
	if err := repo.DeleteSession(ctx, "sid-1"); err != nil {
		t.Fatalf("repeated delete: %v", err)
	}
}
