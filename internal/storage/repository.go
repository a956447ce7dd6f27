// Package storage is the local sqlite layer: the session vault (the app's
// durable client state) and the issued-receipt log consumed by the ledger
// worker.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNoSession is returned when a sid has no complete vault record.
var ErrNoSession = errors.New("no stored session")

const (
	kindIdentity = "identity"
	kindToken    = "token"
)

type Repository struct {
	db *sql.DB
}

// sqliteDSN sets a busy timeout so the web process and the worker can share
// the file without immediate SQLITE_BUSY failures.
func sqliteDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)"
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// PutSession stores the identity document and token for sid in one
// transaction, replacing any previous record. The two entries are only
// ever written together.
func (r *Repository) PutSession(ctx context.Context, sid, identityJSON, token string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vault write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_entries WHERE sid = ?`, sid); err != nil {
		return fmt.Errorf("clear previous entries: %w", err)
	}
	const insert = `INSERT INTO session_entries (sid, kind, value) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert, sid, kindIdentity, identityJSON); err != nil {
		return fmt.Errorf("store identity: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insert, sid, kindToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vault write: %w", err)
	}
	return nil
}

// GetSession loads both entries for sid. A half-present record (only one
// of identity/token) is repaired by deleting both and reporting
// ErrNoSession, so a restore can never observe a half-valid state.
func (r *Repository) GetSession(ctx context.Context, sid string) (identityJSON, token string, err error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, value FROM session_entries WHERE sid = ?`, sid)
	if err != nil {
		return "", "", fmt.Errorf("load vault entries: %w", err)
	}
	defer rows.Close()

	var haveIdentity, haveToken bool
	for rows.Next() {
		var kind, value string
		if err := rows.Scan(&kind, &value); err != nil {
			return "", "", fmt.Errorf("scan vault entry: %w", err)
		}
		switch kind {
		case kindIdentity:
			identityJSON, haveIdentity = value, true
		case kindToken:
			token, haveToken = value, true
		}
	}
	if err := rows.Err(); err != nil {
		return "", "", fmt.Errorf("iterate vault entries: %w", err)
	}

	if haveIdentity != haveToken {
		if err := r.DeleteSession(ctx, sid); err != nil {
			return "", "", fmt.Errorf("repair half-present session: %w", err)
		}
		return "", "", ErrNoSession
	}
	if !haveIdentity {
		return "", "", ErrNoSession
	}
	return identityJSON, token, nil
}

// DeleteSession removes every entry for sid. Deleting an absent session is
// not an error.
func (r *Repository) DeleteSession(ctx context.Context, sid string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM session_entries WHERE sid = ?`, sid); err != nil {
		return fmt.Errorf("delete vault entries: %w", err)
	}
	return nil
}

// PutEntry writes a single vault entry outside the both-or-neither
// contract. Only the corruption tests use it.
func (r *Repository) PutEntry(ctx context.Context, sid, kind, value string) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO session_entries (sid, kind, value) VALUES (?, ?, ?)`,
		sid, kind, value); err != nil {
		return fmt.Errorf("store vault entry: %w", err)
	}
	return nil
}

// CountEntries returns how many vault entries exist for sid.
func (r *Repository) CountEntries(ctx context.Context, sid string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM session_entries WHERE sid = ?`, sid).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count vault entries: %w", err)
	}
	return n, nil
}
