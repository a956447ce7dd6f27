package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNoLoggedReceipt is returned when no audit row matches the lookup.
var ErrNoLoggedReceipt = errors.New("no logged receipt")

// LoggedReceipt is one issued-receipt audit row. The ledger worker drains
// rows with synced = 0 into the spreadsheet.
type LoggedReceipt struct {
	ID           int64
	ReceiptID    int64
	CompanyName  string
	BenefitType  string
	Reference    string
	EmployeeName string
	AmountCents  int64
	Unified      bool
	IssuedBy     string
	IssuedAt     time.Time
	Synced       bool
	SyncAttempts int
}

// LogIssued records a receipt the backend confirmed as created.
func (r *Repository) LogIssued(ctx context.Context, lr LoggedReceipt) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO receipt_log
			(receipt_id, company_name, benefit_type, reference, employee_name, amount_cents, unified, issued_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		lr.ReceiptID, lr.CompanyName, lr.BenefitType, lr.Reference,
		lr.EmployeeName, lr.AmountCents, boolToInt(lr.Unified), lr.IssuedBy)
	if err != nil {
		return 0, fmt.Errorf("insert receipt log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("receipt log id: %w", err)
	}

	slog.InfoContext(ctx, "Receipt logged",
		"log_id", id,
		"receipt_id", lr.ReceiptID,
		"company", lr.CompanyName,
		"benefit_type", lr.BenefitType,
		"amount_cents", lr.AmountCents)
	return id, nil
}

// GetLogged loads one audit row by its log id.
func (r *Repository) GetLogged(ctx context.Context, id int64) (LoggedReceipt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, receipt_id, company_name, benefit_type, reference,
		       employee_name, amount_cents, unified, issued_by, issued_at,
		       synced, sync_attempts
		FROM receipt_log WHERE id = ?`, id)
	lr, err := scanLogged(row)
	if errors.Is(err, sql.ErrNoRows) {
		return LoggedReceipt{}, ErrNoLoggedReceipt
	}
	return lr, err
}

// PendingSync returns up to limit rows not yet written to the ledger,
// oldest first.
func (r *Repository) PendingSync(ctx context.Context, limit int) ([]LoggedReceipt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, receipt_id, company_name, benefit_type, reference,
		       employee_name, amount_cents, unified, issued_by, issued_at,
		       synced, sync_attempts
		FROM receipt_log
		WHERE synced = 0
		ORDER BY issued_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending receipts: %w", err)
	}
	defer rows.Close()

	var out []LoggedReceipt
	for rows.Next() {
		lr, err := scanLogged(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}

// MarkSynced flags a log row as written to the ledger.
func (r *Repository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE receipt_log SET synced = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark receipt synced: %w", err)
	}
	slog.InfoContext(ctx, "Receipt marked as synced", "log_id", id)
	return nil
}

// MarkSyncError bumps the attempt counter and stores the failure reason;
// the row stays pending for the next pass.
func (r *Repository) MarkSyncError(ctx context.Context, id int64, reason string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE receipt_log
		SET sync_attempts = sync_attempts + 1, last_sync_error = ?
		WHERE id = ?`, reason, id); err != nil {
		return fmt.Errorf("mark receipt sync error: %w", err)
	}
	slog.WarnContext(ctx, "Receipt sync failed", "log_id", id, "reason", reason)
	return nil
}

// DeleteLogged removes the audit row for a receipt the backend deleted.
func (r *Repository) DeleteLogged(ctx context.Context, receiptID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM receipt_log WHERE receipt_id = ?`, receiptID); err != nil {
		return fmt.Errorf("delete receipt log: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLogged(row rowScanner) (LoggedReceipt, error) {
	var lr LoggedReceipt
	var unified, synced int
	err := row.Scan(&lr.ID, &lr.ReceiptID, &lr.CompanyName, &lr.BenefitType,
		&lr.Reference, &lr.EmployeeName, &lr.AmountCents, &unified,
		&lr.IssuedBy, &lr.IssuedAt, &synced, &lr.SyncAttempts)
	if err != nil {
		return LoggedReceipt{}, fmt.Errorf("scan receipt log row: %w", err)
	}
	lr.Unified = unified != 0
	lr.Synced = synced != 0
	return lr, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
