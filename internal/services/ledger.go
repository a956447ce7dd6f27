package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"recibos/internal/amqp"
	"recibos/internal/sheets"
	"recibos/internal/storage"
)

// LedgerSyncer mirrors logged receipts into the external ledger. It serves
// both the event-driven path (HandleEvent wired to the AMQP consumer) and
// the catch-up path (ProcessPending on a ticker).
type LedgerSyncer struct {
	repo      *storage.Repository
	ledger    sheets.LedgerWriter
	batchSize int
}

func NewLedgerSyncer(repo *storage.Repository, ledger sheets.LedgerWriter, batchSize int) *LedgerSyncer {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &LedgerSyncer{
		repo:      repo,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleEvent is the AMQP consumer handler. A returned error requeues the
// message, so only transient failures should bubble up.
func (s *LedgerSyncer) HandleEvent(ctx context.Context, env *amqp.Envelope) error {
	switch env.Kind {
	case amqp.KindReceiptIssued:
		return s.syncByLogID(ctx, env.LogID)
	case amqp.KindReceiptDeleted:
		// Ledger rows are append-only; deletions only prune the local log,
		// which the issuing side already did.
		slog.InfoContext(ctx, "Receipt deleted event acknowledged",
			"receipt_id", env.ReceiptID)
		return nil
	default:
		slog.WarnContext(ctx, "Unknown event kind, dropping", "kind", env.Kind)
		return nil
	}
}

func (s *LedgerSyncer) syncByLogID(ctx context.Context, logID int64) error {
	logged, err := s.repo.GetLogged(ctx, logID)
	if err != nil {
		if errors.Is(err, storage.ErrNoLoggedReceipt) {
			slog.WarnContext(ctx, "No log row for issued event, dropping",
				"log_id", logID)
			return nil
		}
		return fmt.Errorf("load logged receipt %d: %w", logID, err)
	}
	if logged.Synced {
		return nil
	}
	return s.syncOne(ctx, logged)
}

// ProcessPending pushes every unsynced row to the ledger, oldest first.
// Appends run one at a time: ledger rows keep issue order and the sqlite
// file only ever sees a single writer from this loop.
func (s *LedgerSyncer) ProcessPending(ctx context.Context) error {
	pending, err := s.repo.PendingSync(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("list pending receipts: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Syncing pending receipts", "count", len(pending))

	for _, row := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.syncOne(ctx, row); err != nil {
			// Failures are recorded per row; keep the batch going.
			slog.ErrorContext(ctx, "Pending sync failed",
				"receipt_id", row.ReceiptID, "error", err)
		}
	}
	return nil
}

func (s *LedgerSyncer) syncOne(ctx context.Context, row storage.LoggedReceipt) error {
	rowRef, err := s.ledger.AppendReceipt(ctx, sheets.LedgerEntry{
		IssuedAt:    row.IssuedAt,
		Company:     row.CompanyName,
		BenefitType: row.BenefitType,
		Reference:   row.Reference,
		Employee:    row.EmployeeName,
		AmountCents: row.AmountCents,
		Unified:     row.Unified,
		IssuedBy:    row.IssuedBy,
	})
	if err != nil {
		if markErr := s.repo.MarkSyncError(ctx, row.ID, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record sync error",
				"log_id", row.ID, "error", markErr)
		}
		return fmt.Errorf("append receipt %d to ledger: %w", row.ReceiptID, err)
	}

	if err := s.repo.MarkSynced(ctx, row.ID); err != nil {
		return fmt.Errorf("mark receipt %d synced: %w", row.ReceiptID, err)
	}

	slog.InfoContext(ctx, "Receipt synced to ledger",
		"receipt_id", row.ReceiptID, "row", rowRef)
	return nil
}

// Run blocks, re-running ProcessPending on every tick until ctx is done.
func (s *LedgerSyncer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.ProcessPending(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial pending sync failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending sync failed", "error", err)
			}
		}
	}
}
