// Package services orchestrates receipt issuance across the backend API,
// the local receipt log and the event queue.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"recibos/internal/amqp"
	"recibos/internal/api"
	"recibos/internal/core"
	"recibos/internal/storage"
)

// ReceiptIssuer coordinates one issuance: backend create first (awaited,
// never optimistic), then the local audit row, then a best-effort event.
type ReceiptIssuer struct {
	receipts *api.ReceiptService
	repo     *storage.Repository
	events   *amqp.Client
}

func NewReceiptIssuer(receipts *api.ReceiptService, repo *storage.Repository, events *amqp.Client) *ReceiptIssuer {
	return &ReceiptIssuer{
		receipts: receipts,
		repo:     repo,
		events:   events,
	}
}

// Issue creates the receipt on the backend and records it locally. The
// backend call failing fails the whole operation; the log or the event
// failing does not undo a confirmed issuance.
func (s *ReceiptIssuer) Issue(ctx context.Context, sess core.Session, draft core.Receipt) (core.Receipt, error) {
	if err := draft.Validate(); err != nil {
		return core.Receipt{}, fmt.Errorf("validate receipt: %w", err)
	}

	created, err := s.receipts.Create(ctx, sess.Token, draft)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("create receipt: %w", err)
	}

	logID, err := s.repo.LogIssued(ctx, storage.LoggedReceipt{
		ReceiptID:    created.ID,
		CompanyName:  created.CompanyName,
		BenefitType:  created.BenefitType,
		Reference:    created.Reference,
		EmployeeName: created.EmployeeName,
		AmountCents:  created.Amount.Cents,
		Unified:      created.Unified,
		IssuedBy:     sess.Identity.Email,
	})
	if err != nil {
		// Receipt exists on the backend; only the audit trail is behind.
		slog.ErrorContext(ctx, "Failed to log issued receipt",
			"receipt_id", created.ID, "error", err)
		return created, nil
	}

	if err := s.publishIssued(ctx, logID, created.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish issued event",
			"log_id", logID, "receipt_id", created.ID, "error", err)
		// The periodic pending-sync pass picks the row up later.
	}

	return created, nil
}

// Delete removes the receipt on the backend, then the local audit row and
// publishes a deleted event.
func (s *ReceiptIssuer) Delete(ctx context.Context, sess core.Session, id int64) error {
	if err := s.receipts.Delete(ctx, sess.Token, id); err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}

	if err := s.repo.DeleteLogged(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to remove receipt log row",
			"receipt_id", id, "error", err)
	}
	if err := s.publishDeleted(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish deleted event",
			"receipt_id", id, "error", err)
	}
	return nil
}

func (s *ReceiptIssuer) publishIssued(ctx context.Context, logID, receiptID int64) error {
	if s.events == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping issued event")
		return nil
	}
	return s.events.PublishReceiptIssued(ctx, logID, receiptID)
}

func (s *ReceiptIssuer) publishDeleted(ctx context.Context, receiptID int64) error {
	if s.events == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping deleted event")
		return nil
	}
	return s.events.PublishReceiptDeleted(ctx, receiptID)
}
