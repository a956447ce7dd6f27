package storage

import (
	"context"
	"errors"
	"testing"
)

func logFixture(receiptID int64) LoggedReceipt {
	return LoggedReceipt{
		ReceiptID:    receiptID,
		CompanyName:  "TechCorp",
		BenefitType:  "Vale Transporte",
		Reference:    "06/2026",
		EmployeeName: "João Silva",
		AmountCents:  22000,
		IssuedBy:     "ana@corp.com",
	}
}

func TestLogIssuedAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.LogIssued(ctx, logFixture(101))
	if err != nil {
		t.Fatalf("log: %v", err)
	}

	got, err := repo.GetLogged(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ReceiptID != 101 || got.CompanyName != "TechCorp" || got.AmountCents != 22000 {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.Synced {
		t.Fatal("fresh rows must start unsynced")
	}
	if got.IssuedAt.IsZero() {
		t.Fatal("issued_at should be set by the database")
	}
}

func TestGetLoggedMissing(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetLogged(context.Background(), 999)
	if !errors.Is(err, ErrNoLoggedReceipt) {
		t.Fatalf("expected ErrNoLoggedReceipt, got %v", err)
	}
}

func TestPendingSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.LogIssued(ctx, logFixture(201))
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if _, err := repo.LogIssued(ctx, logFixture(202)); err != nil {
		t.Fatalf("log: %v", err)
	}

	pending, err := repo.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending rows, got %d", len(pending))
	}

	if err := repo.MarkSynced(ctx, first); err != nil {
		t.Fatalf("mark synced: %v", err)
	}

	pending, err = repo.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending after sync: %v", err)
	}
	if len(pending) != 1 || pending[0].ReceiptID != 202 {
		t.Fatalf("expected only receipt 202 pending, got %+v", pending)
	}
}

func TestMarkSyncErrorKeepsRowPending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.LogIssued(ctx, logFixture(301))
	if err != nil {
		t.Fatalf("log: %v", err)
	}

	if err := repo.MarkSyncError(ctx, id, "ledger timeout"); err != nil {
		t.Fatalf("mark error: %v", err)
	}
	if err := repo.MarkSyncError(ctx, id, "ledger timeout"); err != nil {
		t.Fatalf("mark error again: %v", err)
	}

	got, err := repo.GetLogged(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Synced {
		t.Fatal("errored row must stay pending")
	}
	if got.SyncAttempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", got.SyncAttempts)
	}
}

func TestDeleteLogged(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.LogIssued(ctx, logFixture(401))
	if err != nil {
		t.Fatalf("log: %v", err)
	}

	if err := repo.DeleteLogged(ctx, 401); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetLogged(ctx, id); !errors.Is(err, ErrNoLoggedReceipt) {
		t.Fatalf("expected row gone, got %v", err)
	}
}
