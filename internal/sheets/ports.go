package sheets

import (
	"context"
	"time"
)

// LedgerEntry is one issued receipt as it appears on the ledger
// spreadsheet.
type LedgerEntry struct {
	IssuedAt    time.Time
	Company     string
	BenefitType string
	Reference   string
	Employee    string
	AmountCents int64
	Unified     bool
	IssuedBy    string
}

// LedgerWriter appends issued receipts to the ledger. Implementations:
// the Google Sheets client and an in-memory store for tests.
type LedgerWriter interface {
	// AppendReceipt writes one entry and returns an opaque row reference.
	AppendReceipt(ctx context.Context, e LedgerEntry) (rowRef string, err error)
}
