// Package memory is an in-process ledger used by tests and by local runs
// without a configured spreadsheet.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "recibos/internal/sheets"
)

type Store struct {
	mu      sync.Mutex
	entries []ports.LedgerEntry
}

var _ ports.LedgerWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendReceipt stores the entry and returns a synthetic row reference.
func (s *Store) AppendReceipt(_ context.Context, e ports.LedgerEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return fmt.Sprintf("mem:%d", len(s.entries)), nil
}

// Entries returns a copy of everything appended so far.
func (s *Store) Entries() []ports.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.LedgerEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
