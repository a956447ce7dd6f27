package memory

import (
	"context"
	"testing"

	ports "recibos/internal/sheets"
)

func TestAppendReceipt(t *testing.T) {
	s := New()

	ref, err := s.AppendReceipt(context.Background(), ports.LedgerEntry{Company: "TechCorp"})
	if err != nil {
		t.Fatalf("AppendReceipt: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("expected mem:1, got %q", ref)
	}

	ref, _ = s.AppendReceipt(context.Background(), ports.LedgerEntry{Company: "Inova Ltda"})
	if ref != "mem:2" {
		t.Fatalf("expected mem:2, got %q", ref)
	}

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Company != "TechCorp" || entries[1].Company != "Inova Ltda" {
		t.Fatalf("unexpected order: %+v", entries)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	s := New()
	_, _ = s.AppendReceipt(context.Background(), ports.LedgerEntry{Company: "TechCorp"})

	got := s.Entries()
	got[0].Company = "mutated"

	if s.Entries()[0].Company != "TechCorp" {
		t.Fatal("Entries must return a copy")
	}
}
