package listing

import (
	"sync"
	"testing"
)

func TestSlotDiscardStale(t *testing.T) {
	var s Slot[string]

	first := s.Begin()
	second := s.Begin()

	if !s.Complete(second, "fresh") {
		t.Fatal("newer sequence should be applied")
	}
	if s.Complete(first, "stale") {
		t.Fatal("older sequence must be discarded after a newer one landed")
	}

	got, ok := s.Load()
	if !ok || got != "fresh" {
		t.Fatalf("expected fresh, got %q (ok=%v)", got, ok)
	}
}

func TestSlotInOrder(t *testing.T) {
	var s Slot[int]
	for i := 1; i <= 3; i++ {
		seq := s.Begin()
		if !s.Complete(seq, i) {
			t.Fatalf("in-order completion %d rejected", i)
		}
	}
	got, _ := s.Load()
	if got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestSlotEmpty(t *testing.T) {
	var s Slot[[]int]
	if _, ok := s.Load(); ok {
		t.Fatal("empty slot should report no value")
	}
}

func TestSlotTableSameKeySharesSlot(t *testing.T) {
	var tbl SlotTable[string]
	if tbl.For("a") != tbl.For("a") {
		t.Fatal("same key must return the same slot")
	}
}

func TestSlotTableIsolatesKeys(t *testing.T) {
	var tbl SlotTable[string]

	admin := tbl.For("admin-token")
	employee := tbl.For("employee-token")
	if admin == employee {
		t.Fatal("different keys must get independent slots")
	}

	// The admin's fetch is still in flight when the employee's completes.
	// The employee's list must not displace the admin's.
	adminSeq := admin.Begin()
	empSeq := employee.Begin()
	if !employee.Complete(empSeq, "employee list") {
		t.Fatal("employee completion rejected")
	}
	if !admin.Complete(adminSeq, "admin list") {
		t.Fatal("admin completion rejected despite no overlapping admin refresh")
	}

	got, ok := admin.Load()
	if !ok || got != "admin list" {
		t.Fatalf("admin slot holds %q, want admin list", got)
	}
	got, ok = employee.Load()
	if !ok || got != "employee list" {
		t.Fatalf("employee slot holds %q, want employee list", got)
	}
}

func TestSlotConcurrent(t *testing.T) {
	var s Slot[uint64]
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq := s.Begin()
			s.Complete(seq, seq)
		}()
	}
	wg.Wait()

	got, ok := s.Load()
	if !ok {
		t.Fatal("expected a value after concurrent completions")
	}
	// Whatever landed last must carry the highest applied sequence.
	if got == 0 || got > 50 {
		t.Fatalf("unexpected applied value %d", got)
	}
}
