package listing

import "sync"

// Slot guards one logical list against out-of-order responses. Overlapping
// refreshes each take a sequence number with Begin; Complete only applies a
// value whose sequence is newer than the last one applied, so a slow stale
// response can never overwrite a fresher list.
type Slot[T any] struct {
	mu      sync.Mutex
	nextSeq uint64
	applied uint64
	value   T
	set     bool
}

// Begin reserves the next sequence number for an in-flight refresh.
func (s *Slot[T]) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return s.nextSeq
}

// Complete applies value if seq is newer than the last applied sequence.
// It reports whether the value was accepted.
func (s *Slot[T]) Complete(seq uint64, value T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	s.value = value
	s.set = true
	return true
}

// Load returns the most recently applied value, if any.
func (s *Slot[T]) Load() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.set
}

// maxSlots bounds the table; past it the table resets, which only forfeits
// the guard for refreshes in flight at that moment.
const maxSlots = 1024

// SlotTable keys slots by viewer. Refreshes only contend with other
// refreshes of the same logical list; overlapping requests from different
// sessions never see each other's data.
type SlotTable[T any] struct {
	mu    sync.Mutex
	slots map[string]*Slot[T]
}

// For returns the slot for key, creating it on first use.
func (t *SlotTable[T]) For(key string) *Slot[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.slots == nil || len(t.slots) >= maxSlots {
		t.slots = make(map[string]*Slot[T])
	}
	s, ok := t.slots[key]
	if !ok {
		s = &Slot[T]{}
		t.slots[key] = s
	}
	return s
}
