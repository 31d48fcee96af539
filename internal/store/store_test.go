package store

import "testing"

func TestInsertGetRemove(t *testing.T) {
	var s Store[string]
	h := s.Insert("alice")
	v, ok := s.Get(h)
	if !ok || v != "alice" {
		t.Fatalf("Get(%v) = %q, %v; want alice, true", h, v, ok)
	}
	if _, ok := s.Remove(h); !ok {
		t.Fatalf("Remove(%v) failed", h)
	}
	if _, ok := s.Get(h); ok {
		t.Fatalf("Get after Remove should fail")
	}
}

func TestReusedSlotBumpsGeneration(t *testing.T) {
	var s Store[int]
	h1 := s.Insert(1)
	if _, ok := s.Remove(h1); !ok {
		t.Fatalf("Remove failed")
	}
	h2 := s.Insert(2)
	if h1 == h2 {
		t.Fatalf("expected reused slot to carry a new generation, got identical handles %v", h1)
	}
	if _, ok := s.Get(h1); ok {
		t.Fatalf("stale handle %v should not resolve after slot reuse", h1)
	}
	v, ok := s.Get(h2)
	if !ok || v != 2 {
		t.Fatalf("Get(%v) = %v, %v; want 2, true", h2, v, ok)
	}
}

func TestGetMutMutatesInPlace(t *testing.T) {
	var s Store[int]
	h := s.Insert(10)
	p, ok := s.GetMut(h)
	if !ok {
		t.Fatalf("GetMut failed")
	}
	*p = 20
	v, _ := s.Get(h)
	if v != 20 {
		t.Fatalf("Get after GetMut mutation = %d, want 20", v)
	}
}

func TestZeroHandleNeverResolves(t *testing.T) {
	var s Store[int]
	s.Insert(1)
	var zero Handle
	if _, ok := s.Get(zero); ok {
		t.Fatalf("zero handle should never resolve")
	}
}

func TestEachVisitsAllLiveEntries(t *testing.T) {
	var s Store[int]
	h1 := s.Insert(1)
	s.Insert(2)
	h3 := s.Insert(3)
	s.Remove(h1)

	seen := map[Handle]int{}
	s.Each(func(h Handle, v *int) {
		seen[h] = *v
	})
	if len(seen) != 2 {
		t.Fatalf("Each visited %d entries, want 2", len(seen))
	}
	if seen[h3] != 3 {
		t.Fatalf("Each missed handle %v", h3)
	}
}

func TestLenTracksLiveCount(t *testing.T) {
	var s Store[int]
	if s.Len() != 0 {
		t.Fatalf("empty store Len() = %d, want 0", s.Len())
	}
	h := s.Insert(1)
	s.Insert(2)
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	s.Remove(h)
	if s.Len() != 1 {
		t.Fatalf("Len() after remove = %d, want 1", s.Len())
	}
}
