package broadcast

import (
	"testing"

	"embermoor/internal/store"
)

func handles(n int) []store.Handle {
	var s store.Store[int]
	out := make([]store.Handle, n)
	for i := range out {
		out[i] = s.Insert(i)
	}
	return out
}

func TestSubjectResolvesOnlyTheActor(t *testing.T) {
	hs := handles(3)
	got := Subject(hs[1]).Resolve(hs)
	if len(got) != 1 || got[0] != hs[1] {
		t.Fatalf("Resolve = %v, want [%v]", got, hs[1])
	}
}

func TestNotSubjectExcludesOne(t *testing.T) {
	hs := handles(3)
	got := NotSubject(hs[1]).Resolve(hs)
	if len(got) != 2 || got[0] != hs[0] || got[1] != hs[2] {
		t.Fatalf("Resolve = %v", got)
	}
}

func TestNeitherExcludesTwo(t *testing.T) {
	hs := handles(3)
	got := Neither(hs[0], hs[2]).Resolve(hs)
	if len(got) != 1 || got[0] != hs[1] {
		t.Fatalf("Resolve = %v", got)
	}
}

func TestAllIncludesEveryone(t *testing.T) {
	hs := handles(3)
	got := All().Resolve(hs)
	if len(got) != 3 {
		t.Fatalf("Resolve = %v, want all 3", got)
	}
}

func TestSendSkipsCharactersWithoutAConnection(t *testing.T) {
	hs := handles(2)
	connless := map[store.Handle]store.Handle{hs[0]: {}, hs[1]: {}}
	delivered := map[store.Handle][]byte{}

	lookup := func(h store.Handle) (store.Handle, bool) {
		c, ok := connless[h]
		return c, ok
	}
	appendOutput := func(conn store.Handle, data []byte) {
		delivered[conn] = append(delivered[conn], data...)
	}

	Send(All(), hs, "hi", lookup, appendOutput)
	if len(delivered) != 0 {
		t.Fatalf("expected no delivery for connectionless characters, got %v", delivered)
	}
}

func TestSendAppendsCRLF(t *testing.T) {
	var s store.Store[int]
	connH := s.Insert(0)
	hs := handles(1)

	var captured []byte
	lookup := func(store.Handle) (store.Handle, bool) { return connH, true }
	appendOutput := func(conn store.Handle, data []byte) { captured = data }

	Send(Subject(hs[0]), hs, "You get rusty key.", lookup, appendOutput)
	if string(captured) != "You get rusty key.\r\n" {
		t.Fatalf("captured = %q", captured)
	}
}
