package memstore

import (
	"testing"

	"xdao.co/support/store"
	"xdao.co/support/store/testkit"
)

func TestMemstore_Conformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) store.Store { return New() })
}

func TestMemstore_Len(t *testing.T) {
	s := New()
	for _, n := range []uint32{1, 2, 1} {
		if _, err := s.Put(testkit.Ref(t, n)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 distinct tickets, got %d", s.Len())
	}
}
