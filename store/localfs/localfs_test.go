package localfs

import (
	"errors"
	"os"
	"testing"

	"xdao.co/support/store"
	"xdao.co/support/store/testkit"
)

func TestLocalFS_Conformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) store.Store {
		t.Helper()
		s, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return s
	})
}

func TestLocalFS_RejectMutationByOverwrite(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	orig := testkit.Ref(t, testkit.NonceZero1)
	id, err := s.Put(orig)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Replace the stored ticket out-of-band with a different, valid ticket.
	path := s.pathFor(id)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	if err := os.WriteFile(path, testkit.Ref(t, 3).Serialize(), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := s.Get(id); !errors.Is(err, store.ErrCIDMismatch) {
		t.Fatalf("Get mismatch: got %v want %v", err, store.ErrCIDMismatch)
	}
	if _, err := s.Put(orig); !errors.Is(err, store.ErrImmutable) {
		t.Fatalf("Put after corruption: got %v want %v", err, store.ErrImmutable)
	}
}

func TestLocalFS_CorruptBytes(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	id, err := s.Put(testkit.Ref(t, 4))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	path := s.pathFor(id)
	_ = os.Chmod(path, 0o644)
	if err := os.WriteFile(path, []byte{0xff}, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := s.Get(id); err == nil {
		t.Fatalf("expected decode error for corrupt file")
	}
}
