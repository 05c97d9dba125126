package operator

import (
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"xdao.co/support/keys"
	"xdao.co/support/store/testkit"
)

func TestSetStatus(t *testing.T) {
	s := New("", nil)
	if s.Status() != Inactive {
		t.Fatalf("expected inactive by default, got %q", s.Status())
	}
	if !s.SetStatus("active") || s.Status() != Active {
		t.Fatalf("expected status active")
	}
	if s.SetStatus("paused") {
		t.Fatalf("unknown status should be rejected")
	}
	if s.Status() != Active {
		t.Fatalf("unknown status changed state to %q", s.Status())
	}
	if !s.SetStatus("inactive") || s.Status() != Inactive {
		t.Fatalf("expected status inactive")
	}
}

func TestSetKeys(t *testing.T) {
	s := New(keys.Secp256k1, nil)
	if err := s.SetWorkerPubKey(testkit.WorkerKeyHex); err != nil {
		t.Fatalf("SetWorkerPubKey: %v", err)
	}
	for _, bad := range []string{"", "zz", "05" + testkit.WorkerKeyHex[2:]} {
		if err := s.SetWorkerPubKey(bad); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("SetWorkerPubKey(%q): expected ErrInvalidKey, got %v", bad, err)
		}
	}
	w, sup := s.Keys()
	if w == nil || hex.EncodeToString(w.Bytes()) != testkit.WorkerKeyHex {
		t.Fatalf("invalid key replaced the previous worker key")
	}
	if sup != nil {
		t.Fatalf("support key should be unset")
	}
	if err := s.SetSupportPubKey(testkit.SupportKeyHex); err != nil {
		t.Fatalf("SetSupportPubKey: %v", err)
	}

	want := Info{
		Status:        Inactive,
		WorkerPubKey:  "751e76e8199196d454941c45d1b3a323f1433bd6",
		SupportPubKey: hex.EncodeToString(keys.Hash160(mustHex(t, testkit.SupportKeyHex))),
	}
	if diff := cmp.Diff(want, s.Info()); diff != "" {
		t.Fatalf("Info mismatch (-want +got):\n%s", diff)
	}
}

func TestNewTicket(t *testing.T) {
	s := New(keys.Secp256k1, nil)
	now := time.Unix(testkit.Timestamp, 0)
	if _, err := s.NewTicket(testkit.SupportedHash, now); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
	s.SetStatus("active")
	if _, err := s.NewTicket(testkit.SupportedHash, now); !errors.Is(err, ErrKeysUnset) {
		t.Fatalf("expected ErrKeysUnset, got %v", err)
	}
	if err := s.SetWorkerPubKey(testkit.WorkerKeyHex); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSupportPubKey(testkit.SupportKeyHex); err != nil {
		t.Fatal(err)
	}
	tk, err := s.NewTicket(testkit.SupportedHash, now)
	if err != nil {
		t.Fatalf("NewTicket: %v", err)
	}
	if *tk != *testkit.Ticket(0) {
		t.Fatalf("operator ticket differs from fixture: %+v", tk)
	}
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
