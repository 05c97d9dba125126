// Package testkit provides shared fixtures and a conformance suite for
// store.Store implementations.
package testkit

import (
	"encoding/hex"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/support/cidutil"
	"xdao.co/support/store"
	"xdao.co/support/ticket"
)

const (
	SupportedHash = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
	WorkerKeyHex  = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	SupportKeyHex = "02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5"
	Timestamp     = 1700000000
)

// Nonces with a known number of leading zero digest bytes for the fixture
// ticket fields above.
const (
	NonceZero0 = 0     // no leading zero bytes
	NonceZero1 = 252   // one leading zero byte
	NonceZero2 = 69959 // two leading zero bytes
)

// Ticket returns the fixture ticket with the given nonce.
func Ticket(nonce uint32) *ticket.Ticket {
	w, _ := hex.DecodeString(WorkerKeyHex)
	s, _ := hex.DecodeString(SupportKeyHex)
	return ticket.New(SupportedHash, w, s, Timestamp, nonce)
}

// Ref finalizes the fixture ticket at difficulty 0.
func Ref(t testing.TB, nonce uint32) *ticket.Ref {
	t.Helper()
	r, err := Ticket(nonce).Finalize(0)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return r
}

// NewStore constructs a fresh, isolated store for one test.
type NewStore func(t *testing.T) store.Store

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		st := newStore(t)
		want := Ref(t, NonceZero1)

		id, err := st.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if wantID := cidutil.TicketCID(want); !id.Equals(wantID) {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}
		got, err := st.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Ticket() != want.Ticket() || got.Hash() != want.Hash() {
			t.Fatalf("Get returned a different ticket")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		st := newStore(t)
		r := Ref(t, 1)
		id1, err := st.Put(r)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := st.Put(Ref(t, 1))
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if !id1.Equals(id2) {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		st := newStore(t)
		r := Ref(t, 2)
		id := cidutil.TicketCID(r)
		if st.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		if _, err := st.Get(id); !store.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}
		if _, err := st.Put(r); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !st.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("NullTicket", func(t *testing.T) {
		st := newStore(t)
		tk := Ticket(0)
		tk.SetNull()
		r, err := tk.Finalize(0)
		if err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		id, err := st.Put(r)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := st.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !got.IsNull() || got.Timestamp() != Timestamp {
			t.Fatalf("null ticket did not round trip: %+v", got.Ticket())
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		st := newStore(t)
		var undef cid.Cid
		if st.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := st.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})
}
