package ticket

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFinalize_RequiresWork(t *testing.T) {
	tk := vectorTicket(t, 0)
	if _, err := tk.Finalize(1); err == nil {
		t.Fatalf("expected Finalize(1) to fail for a digest with no zero bytes")
	} else if !IsKind(err, KindState) || RuleID(err) != "TICKET-STATE-001" {
		t.Fatalf("unexpected error %v", err)
	}

	tk.SetNonce(vecNonceOneZero)
	ref, err := tk.Finalize(1)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !ref.VerifyPoW(1) || ref.VerifyPoW(2) {
		t.Fatalf("unexpected VerifyPoW results on ref")
	}
	if ref.Value() != 10 {
		t.Fatalf("Value=%d want 10", ref.Value())
	}
}

func TestRef_IsolatedFromBuildingTicket(t *testing.T) {
	tk := vectorTicket(t, vecNonceTwoZeros)
	ref, err := tk.Finalize(2)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	tk.SetNonce(0)
	tk.SupportedHash = "changed"
	if ref.Nonce() != vecNonceTwoZeros || ref.SupportedHash() != vecSupportedHash {
		t.Fatalf("ref observed mutation of the building ticket")
	}
	if ref.Hash().String() != vecDigestTwoZeros {
		t.Fatalf("ref digest changed: %s", ref.Hash())
	}

	wk := ref.WorkerPubKey()
	wk[0] ^= 0xff
	if ref.WorkerPubKey()[0] == wk[0] {
		t.Fatalf("WorkerPubKey must return a copy")
	}

	c := ref.Clone()
	c.SetNonce(1)
	if ref.Nonce() != vecNonceTwoZeros {
		t.Fatalf("Clone must not alias the ref")
	}
}

func TestRef_ConcurrentReaders(t *testing.T) {
	ref, err := vectorTicket(t, vecNonceOneZero).Finalize(1)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if !ref.VerifyPoW(1) || ref.Value() != 10 || ref.Hash().String() != vecDigestOneZero {
					t.Errorf("inconsistent read")
					return
				}
				tk := ref.Ticket()
				if tk.Hash() != ref.Hash() {
					t.Errorf("recomputed digest differs")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestDecodeRef(t *testing.T) {
	b := vectorTicket(t, vecNonceTwoZeros).Serialize()
	ref, err := DecodeRef(b, 2)
	if err != nil {
		t.Fatalf("DecodeRef: %v", err)
	}
	if _, err := DecodeRef(b, 3); !IsKind(err, KindState) {
		t.Fatalf("expected KindState at difficulty 3, got %v", err)
	}
	if _, err := DecodeRef(b[:5], 0); !IsKind(err, KindDecode) {
		t.Fatalf("expected KindDecode for truncated bytes, got %v", err)
	}

	want := View{
		SupportedHash: "34613565316534626161623839663361333235313861383863333162633837663631386637363637336532636337376162323132376237616664656461333362",
		WorkerPubKey:  vecWorkerHex,
		SupportPubKey: vecSupportHex,
		Timestamp:     vecTimestamp,
		Nonce:         vecNonceTwoZeros,
		Hash:          vecDigestTwoZeros,
		Value:         36,
	}
	if diff := cmp.Diff(want, ref.View()); diff != "" {
		t.Fatalf("View mismatch (-want +got):\n%s", diff)
	}
}
