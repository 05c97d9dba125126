package cidutil

import (
	"errors"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/support/ticket"
)

func testRef(t *testing.T, nonce uint32) *ticket.Ref {
	t.Helper()
	tk := ticket.New("4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b",
		[]byte{0x02, 0x01}, []byte{0x03, 0x02}, 1700000000, nonce)
	r, err := tk.Finalize(0)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return r
}

func TestTicketCIDRoundTrip(t *testing.T) {
	r := testRef(t, 7)
	c := TicketCID(r)
	if c.Version() != 1 || c.Type() != cid.Raw {
		t.Fatalf("unexpected CID prefix: %v", c.Prefix())
	}
	d, err := DigestFromCID(c)
	if err != nil {
		t.Fatalf("DigestFromCID: %v", err)
	}
	if d != r.Hash() {
		t.Fatalf("digest mismatch: %s vs %s", d, r.Hash())
	}
	parsed, err := Parse(c.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !parsed.Equals(c) {
		t.Fatalf("Parse(String()) changed the CID")
	}
	if !Matches(c, r) {
		t.Fatalf("expected CID to match its ticket")
	}
	if Matches(c, testRef(t, 8)) {
		t.Fatalf("expected CID not to match a different ticket")
	}
}

func TestTicketCIDIsContentAddress(t *testing.T) {
	r := testRef(t, 1)
	sum, err := multihash.Sum(r.Serialize(), multihash.DBL_SHA2_256, -1)
	if err != nil {
		t.Fatalf("multihash.Sum: %v", err)
	}
	if want := cid.NewCidV1(cid.Raw, sum); !want.Equals(TicketCID(r)) {
		t.Fatalf("CID %s is not the dbl-sha2-256 address of the encoding (%s)", TicketCID(r), want)
	}
}

func TestDigestFromCIDRejectsOtherHashes(t *testing.T) {
	sum, err := multihash.Sum([]byte("x"), multihash.SHA2_256, -1)
	if err != nil {
		t.Fatalf("multihash.Sum: %v", err)
	}
	if _, err := DigestFromCID(cid.NewCidV1(cid.Raw, sum)); !errors.Is(err, ErrNotTicketCID) {
		t.Fatalf("expected ErrNotTicketCID, got %v", err)
	}
	if _, err := DigestFromCID(cid.Undef); !errors.Is(err, ErrNotTicketCID) {
		t.Fatalf("expected ErrNotTicketCID for undefined CID, got %v", err)
	}
	if _, err := Parse("not-a-cid"); err == nil {
		t.Fatalf("expected parse error")
	}
}
