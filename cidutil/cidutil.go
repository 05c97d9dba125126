// Package cidutil maps ticket digests to content identifiers.
//
// A ticket's CID is CIDv1 with the "raw" multicodec and a dbl-sha2-256
// multihash. The multihash digest is exactly the ticket digest, so the CID
// is a content address of the ticket's canonical encoding.
package cidutil

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/support/ticket"
)

var ErrNotTicketCID = errors.New("cidutil: not a raw dbl-sha2-256 CID")

// DigestCID wraps a ticket digest.
func DigestCID(d ticket.Digest) cid.Cid {
	mh, err := multihash.Encode(d[:], multihash.DBL_SHA2_256)
	if err != nil {
		// Encode only fails for unknown codes or oversized digests.
		panic(err)
	}
	return cid.NewCidV1(cid.Raw, mh)
}

// TicketCID returns the CID of a finalized ticket.
func TicketCID(r *ticket.Ref) cid.Cid {
	return DigestCID(r.Hash())
}

// DigestFromCID extracts the ticket digest carried by c.
func DigestFromCID(c cid.Cid) (ticket.Digest, error) {
	var d ticket.Digest
	if !c.Defined() || c.Type() != cid.Raw {
		return d, ErrNotTicketCID
	}
	dm, err := multihash.Decode(c.Hash())
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrNotTicketCID, err)
	}
	if dm.Code != multihash.DBL_SHA2_256 || len(dm.Digest) != ticket.DigestSize {
		return d, ErrNotTicketCID
	}
	copy(d[:], dm.Digest)
	return d, nil
}

// Parse decodes a CID string and checks that it addresses a ticket.
func Parse(s string) (cid.Cid, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, err
	}
	if _, err := DigestFromCID(c); err != nil {
		return cid.Undef, err
	}
	return c, nil
}

// Matches reports whether r is the ticket addressed by c.
func Matches(c cid.Cid, r *ticket.Ref) bool {
	d, err := DigestFromCID(c)
	return err == nil && d == r.Hash()
}
