// Package store holds finalized tickets by content address.
//
// Contract:
//   - Put is idempotent.
//   - Stored tickets are immutable.
//   - The CID is derived from the ticket digest (see cidutil).
//   - Get returns ErrNotFound when the CID is absent.
//   - Bytes read back are re-verified against the requested CID.
package store

import (
	"errors"

	"github.com/ipfs/go-cid"

	"xdao.co/support/cidutil"
	"xdao.co/support/ticket"
)

type Store interface {
	Put(r *ticket.Ref) (cid.Cid, error)
	Get(id cid.Cid) (*ticket.Ref, error)
	Has(id cid.Cid) bool
}

var (
	ErrNotFound    = errors.New("store: not found")
	ErrInvalidCID  = errors.New("store: invalid cid")
	ErrCIDMismatch = errors.New("store: cid mismatch")
	ErrImmutable   = errors.New("store: immutable object mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Encode returns the CID and canonical bytes of r.
func Encode(r *ticket.Ref) (cid.Cid, []byte, error) {
	if r == nil {
		return cid.Undef, nil, ErrInvalidCID
	}
	return cidutil.TicketCID(r), r.Serialize(), nil
}

// Decode parses stored bytes and checks them against id. Stored tickets
// are decoded at difficulty 0; admission thresholds belong to the pool.
func Decode(id cid.Cid, b []byte) (*ticket.Ref, error) {
	if _, err := cidutil.DigestFromCID(id); err != nil {
		return nil, ErrInvalidCID
	}
	r, err := ticket.DecodeRef(b, 0)
	if err != nil {
		return nil, err
	}
	if !cidutil.Matches(id, r) {
		return nil, ErrCIDMismatch
	}
	return r, nil
}

// CheckCID rejects CIDs that cannot address a ticket.
func CheckCID(id cid.Cid) error {
	if _, err := cidutil.DigestFromCID(id); err != nil {
		return ErrInvalidCID
	}
	return nil
}
