package store

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/support/cidutil"
	"xdao.co/support/ticket"
)

// Named associates a Store with a stable backend name.
type Named struct {
	Name  string
	Store Store
}

// Replicating writes to every backend and requires all returned CIDs to
// match the ticket's CID. Reads fall back in order.
type Replicating struct {
	Backends []Named
}

var _ Store = Replicating{}

// PutAll writes r to all backends and returns the per-backend CIDs.
func (rp Replicating) PutAll(r *ticket.Ref) (cid.Cid, map[string]cid.Cid, error) {
	if r == nil {
		return cid.Undef, nil, ErrInvalidCID
	}
	if len(rp.Backends) == 0 {
		return cid.Undef, nil, fmt.Errorf("store: Replicating has no backends")
	}
	want := cidutil.TicketCID(r)
	out := make(map[string]cid.Cid, len(rp.Backends))
	for _, b := range rp.Backends {
		if b.Store == nil {
			return cid.Undef, nil, fmt.Errorf("store: nil store for backend %q", b.Name)
		}
		got, err := b.Store.Put(r)
		if err != nil {
			return cid.Undef, out, fmt.Errorf("store: backend %q: %w", b.Name, err)
		}
		out[b.Name] = got
		if !got.Equals(want) {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (rp Replicating) Put(r *ticket.Ref) (cid.Cid, error) {
	id, _, err := rp.PutAll(r)
	return id, err
}

func (rp Replicating) Get(id cid.Cid) (*ticket.Ref, error) {
	return getFirst(id, len(rp.Backends), func(i int) Store { return rp.Backends[i].Store })
}

func (rp Replicating) Has(id cid.Cid) bool {
	for _, b := range rp.Backends {
		if b.Store != nil && b.Store.Has(id) {
			return true
		}
	}
	return false
}
