package store

import (
	"errors"

	"github.com/ipfs/go-cid"

	"xdao.co/support/ticket"
)

// Multi reads from Stores in slice order and writes only to the first.
// Callers supply a fixed order.
type Multi struct {
	Stores []Store
}

var _ Store = Multi{}

func (m Multi) Put(r *ticket.Ref) (cid.Cid, error) {
	if len(m.Stores) == 0 {
		return cid.Undef, errors.New("store: Multi has no stores")
	}
	return m.Stores[0].Put(r)
}

func (m Multi) Get(id cid.Cid) (*ticket.Ref, error) {
	return getFirst(id, len(m.Stores), func(i int) Store { return m.Stores[i] })
}

func (m Multi) Has(id cid.Cid) bool {
	for _, s := range m.Stores {
		if s.Has(id) {
			return true
		}
	}
	return false
}

// getFirst returns the first hit; ErrNotFound falls through to the next
// store, any other error stops the walk.
func getFirst(id cid.Cid, n int, at func(int) Store) (*ticket.Ref, error) {
	for i := 0; i < n; i++ {
		s := at(i)
		if s == nil {
			continue
		}
		r, err := s.Get(id)
		if err == nil {
			return r, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}
