// Package memstore is an in-process ticket store.
package memstore

import (
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/support/store"
	"xdao.co/support/ticket"
)

type Store struct {
	mu   sync.RWMutex
	refs map[string]*ticket.Ref
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{refs: make(map[string]*ticket.Ref)}
}

func (s *Store) Put(r *ticket.Ref) (cid.Cid, error) {
	id, _, err := store.Encode(r)
	if err != nil {
		return cid.Undef, err
	}
	k := id.KeyString()
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.refs[k]; ok {
		if old.Ticket() != r.Ticket() {
			return cid.Undef, store.ErrImmutable
		}
		return id, nil
	}
	s.refs[k] = r
	return id, nil
}

func (s *Store) Get(id cid.Cid) (*ticket.Ref, error) {
	if err := store.CheckCID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	r, ok := s.refs[id.KeyString()]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (s *Store) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.refs[id.KeyString()]
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.refs)
}
