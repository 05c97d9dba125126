// Package pebbleindex persists a pool index in a Pebble database.
package pebbleindex

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"xdao.co/support/pool"
	"xdao.co/support/ticket"
)

// Keys are prefix || digest so the index can share a database with other
// data later.
var prefix = []byte("tkt/")

type Index struct {
	db *pebble.DB
}

var _ pool.Index = (*Index)(nil)

func Open(dir string) (*Index, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebbleindex: open %s: %w", dir, err)
	}
	return &Index{db: db}, nil
}

func key(d ticket.Digest) []byte {
	k := make([]byte, 0, len(prefix)+ticket.DigestSize)
	k = append(k, prefix...)
	return append(k, d[:]...)
}

func (x *Index) Put(d ticket.Digest, encoded []byte) error {
	return x.db.Set(key(d), encoded, pebble.Sync)
}

func (x *Index) Delete(d ticket.Digest) error {
	return x.db.Delete(key(d), pebble.Sync)
}

// Get returns the stored encoding for d, or pebble.ErrNotFound.
func (x *Index) Get(d ticket.Digest) ([]byte, error) {
	v, closer, err := x.db.Get(key(d))
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (x *Index) Each(fn func(d ticket.Digest, encoded []byte) error) error {
	upper := append([]byte(nil), prefix...)
	upper[len(upper)-1]++
	it, err := x.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upper})
	if err != nil {
		return err
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		k := it.Key()
		if len(k) != len(prefix)+ticket.DigestSize {
			continue
		}
		var d ticket.Digest
		copy(d[:], k[len(prefix):])
		if err := fn(d, append([]byte(nil), it.Value()...)); err != nil {
			return err
		}
	}
	return it.Error()
}

func (x *Index) Close() error { return x.db.Close() }
