// Package pool keeps the node's set of accepted support tickets.
//
// A Pool is safe for concurrent use. Tickets are keyed by digest; listing
// orders them by score, highest first.
package pool

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"xdao.co/support/cidutil"
	"xdao.co/support/store"
	"xdao.co/support/ticket"
)

var (
	ErrDuplicate        = errors.New("pool: duplicate ticket")
	ErrInsufficientWork = errors.New("pool: insufficient proof of work")
	ErrNullTicket       = errors.New("pool: null ticket")
)

// Index persists pool membership across restarts. Entries are canonical
// ticket encodings keyed by digest.
type Index interface {
	Put(d ticket.Digest, encoded []byte) error
	Delete(d ticket.Digest) error
	// Each calls fn for every stored entry, in key order.
	Each(fn func(d ticket.Digest, encoded []byte) error) error
}

type Options struct {
	// MinDifficulty is the number of leading zero digest bytes a ticket
	// needs to be admitted.
	MinDifficulty int
	Index         Index
	// Archive, if set, receives a copy of every admitted ticket.
	Archive store.Store
	Logger  *slog.Logger
}

type Stats struct {
	Count      int
	TotalValue uint64
	MaxValue   uint32
}

type Pool struct {
	opts Options
	log  *slog.Logger

	mu    sync.RWMutex
	refs  map[ticket.Digest]*ticket.Ref
	total uint64
}

func New(opts Options) *Pool {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Pool{opts: opts, log: log, refs: make(map[ticket.Digest]*ticket.Ref)}
}

// Load builds a pool from opts.Index. Entries that no longer decode or no
// longer meet MinDifficulty are dropped from the index.
func Load(opts Options) (*Pool, error) {
	p := New(opts)
	if opts.Index == nil {
		return p, nil
	}
	var stale []ticket.Digest
	err := opts.Index.Each(func(d ticket.Digest, b []byte) error {
		r, err := ticket.DecodeRef(b, opts.MinDifficulty)
		if err != nil || r.Hash() != d || r.IsNull() {
			stale = append(stale, d)
			return nil
		}
		p.add(r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pool: load index: %w", err)
	}
	for _, d := range stale {
		if err := opts.Index.Delete(d); err != nil {
			return nil, fmt.Errorf("pool: drop stale entry %s: %w", d, err)
		}
	}
	p.log.Info("pool loaded", "tickets", len(p.refs), "dropped", len(stale))
	return p, nil
}

func (p *Pool) add(r *ticket.Ref) {
	p.refs[r.Hash()] = r
	p.total += uint64(r.Value())
}

// Insert admits r. It returns (false, ErrDuplicate) for a ticket already
// present.
func (p *Pool) Insert(r *ticket.Ref) (bool, error) {
	if r == nil || r.IsNull() {
		return false, ErrNullTicket
	}
	if !r.VerifyPoW(p.opts.MinDifficulty) {
		return false, fmt.Errorf("%w: %d zero bytes, need %d", ErrInsufficientWork, r.LeadingZeroBytes(), p.opts.MinDifficulty)
	}
	d := r.Hash()

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.refs[d]; ok {
		return false, ErrDuplicate
	}
	if p.opts.Index != nil {
		if err := p.opts.Index.Put(d, r.Serialize()); err != nil {
			return false, fmt.Errorf("pool: index: %w", err)
		}
	}
	if p.opts.Archive != nil {
		if _, err := p.opts.Archive.Put(r); err != nil {
			p.log.Warn("ticket archive failed", "cid", cidutil.TicketCID(r), "err", err)
		}
	}
	p.add(r)
	p.log.Debug("ticket admitted", "hash", d, "value", r.Value())
	return true, nil
}

func (p *Pool) Get(d ticket.Digest) (*ticket.Ref, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.refs[d]
	return r, ok
}

// Remove drops the ticket with digest d and reports whether it was present.
func (p *Pool) Remove(d ticket.Digest) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.refs[d]
	if !ok {
		return false, nil
	}
	if p.opts.Index != nil {
		if err := p.opts.Index.Delete(d); err != nil {
			return false, fmt.Errorf("pool: index: %w", err)
		}
	}
	delete(p.refs, d)
	p.total -= uint64(r.Value())
	return true, nil
}

// List returns a snapshot ordered by value descending, then digest bytes
// ascending.
func (p *Pool) List() []*ticket.Ref {
	p.mu.RLock()
	out := make([]*ticket.Ref, 0, len(p.refs))
	for _, r := range p.refs {
		out = append(out, r)
	}
	p.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		vi, vj := out[i].Value(), out[j].Value()
		if vi != vj {
			return vi > vj
		}
		di, dj := out[i].Hash(), out[j].Hash()
		return bytes.Compare(di[:], dj[:]) < 0
	})
	return out
}

func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.refs)
}

func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := Stats{Count: len(p.refs), TotalValue: p.total}
	for _, r := range p.refs {
		if v := r.Value(); v > s.MaxValue {
			s.MaxValue = v
		}
	}
	return s
}

func (p *Pool) MinDifficulty() int { return p.opts.MinDifficulty }
