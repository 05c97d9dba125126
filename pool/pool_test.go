package pool_test

import (
	"errors"
	"sync"
	"testing"

	"xdao.co/support/pool"
	"xdao.co/support/store/memstore"
	"xdao.co/support/store/testkit"
	"xdao.co/support/ticket"
)

func TestInsertAndList(t *testing.T) {
	p := pool.New(pool.Options{})
	for _, n := range []uint32{1, testkit.NonceZero1, 0, testkit.NonceZero2} {
		ok, err := p.Insert(testkit.Ref(t, n))
		if err != nil || !ok {
			t.Fatalf("Insert nonce %d: ok=%v err=%v", n, ok, err)
		}
	}
	got := p.List()
	want := []uint32{testkit.NonceZero2, testkit.NonceZero1, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("expected %d tickets, got %d", len(want), len(got))
	}
	for i, n := range want {
		if got[i].Nonce() != n {
			t.Fatalf("position %d: got nonce %d want %d", i, got[i].Nonce(), n)
		}
	}
	st := p.Stats()
	if st.Count != 4 || st.TotalValue != 36+10 || st.MaxValue != 36 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestInsertDuplicate(t *testing.T) {
	p := pool.New(pool.Options{})
	if _, err := p.Insert(testkit.Ref(t, 3)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	ok, err := p.Insert(testkit.Ref(t, 3))
	if ok || !errors.Is(err, pool.ErrDuplicate) {
		t.Fatalf("expected (false, ErrDuplicate), got (%v, %v)", ok, err)
	}
	if p.Len() != 1 {
		t.Fatalf("expected 1 ticket, got %d", p.Len())
	}
}

func TestInsertRejects(t *testing.T) {
	p := pool.New(pool.Options{MinDifficulty: 1})
	if _, err := p.Insert(testkit.Ref(t, 0)); !errors.Is(err, pool.ErrInsufficientWork) {
		t.Fatalf("expected ErrInsufficientWork, got %v", err)
	}
	null, err := new(ticket.Ticket).Finalize(0)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, err := p.Insert(null); !errors.Is(err, pool.ErrNullTicket) {
		t.Fatalf("expected ErrNullTicket, got %v", err)
	}
	if ok, err := p.Insert(testkit.Ref(t, testkit.NonceZero1)); !ok || err != nil {
		t.Fatalf("expected ticket meeting difficulty to be admitted: %v", err)
	}
}

func TestRemoveAndGet(t *testing.T) {
	p := pool.New(pool.Options{})
	r := testkit.Ref(t, testkit.NonceZero1)
	if _, err := p.Insert(r); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got, ok := p.Get(r.Hash()); !ok || got != r {
		t.Fatalf("Get did not return the inserted ticket")
	}
	if ok, err := p.Remove(r.Hash()); !ok || err != nil {
		t.Fatalf("Remove: ok=%v err=%v", ok, err)
	}
	if ok, _ := p.Remove(r.Hash()); ok {
		t.Fatalf("second Remove should report absent")
	}
	if st := p.Stats(); st.Count != 0 || st.TotalValue != 0 {
		t.Fatalf("expected empty stats, got %+v", st)
	}
}

func TestArchive(t *testing.T) {
	archive := memstore.New()
	p := pool.New(pool.Options{Archive: archive})
	if _, err := p.Insert(testkit.Ref(t, 1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if archive.Len() != 1 {
		t.Fatalf("expected ticket to be archived")
	}
}

func TestConcurrentInsert(t *testing.T) {
	p := pool.New(pool.Options{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := uint32(0); n < 50; n++ {
				ok, _ := p.Insert(testkit.Ref(t, n))
				if ok {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	if admitted != 50 || p.Len() != 50 {
		t.Fatalf("expected each ticket admitted once: admitted=%d len=%d", admitted, p.Len())
	}
}

type mapIndex map[ticket.Digest][]byte

func (m mapIndex) Put(d ticket.Digest, b []byte) error { m[d] = b; return nil }
func (m mapIndex) Delete(d ticket.Digest) error        { delete(m, d); return nil }
func (m mapIndex) Each(fn func(ticket.Digest, []byte) error) error {
	for d, b := range m {
		if err := fn(d, b); err != nil {
			return err
		}
	}
	return nil
}

func TestLoadDropsStale(t *testing.T) {
	idx := mapIndex{}
	p := pool.New(pool.Options{Index: idx})
	for _, n := range []uint32{0, testkit.NonceZero1} {
		if _, err := p.Insert(testkit.Ref(t, n)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	idx[ticket.Digest{9}] = []byte{0xff}

	reloaded, err := pool.Load(pool.Options{Index: idx, MinDifficulty: 1})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.Len() != 1 {
		t.Fatalf("expected only the difficulty-1 ticket, got %d", reloaded.Len())
	}
	if len(idx) != 1 {
		t.Fatalf("expected stale entries dropped from index, have %d", len(idx))
	}
}
