package rpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"xdao.co/support/cidutil"
	"xdao.co/support/keys"
	"xdao.co/support/operator"
	"xdao.co/support/pool"
	"xdao.co/support/store"
	"xdao.co/support/store/memstore"
	"xdao.co/support/store/testkit"
)

type fixture struct {
	srv    *Server
	client *Client
	store  *memstore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	op := operator.New(keys.Secp256k1, nil)
	archive := memstore.New()
	srv := &Server{
		Operator: op,
		Pool:     pool.New(pool.Options{MinDifficulty: 1, Archive: archive}),
		Store:    archive,
		Mining:   Mining{Difficulty: 1, Workers: 2, MaxRounds: 2},
		Now:      func() time.Time { return time.Unix(testkit.Timestamp, 0) },
	}

	lis := bufconn.Listen(1024 * 1024)
	gs := grpc.NewServer()
	RegisterSupportServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	dialer := func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }
	c, err := Dial("passthrough:///bufnet", DialOptions{Extra: []grpc.DialOption{grpc.WithContextDialer(dialer)}})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	c.Timeout = 5 * time.Second
	t.Cleanup(func() { _ = c.Close() })
	return &fixture{srv: srv, client: c, store: archive}
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestOperatorSettings(t *testing.T) {
	f := newFixture(t)
	if err := f.client.SetStatus(ctx(t), "active"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := f.client.SetStatus(ctx(t), "bogus"); err == nil {
		t.Fatalf("expected unknown status to be reported")
	}
	if err := f.client.SetWorkerPubKey(ctx(t), testkit.WorkerKeyHex); err != nil {
		t.Fatalf("SetWorkerPubKey: %v", err)
	}
	if err := f.client.SetSupportPubKey(ctx(t), "abcd"); !errors.Is(err, operator.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	info, err := f.client.Info(ctx(t))
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Status != operator.Active || info.WorkerPubKey != "751e76e8199196d454941c45d1b3a323f1433bd6" || info.SupportPubKey != "" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestCreateSupportTicket(t *testing.T) {
	f := newFixture(t)
	if _, err := f.client.Create(ctx(t), testkit.SupportedHash); !errors.Is(err, operator.ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
	f.srv.Operator.SetStatus("active")
	if _, err := f.client.Create(ctx(t), testkit.SupportedHash); !errors.Is(err, operator.ErrKeysUnset) {
		t.Fatalf("expected ErrKeysUnset, got %v", err)
	}
	if err := f.srv.Operator.SetWorkerPubKey(testkit.WorkerKeyHex); err != nil {
		t.Fatal(err)
	}
	if err := f.srv.Operator.SetSupportPubKey(testkit.SupportKeyHex); err != nil {
		t.Fatal(err)
	}

	r, err := f.client.Create(ctx(t), testkit.SupportedHash)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !r.VerifyPoW(1) || r.Timestamp() != testkit.Timestamp {
		t.Fatalf("unexpected ticket: zeros=%d ts=%d", r.LeadingZeroBytes(), r.Timestamp())
	}
	if f.srv.Pool.Len() != 1 || f.store.Len() != 1 {
		t.Fatalf("expected ticket pooled and archived")
	}

	list, err := f.client.List(ctx(t))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0] != r.View() {
		t.Fatalf("listing mismatch: %+v vs %+v", list, r.View())
	}
}

func TestCreateMinesToPoolMinimum(t *testing.T) {
	f := newFixture(t)
	f.srv.Mining.Difficulty = 0
	f.srv.Operator.SetStatus("active")
	if err := f.srv.Operator.SetWorkerPubKey(testkit.WorkerKeyHex); err != nil {
		t.Fatal(err)
	}
	if err := f.srv.Operator.SetSupportPubKey(testkit.SupportKeyHex); err != nil {
		t.Fatal(err)
	}
	r, err := f.client.Create(ctx(t), testkit.SupportedHash)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !r.VerifyPoW(f.srv.Pool.MinDifficulty()) {
		t.Fatalf("created ticket has %d zero bytes, pool needs %d", r.LeadingZeroBytes(), f.srv.Pool.MinDifficulty())
	}
}

func TestSubmitAndGet(t *testing.T) {
	f := newFixture(t)
	r := testkit.Ref(t, testkit.NonceZero2)
	id, err := f.client.Submit(ctx(t), r)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !id.Equals(cidutil.TicketCID(r)) {
		t.Fatalf("unexpected CID %s", id)
	}
	if _, err := f.client.Submit(ctx(t), r); err != nil {
		t.Fatalf("resubmitting should be idempotent: %v", err)
	}
	got, err := f.client.Fetch(ctx(t), id)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.Ticket() != r.Ticket() {
		t.Fatalf("fetched ticket differs")
	}

	// Served from the archive once it leaves the pool.
	if _, err := f.srv.Pool.Remove(r.Hash()); err != nil {
		t.Fatal(err)
	}
	if !f.client.Has(id) {
		t.Fatalf("expected archived ticket to be reachable")
	}
}

func TestSubmitRejects(t *testing.T) {
	f := newFixture(t)
	if _, err := f.client.Submit(ctx(t), testkit.Ref(t, 0)); !errors.Is(err, pool.ErrInsufficientWork) {
		t.Fatalf("expected ErrInsufficientWork, got %v", err)
	}
	missing := cidutil.TicketCID(testkit.Ref(t, 5))
	if _, err := f.client.Fetch(ctx(t), missing); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if f.client.Has(missing) {
		t.Fatalf("Has should be false for a missing ticket")
	}
}

func TestClientAsStore(t *testing.T) {
	f := newFixture(t)
	testkitSubset := []uint32{testkit.NonceZero1, testkit.NonceZero2}
	for _, n := range testkitSubset {
		r := testkit.Ref(t, n)
		id, err := f.client.Put(r)
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := f.client.Get(id)
		if err != nil || got.Hash() != r.Hash() {
			t.Fatalf("Get: %v", err)
		}
	}
}
