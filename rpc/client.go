package rpc

import (
	"context"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/support/cidutil"
	"xdao.co/support/operator"
	"xdao.co/support/store"
	"xdao.co/support/ticket"
)

// Client talks to a support daemon. It also implements store.Store: Put
// submits the ticket to the remote pool, so tickets below the remote
// minimum difficulty are refused.
type Client struct {
	cc     *grpc.ClientConn
	client SupportClient

	// Timeout applies per store.Store call when non-zero. Methods that take
	// a context use the caller's deadline instead.
	Timeout time.Duration
}

var _ store.Store = (*Client)(nil)

type DialOptions struct {
	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
	// Extra options, e.g. a context dialer for tests.
	Extra []grpc.DialOption
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts, grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
			grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
		))
	}
	dialOpts = append(dialOpts, opts.Extra...)
	cc, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewSupportClient(cc)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Info(ctx context.Context) (operator.Info, error) {
	st, err := c.client.GetSupportInfo(ctx, &emptypb.Empty{})
	if err != nil {
		return operator.Info{}, fromStatus(err)
	}
	f := st.GetFields()
	return operator.Info{
		Status:        operator.Status(f["status"].GetStringValue()),
		WorkerPubKey:  f["workerpubkey"].GetStringValue(),
		SupportPubKey: f["supportpubkey"].GetStringValue(),
	}, nil
}

func (c *Client) SetStatus(ctx context.Context, s string) error {
	_, err := c.client.SetSupportStatus(ctx, wrapperspb.String(s))
	return fromStatus(err)
}

func (c *Client) SetWorkerPubKey(ctx context.Context, hexKey string) error {
	_, err := c.client.SetWorkerPubKey(ctx, wrapperspb.String(hexKey))
	return fromStatus(err)
}

func (c *Client) SetSupportPubKey(ctx context.Context, hexKey string) error {
	_, err := c.client.SetSupportPubKey(ctx, wrapperspb.String(hexKey))
	return fromStatus(err)
}

// Create asks the daemon to mine a ticket for supportedHash.
func (c *Client) Create(ctx context.Context, supportedHash string) (*ticket.Ref, error) {
	reply, err := c.client.CreateSupportTicket(ctx, wrapperspb.String(supportedHash))
	if err != nil {
		return nil, fromStatus(err)
	}
	return ticket.DecodeRef(reply.GetValue(), 0)
}

// List returns the daemon's pool in its listing order.
func (c *Client) List(ctx context.Context) ([]ticket.View, error) {
	lv, err := c.client.GetSupportTickets(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fromStatus(err)
	}
	out := make([]ticket.View, 0, len(lv.GetValues()))
	for _, v := range lv.GetValues() {
		f := v.GetStructValue().GetFields()
		out = append(out, ticket.View{
			SupportedHash: f["supportedHash"].GetStringValue(),
			WorkerPubKey:  f["workerpubkey"].GetStringValue(),
			SupportPubKey: f["supportpubkey"].GetStringValue(),
			Timestamp:     uint32(f["timestamp"].GetNumberValue()),
			Nonce:         uint32(f["nonce"].GetNumberValue()),
			Hash:          f["hash"].GetStringValue(),
			Value:         uint32(f["value"].GetNumberValue()),
		})
	}
	return out, nil
}

func (c *Client) Submit(ctx context.Context, r *ticket.Ref) (cid.Cid, error) {
	if r == nil {
		return cid.Undef, store.ErrInvalidCID
	}
	reply, err := c.client.SubmitTicket(ctx, wrapperspb.Bytes(r.Serialize()))
	if err != nil {
		return cid.Undef, fromStatus(err)
	}
	id, err := cidutil.Parse(reply.GetValue())
	if err != nil {
		return cid.Undef, store.ErrInvalidCID
	}
	if !cidutil.Matches(id, r) {
		return cid.Undef, store.ErrCIDMismatch
	}
	return id, nil
}

func (c *Client) Fetch(ctx context.Context, id cid.Cid) (*ticket.Ref, error) {
	if err := store.CheckCID(id); err != nil {
		return nil, err
	}
	reply, err := c.client.GetTicket(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return nil, fromStatus(err)
	}
	return store.Decode(id, reply.GetValue())
}

func (c *Client) Put(r *ticket.Ref) (cid.Cid, error) {
	ctx, cancel := c.ctx()
	defer cancel()
	return c.Submit(ctx, r)
}

func (c *Client) Get(id cid.Cid) (*ticket.Ref, error) {
	ctx, cancel := c.ctx()
	defer cancel()
	return c.Fetch(ctx, id)
}

func (c *Client) Has(id cid.Cid) bool {
	_, err := c.Get(id)
	return err == nil
}

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}
