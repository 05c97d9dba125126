package rpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/support/cidutil"
	"xdao.co/support/miner"
	"xdao.co/support/operator"
	"xdao.co/support/pool"
	"xdao.co/support/store"
	"xdao.co/support/ticket"
)

// Mining controls CreateSupportTicket.
type Mining struct {
	Difficulty int
	Workers    int
	MaxRounds  int
}

// Server exposes an operator, its pool and an optional archive store.
type Server struct {
	UnimplementedSupportServer

	Operator *operator.State
	Pool     *pool.Pool
	// Store, if set, answers GetTicket for tickets no longer in the pool.
	// It is normally the pool's archive.
	Store  store.Store
	Mining Mining
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *Server) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) ready() error {
	if s == nil || s.Operator == nil || s.Pool == nil {
		return status.Error(codes.FailedPrecondition, "server not configured")
	}
	return nil
}

func (s *Server) GetSupportInfo(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	info := s.Operator.Info()
	st := s.Pool.Stats()
	out, err := structpb.NewStruct(map[string]any{
		"status":        string(info.Status),
		"workerpubkey":  info.WorkerPubKey,
		"supportpubkey": info.SupportPubKey,
		"tickets":       st.Count,
		"totalvalue":    float64(st.TotalValue),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Server) SetSupportStatus(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !s.Operator.SetStatus(in.GetValue()) {
		return nil, status.Errorf(codes.InvalidArgument, "unknown support status %q; status unchanged", in.GetValue())
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) SetWorkerPubKey(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := s.Operator.SetWorkerPubKey(in.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) SetSupportPubKey(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := s.Operator.SetSupportPubKey(in.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) CreateSupportTicket(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if in.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "supported hash is required")
	}
	t, err := s.Operator.NewTicket(in.GetValue(), s.now())
	if err != nil {
		return nil, toStatus(err)
	}
	res, err := miner.SearchFresh(ctx, t, max(s.Mining.Difficulty, s.Pool.MinDifficulty()),
		miner.Options{Workers: s.Mining.Workers, Logger: s.log()},
		miner.Refresh{MaxRounds: s.Mining.MaxRounds, Now: s.Now})
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.admit(res.Ticket); err != nil {
		return nil, toStatus(err)
	}
	s.log().Info("support ticket created",
		"cid", cidutil.TicketCID(res.Ticket), "value", res.Ticket.Value(),
		"attempts", res.Attempts, "elapsed", res.Elapsed)
	return wrapperspb.Bytes(res.Ticket.Serialize()), nil
}

// admit inserts r into the pool, which archives it. A ticket already
// pooled is not an error.
func (s *Server) admit(r *ticket.Ref) error {
	if _, err := s.Pool.Insert(r); err != nil && !errors.Is(err, pool.ErrDuplicate) {
		return err
	}
	return nil
}

func (s *Server) GetSupportTickets(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	refs := s.Pool.List()
	vals := make([]*structpb.Value, 0, len(refs))
	for _, r := range refs {
		v := r.View()
		st, err := structpb.NewStruct(map[string]any{
			"supportedHash": v.SupportedHash,
			"workerpubkey":  v.WorkerPubKey,
			"supportpubkey": v.SupportPubKey,
			"timestamp":     v.Timestamp,
			"nonce":         v.Nonce,
			"hash":          v.Hash,
			"value":         v.Value,
			"cid":           cidutil.TicketCID(r).String(),
		})
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		vals = append(vals, structpb.NewStructValue(st))
	}
	return &structpb.ListValue{Values: vals}, nil
}

func (s *Server) SubmitTicket(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	r, err := ticket.DecodeRef(in.GetValue(), s.Pool.MinDifficulty())
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.admit(r); err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(cidutil.TicketCID(r).String()), nil
}

func (s *Server) GetTicket(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	id, err := cidutil.Parse(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, store.ErrInvalidCID.Error())
	}
	d, _ := cidutil.DigestFromCID(id)
	if r, ok := s.Pool.Get(d); ok {
		return wrapperspb.Bytes(r.Serialize()), nil
	}
	if s.Store == nil {
		return nil, toStatus(store.ErrNotFound)
	}
	r, err := s.Store.Get(id)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(r.Serialize()), nil
}
