package rpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/support/miner"
	"xdao.co/support/operator"
	"xdao.co/support/pool"
	"xdao.co/support/store"
	"xdao.co/support/ticket"
)

// sentinels that survive the wire. Order matters only for lookups by
// message prefix; codes are listed for the server side.
var sentinels = []struct {
	err  error
	code codes.Code
}{
	{store.ErrNotFound, codes.NotFound},
	{store.ErrInvalidCID, codes.InvalidArgument},
	{store.ErrCIDMismatch, codes.DataLoss},
	{store.ErrImmutable, codes.FailedPrecondition},
	{pool.ErrNullTicket, codes.InvalidArgument},
	{pool.ErrInsufficientWork, codes.FailedPrecondition},
	{pool.ErrDuplicate, codes.AlreadyExists},
	{operator.ErrInvalidKey, codes.InvalidArgument},
	{operator.ErrInactive, codes.FailedPrecondition},
	{operator.ErrKeysUnset, codes.FailedPrecondition},
	{miner.ErrExhausted, codes.ResourceExhausted},
}

// toStatus maps a domain error to a gRPC status error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return status.Error(s.code, err.Error())
		}
	}
	if ticket.IsKind(err, ticket.KindDecode) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if ticket.IsKind(err, ticket.KindState) {
		return status.Error(codes.FailedPrecondition, pool.ErrInsufficientWork.Error()+": "+err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// remoteError carries the server's message and unwraps to the matching
// sentinel, so callers can use errors.Is across the wire.
type remoteError struct {
	msg      string
	sentinel error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }

func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()
	for _, s := range sentinels {
		if strings.HasPrefix(msg, s.err.Error()) {
			return &remoteError{msg: msg, sentinel: s.err}
		}
	}
	switch st.Code() {
	case codes.NotFound:
		return &remoteError{msg: msg, sentinel: store.ErrNotFound}
	case codes.DataLoss:
		return &remoteError{msg: msg, sentinel: store.ErrCIDMismatch}
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}
	return err
}
