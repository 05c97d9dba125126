// Package rpc serves the support operations over gRPC.
//
// Messages are protobuf well-known types, so the package needs no protoc
// step. Service name: xdao.support.v1.Support.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "xdao.support.v1.Support"

type SupportServer interface {
	GetSupportInfo(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SetSupportStatus(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	SetWorkerPubKey(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	SetSupportPubKey(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	// CreateSupportTicket mines a ticket for the given supported hash with
	// the operator's keys and returns its encoding.
	CreateSupportTicket(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	GetSupportTickets(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	// SubmitTicket admits an encoded ticket and returns its CID.
	SubmitTicket(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	GetTicket(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedSupportServer can be embedded for forward compatibility.
type UnimplementedSupportServer struct{}

func unimplemented(m string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", m)
}

func (UnimplementedSupportServer) GetSupportInfo(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, unimplemented("GetSupportInfo")
}
func (UnimplementedSupportServer) SetSupportStatus(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, unimplemented("SetSupportStatus")
}
func (UnimplementedSupportServer) SetWorkerPubKey(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, unimplemented("SetWorkerPubKey")
}
func (UnimplementedSupportServer) SetSupportPubKey(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, unimplemented("SetSupportPubKey")
}
func (UnimplementedSupportServer) CreateSupportTicket(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, unimplemented("CreateSupportTicket")
}
func (UnimplementedSupportServer) GetSupportTickets(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	return nil, unimplemented("GetSupportTickets")
}
func (UnimplementedSupportServer) SubmitTicket(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, unimplemented("SubmitTicket")
}
func (UnimplementedSupportServer) GetTicket(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, unimplemented("GetTicket")
}

func RegisterSupportServer(s grpc.ServiceRegistrar, srv SupportServer) {
	s.RegisterService(&Support_ServiceDesc, srv)
}

// unary adapts a SupportServer method expression to a grpc.MethodDesc.
func unary[Req, Resp any](method string, call func(SupportServer, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	full := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SupportServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SupportServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var Support_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SupportServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetSupportInfo", SupportServer.GetSupportInfo),
		unary("SetSupportStatus", SupportServer.SetSupportStatus),
		unary("SetWorkerPubKey", SupportServer.SetWorkerPubKey),
		unary("SetSupportPubKey", SupportServer.SetSupportPubKey),
		unary("CreateSupportTicket", SupportServer.CreateSupportTicket),
		unary("GetSupportTickets", SupportServer.GetSupportTickets),
		unary("SubmitTicket", SupportServer.SubmitTicket),
		unary("GetTicket", SupportServer.GetTicket),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "support.proto",
}

// SupportClient is the raw client API.
type SupportClient interface {
	GetSupportInfo(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	SetSupportStatus(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	SetWorkerPubKey(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	SetSupportPubKey(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	CreateSupportTicket(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	GetSupportTickets(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	SubmitTicket(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	GetTicket(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type supportClient struct{ cc grpc.ClientConnInterface }

func NewSupportClient(cc grpc.ClientConnInterface) SupportClient { return &supportClient{cc: cc} }

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *supportClient) GetSupportInfo(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "GetSupportInfo", in, opts)
}
func (c *supportClient) SetSupportStatus(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "SetSupportStatus", in, opts)
}
func (c *supportClient) SetWorkerPubKey(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "SetWorkerPubKey", in, opts)
}
func (c *supportClient) SetSupportPubKey(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "SetSupportPubKey", in, opts)
}
func (c *supportClient) CreateSupportTicket(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c.cc, "CreateSupportTicket", in, opts)
}
func (c *supportClient) GetSupportTickets(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, "GetSupportTickets", in, opts)
}
func (c *supportClient) SubmitTicket(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, "SubmitTicket", in, opts)
}
func (c *supportClient) GetTicket(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c.cc, "GetTicket", in, opts)
}
