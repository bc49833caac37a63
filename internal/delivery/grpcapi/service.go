package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages travel as google.protobuf.Struct so the service needs no generated code.
// Field names match the HTTP JSON bodies.

const serviceName = "escrow.v1.EscrowService"

type EscrowServiceServer interface {
	CreateOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	OpenEscrow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LockEscrow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompleteEscrow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DisputeEscrow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefundEscrow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEscrow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(EscrowServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

var methods = map[string]unaryCall{
	"CreateOrder":    EscrowServiceServer.CreateOrder,
	"CancelOrder":    EscrowServiceServer.CancelOrder,
	"OpenEscrow":     EscrowServiceServer.OpenEscrow,
	"LockEscrow":     EscrowServiceServer.LockEscrow,
	"CompleteEscrow": EscrowServiceServer.CompleteEscrow,
	"DisputeEscrow":  EscrowServiceServer.DisputeEscrow,
	"RefundEscrow":   EscrowServiceServer.RefundEscrow,
	"GetEscrow":      EscrowServiceServer.GetEscrow,
	"GetBalance":     EscrowServiceServer.GetBalance,
}

func unaryHandler(name string, call unaryCall) grpc.MethodHandler {
	fullMethod := "/" + serviceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EscrowServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EscrowServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func serviceDesc() *grpc.ServiceDesc {
	desc := &grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*EscrowServiceServer)(nil),
		Metadata:    "escrow/v1/escrow.proto",
	}
	for name, call := range methods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{MethodName: name, Handler: unaryHandler(name, call)})
	}
	return desc
}

func RegisterEscrowServiceServer(s grpc.ServiceRegistrar, srv EscrowServiceServer) {
	s.RegisterService(serviceDesc(), srv)
}

// EscrowServiceClient calls one method by name.
type EscrowServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewEscrowServiceClient(cc grpc.ClientConnInterface) *EscrowServiceClient {
	return &EscrowServiceClient{cc: cc}
}

func (c *EscrowServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
