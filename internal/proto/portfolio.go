// Package proto describes the gopfolio.Portfolio gRPC service. Requests and
// responses are google.protobuf.Struct values so no generated code is
// needed on either side.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "gopfolio.Portfolio"

// Full method names, as seen by interceptors.
const (
	MethodLogin   = "/" + ServiceName + "/Login"
	MethodLogout  = "/" + ServiceName + "/Logout"
	MethodTotals  = "/" + ServiceName + "/Totals"
	MethodHistory = "/" + ServiceName + "/History"
	MethodClear   = "/" + ServiceName + "/Clear"
)

// PortfolioServer is implemented by the server side.
type PortfolioServer interface {
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Totals(context.Context, *structpb.Struct) (*structpb.Struct, error)
	History(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Clear(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(PortfolioServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PortfolioServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PortfolioServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PortfolioServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Login", PortfolioServer.Login),
		unary("Logout", PortfolioServer.Logout),
		unary("Totals", PortfolioServer.Totals),
		unary("History", PortfolioServer.History),
		unary("Clear", PortfolioServer.Clear),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gopfolio/portfolio",
}

func RegisterPortfolioServer(s grpc.ServiceRegistrar, srv PortfolioServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// PortfolioClient calls the service over an established connection.
type PortfolioClient struct {
	cc grpc.ClientConnInterface
}

func NewPortfolioClient(cc grpc.ClientConnInterface) *PortfolioClient {
	return &PortfolioClient{cc: cc}
}

func (c *PortfolioClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PortfolioClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodLogin, in, opts...)
}

func (c *PortfolioClient) Logout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodLogout, in, opts...)
}

func (c *PortfolioClient) Totals(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodTotals, in, opts...)
}

func (c *PortfolioClient) History(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodHistory, in, opts...)
}

func (c *PortfolioClient) Clear(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodClear, in, opts...)
}
