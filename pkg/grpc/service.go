package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The service speaks google.protobuf.Struct in both directions, so the
// descriptor below stands in for generated code.

const (
	ServiceName = "aquapure.v1.UsageService"

	LogUsageFullMethod    = "/" + ServiceName + "/LogUsage"
	GetWindowFullMethod   = "/" + ServiceName + "/GetWindow"
	GetSummaryFullMethod  = "/" + ServiceName + "/GetSummary"
	GetAlertsFullMethod   = "/" + ServiceName + "/GetAlerts"
	PostSensorFullMethod  = "/" + ServiceName + "/PostSensor"
	PostLimiterFullMethod = "/" + ServiceName + "/PostLimiter"
	WatchWindowFullMethod = "/" + ServiceName + "/WatchWindow"
)

type UsageServiceServer interface {
	LogUsage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetWindow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAlerts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PostSensor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PostLimiter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchWindow(*structpb.Struct, grpc.ServerStream) error
}

func RegisterUsageServiceServer(s grpc.ServiceRegistrar, srv UsageServiceServer) {
	s.RegisterService(&UsageServiceDesc, srv)
}

func unaryHandler(
	fullMethod string,
	call func(srv UsageServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(UsageServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(UsageServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchWindowHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(UsageServiceServer).WatchWindow(in, stream)
}

var UsageServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UsageServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "LogUsage",
			Handler: unaryHandler(LogUsageFullMethod, func(srv UsageServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.LogUsage(ctx, req)
			}),
		},
		{
			MethodName: "GetWindow",
			Handler: unaryHandler(GetWindowFullMethod, func(srv UsageServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.GetWindow(ctx, req)
			}),
		},
		{
			MethodName: "GetSummary",
			Handler: unaryHandler(GetSummaryFullMethod, func(srv UsageServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.GetSummary(ctx, req)
			}),
		},
		{
			MethodName: "GetAlerts",
			Handler: unaryHandler(GetAlertsFullMethod, func(srv UsageServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.GetAlerts(ctx, req)
			}),
		},
		{
			MethodName: "PostSensor",
			Handler: unaryHandler(PostSensorFullMethod, func(srv UsageServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.PostSensor(ctx, req)
			}),
		},
		{
			MethodName: "PostLimiter",
			Handler: unaryHandler(PostLimiterFullMethod, func(srv UsageServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.PostLimiter(ctx, req)
			}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchWindow",
			Handler:       watchWindowHandler,
			ServerStreams: true,
		},
	},
	Metadata: "aquapure/v1/usage_service.proto",
}

type UsageServiceClient interface {
	LogUsage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetWindow(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetAlerts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	PostSensor(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	PostLimiter(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	WatchWindow(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (WatchWindowClient, error)
}

type WatchWindowClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type usageServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewUsageServiceClient(cc grpc.ClientConnInterface) UsageServiceClient {
	return &usageServiceClient{cc}
}

func (c *usageServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *usageServiceClient) LogUsage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LogUsageFullMethod, in, opts...)
}

func (c *usageServiceClient) GetWindow(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetWindowFullMethod, in, opts...)
}

func (c *usageServiceClient) GetSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetSummaryFullMethod, in, opts...)
}

func (c *usageServiceClient) GetAlerts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetAlertsFullMethod, in, opts...)
}

func (c *usageServiceClient) PostSensor(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PostSensorFullMethod, in, opts...)
}

func (c *usageServiceClient) PostLimiter(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PostLimiterFullMethod, in, opts...)
}

func (c *usageServiceClient) WatchWindow(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (WatchWindowClient, error) {
	stream, err := c.cc.NewStream(ctx, &UsageServiceDesc.Streams[0], WatchWindowFullMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &watchWindowClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type watchWindowClient struct {
	grpc.ClientStream
}

func (x *watchWindowClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
