package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "moonangle.v1.MonitorService"

// MonitorServiceServer is the server API for the monitor service. Payloads
// are google.protobuf.Struct documents so clients need no generated stubs.
type MonitorServiceServer interface {
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Evaluate(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetConfig(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Configure(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Validate(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Patterns(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// MonitorServiceDesc describes the service for grpc.Server registration.
var MonitorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MonitorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		emptyMethod("GetState", MonitorServiceServer.GetState),
		emptyMethod("Evaluate", MonitorServiceServer.Evaluate),
		emptyMethod("GetConfig", MonitorServiceServer.GetConfig),
		structMethod("Configure", MonitorServiceServer.Configure),
		emptyMethod("Validate", MonitorServiceServer.Validate),
		emptyMethod("Patterns", MonitorServiceServer.Patterns),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "moonangle/v1/monitor.proto",
}

// RegisterMonitorServiceServer registers srv on s.
func RegisterMonitorServiceServer(s grpc.ServiceRegistrar, srv MonitorServiceServer) {
	s.RegisterService(&MonitorServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func emptyMethod(name string, call func(MonitorServiceServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(emptypb.Empty)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MonitorServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(MonitorServiceServer), ctx, req.(*emptypb.Empty))
			})
		},
	}
}

func structMethod(name string, call func(MonitorServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MonitorServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(MonitorServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// MonitorServiceClient calls a remote MonitorService.
type MonitorServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewMonitorServiceClient wraps an established connection.
func NewMonitorServiceClient(cc grpc.ClientConnInterface) *MonitorServiceClient {
	return &MonitorServiceClient{cc: cc}
}

func (c *MonitorServiceClient) GetState(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeEmpty(ctx, "GetState", opts...)
}

func (c *MonitorServiceClient) Evaluate(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeEmpty(ctx, "Evaluate", opts...)
}

func (c *MonitorServiceClient) GetConfig(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeEmpty(ctx, "GetConfig", opts...)
}

func (c *MonitorServiceClient) Configure(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("Configure"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MonitorServiceClient) Validate(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeEmpty(ctx, "Validate", opts...)
}

func (c *MonitorServiceClient) Patterns(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeEmpty(ctx, "Patterns", opts...)
}

func (c *MonitorServiceClient) invokeEmpty(ctx context.Context, name string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(name), &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
