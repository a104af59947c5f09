package api

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/moonangle/internal/logging"
	"github.com/signalsfoundry/moonangle/internal/observability"
)

// NewServer builds a gRPC server with the monitor-context, tracing and
// metrics interceptors, the otelgrpc stats handler, the monitor service and
// the standard health service. collector may be nil.
func NewServer(svc *MonitorService, collector *observability.APICollector, log logging.Logger, extra ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	interceptors := []grpc.UnaryServerInterceptor{
		MonitorContextUnaryServerInterceptor(svc.engine, log),
		TracingUnaryServerInterceptor(svc.engine),
	}
	if collector != nil {
		interceptors = append(interceptors, collector.UnaryServerInterceptor())
	}

	opts := append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	}, extra...)
	server := grpc.NewServer(opts...)

	RegisterMonitorServiceServer(server, svc)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)
	return server, hs
}
