package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/signalsfoundry/moonangle/internal/logging"
	"github.com/signalsfoundry/moonangle/internal/observability"
	"github.com/signalsfoundry/moonangle/model"
)

const (
	requestIDMetadataKey = "x-request-id"
	monitorIDMetadataKey = "x-monitor-id"

	maxRequestIDLen = 64
)

// Identity names the monitor an RPC is served by.
type Identity interface {
	ID() string
	Body() model.Body
}

// MonitorContextUnaryServerInterceptor scopes each call to the monitor
// behind the service. The context carries the request id (the caller's
// x-request-id when it is well formed, a fresh one otherwise) and the
// monitor id, plus a logger tagged with both and the RPC name. Both ids are
// returned to the caller as response headers.
func MonitorContextUnaryServerInterceptor(id Identity, base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		_, rpc := observability.SplitMethod(info.FullMethod)
		log := base.With(logging.String("rpc", rpc))

		if md, ok := metadata.FromIncomingContext(ctx); ok {
			switch incoming := firstHeader(md, requestIDMetadataKey); {
			case validRequestID(incoming):
				ctx = logging.ContextWithRequestID(ctx, incoming)
			case incoming != "":
				log.Debug(ctx, "ignoring malformed request id", logging.Int("length", len(incoming)))
			}
		}
		ctx, log = logging.WithRequestLogger(ctx, log)
		ctx, log = logging.WithMonitorLogger(ctx, log, id.ID())
		ctx = logging.ContextWithLogger(ctx, log)

		_ = grpc.SetHeader(ctx, metadata.Pairs(
			requestIDMetadataKey, logging.RequestIDFromContext(ctx),
			monitorIDMetadataKey, id.ID(),
		))
		return handler(ctx, req)
	}
}

// validRequestID accepts short ids made of letters, digits, '-', '_' and '.'.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

func firstHeader(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
