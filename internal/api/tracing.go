package api

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/moonangle/internal/logging"
	"github.com/signalsfoundry/moonangle/internal/observability"
)

const tracerName = "github.com/signalsfoundry/moonangle/internal/api"

// TracingUnaryServerInterceptor names the server span "MonitorService.<RPC>" and
// tags it with the monitor's id and body. Calls that return a state also
// record its separation and outcome. A span is started when no stats
// handler created one.
func TracingUnaryServerInterceptor(id Identity) grpc.UnaryServerInterceptor {
	tracer := otel.Tracer(tracerName)

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		_, rpc := observability.SplitMethod(info.FullMethod)
		spanName := "MonitorService." + rpc
		span := trace.SpanFromContext(ctx)
		created := false
		if !span.SpanContext().IsValid() {
			ctx, span = tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer))
			created = true
		} else {
			span.SetName(spanName)
		}
		if created {
			defer span.End()
		}

		attrs := []attribute.KeyValue{
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.service", ServiceName),
			attribute.String("rpc.method", rpc),
			attribute.String("monitor.id", id.ID()),
			attribute.String("monitor.body", id.Body().String()),
		}
		if reqID := logging.RequestIDFromContext(ctx); reqID != "" {
			attrs = append(attrs, attribute.String("request_id", reqID))
		}
		span.SetAttributes(attrs...)

		resp, err := handler(ctx, req)
		span.SetAttributes(attribute.Int("rpc.grpc.status_code", int(status.Code(err))))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return resp, err
		}
		if out, ok := resp.(*structpb.Struct); ok {
			span.SetAttributes(stateAttributes(out)...)
		}
		return resp, nil
	}
}

// stateAttributes extracts the outcome of an evaluated state response.
func stateAttributes(s *structpb.Struct) []attribute.KeyValue {
	f := s.GetFields()
	if !f["evaluated"].GetBoolValue() {
		return nil
	}
	return []attribute.KeyValue{
		attribute.Float64("monitor.separation_deg", f["actualSeparation"].GetNumberValue()),
		attribute.Float64("monitor.limit_deg", f["effectiveLimit"].GetNumberValue()),
		attribute.Bool("monitor.satisfied", f["satisfied"].GetBoolValue()),
	}
}
