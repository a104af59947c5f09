package api

import (
	"context"
	"math"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/signalsfoundry/moonangle/internal/logging"
	"github.com/signalsfoundry/moonangle/internal/observability"
)

func startServer(t *testing.T, svc *MonitorService, collector *observability.APICollector) *grpc.ClientConn {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server, _ := NewServer(svc, collector, logging.Noop())
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestServerLoopback(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}
	m := newTestMonitor(t)
	attach45(m)
	conn := startServer(t, NewMonitorService(m, logging.Noop()), collector)
	client := NewMonitorServiceClient(conn)
	ctx := testContext(t)

	hc, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if hc.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("health = %v, want SERVING", hc.GetStatus())
	}

	if _, err := client.Configure(ctx, mustStruct(t, map[string]interface{}{"separationLimit": 50.0})); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	state, err := client.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// 45 <= 50 holds.
	if !state.GetFields()["satisfied"].GetBoolValue() {
		t.Fatalf("expected satisfied state, got %v", state.GetFields())
	}

	_, err = client.Configure(ctx, mustStruct(t, map[string]interface{}{"comparisonOperator": "~"}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v, want InvalidArgument", status.Code(err))
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("MonitorService", "Configure", "OK")); got != 1 {
		t.Fatalf("Configure OK count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("MonitorService", "Configure", "InvalidArgument")); got != 1 {
		t.Fatalf("Configure InvalidArgument count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("MonitorService", "Evaluate", "OK")); got != 1 {
		t.Fatalf("Evaluate OK count = %v, want 1", got)
	}
}

func TestServerEchoesRequestAndMonitorIDs(t *testing.T) {
	m := newTestMonitor(t)
	conn := startServer(t, NewMonitorService(m, logging.Noop()), nil)
	client := NewMonitorServiceClient(conn)

	cases := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"well formed", "req-123", true},
		{"absent", "", false},
		{"too long", strings.Repeat("a", maxRequestIDLen+1), false},
		{"bad characters", "req 1;drop", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := testContext(t)
			if tc.incoming != "" {
				ctx = metadata.AppendToOutgoingContext(ctx, requestIDMetadataKey, tc.incoming)
			}
			var header metadata.MD
			if _, err := client.GetState(ctx, grpc.Header(&header)); err != nil {
				t.Fatalf("GetState: %v", err)
			}
			got := firstHeader(header, requestIDMetadataKey)
			switch {
			case tc.keep && got != tc.incoming:
				t.Fatalf("x-request-id = %q, want %q", got, tc.incoming)
			case !tc.keep && (got == "" || got == tc.incoming):
				t.Fatalf("x-request-id = %q, want a generated id", got)
			}
			if id := firstHeader(header, monitorIDMetadataKey); id != m.ID() {
				t.Fatalf("x-monitor-id = %q, want %q", id, m.ID())
			}
		})
	}
}

func TestMonitorContextInterceptorTagsContext(t *testing.T) {
	m := newTestMonitor(t)
	interceptor := MonitorContextUnaryServerInterceptor(m, logging.Noop())
	info := &grpc.UnaryServerInfo{FullMethod: fullMethod("GetState")}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		if got := logging.MonitorIDFromContext(ctx); got != m.ID() {
			t.Errorf("monitor id = %q, want %q", got, m.ID())
		}
		if logging.RequestIDFromContext(ctx) == "" {
			t.Errorf("request id missing")
		}
		if logging.LoggerFromContext(ctx) == nil {
			t.Errorf("request logger missing")
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
}

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingInterceptorRecordsFailure(t *testing.T) {
	recorder := installRecorder(t)
	m := newTestMonitor(t)

	interceptor := TracingUnaryServerInterceptor(m)
	ctx := logging.ContextWithRequestID(context.Background(), "req-9")
	info := &grpc.UnaryServerInfo{FullMethod: fullMethod("Validate")}
	_, err := interceptor(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.Internal, "boom")
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("err = %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "MonitorService.Validate" {
		t.Fatalf("span name = %q", span.Name())
	}
	if v, ok := spanAttr(span, "request_id"); !ok || v.AsString() != "req-9" {
		t.Fatalf("request_id attribute = %v, %v", v, ok)
	}
	if v, ok := spanAttr(span, "monitor.id"); !ok || v.AsString() != m.ID() {
		t.Fatalf("monitor.id attribute = %v, %v", v, ok)
	}
	if v, ok := spanAttr(span, "rpc.grpc.status_code"); !ok || v.AsInt64() != int64(codes.Internal) {
		t.Fatalf("status code attribute = %v, %v", v, ok)
	}
	if len(span.Events()) == 0 {
		t.Fatalf("expected the error to be recorded")
	}
}

func TestTracingInterceptorRecordsEvaluation(t *testing.T) {
	recorder := installRecorder(t)
	m := newTestMonitor(t)
	attach45(m)
	m.SetSeparationLimit(50)
	svc := NewMonitorService(m, logging.Noop())

	interceptor := TracingUnaryServerInterceptor(m)
	info := &grpc.UnaryServerInfo{FullMethod: fullMethod("Evaluate")}
	_, err := interceptor(context.Background(), &emptypb.Empty{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return svc.Evaluate(ctx, req.(*emptypb.Empty))
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	var span sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() == "MonitorService.Evaluate" {
			span = s
		}
	}
	if span == nil {
		t.Fatalf("no MonitorService.Evaluate span among %d", len(recorder.Ended()))
	}
	if v, ok := spanAttr(span, "monitor.separation_deg"); !ok || math.Abs(v.AsFloat64()-45) > 1e-6 {
		t.Fatalf("separation attribute = %v, %v", v, ok)
	}
	if v, ok := spanAttr(span, "monitor.satisfied"); !ok || !v.AsBool() {
		t.Fatalf("satisfied attribute = %v, %v", v, ok)
	}
	if v, ok := spanAttr(span, "monitor.body"); !ok || v.AsString() != "moon" {
		t.Fatalf("body attribute = %v, %v", v, ok)
	}
}
