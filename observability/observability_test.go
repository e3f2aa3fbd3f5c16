package observability

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure || !cfg.Enabled {
		t.Error("expected Insecure and Enabled to be true")
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
	}
	for _, tt := range tests {
		if got := Sampler(tt.rate).Description(); got != tt.want {
			t.Errorf("rate %v: expected %s, got %s", tt.rate, tt.want, got)
		}
	}
}

func TestNewClientMetrics_Noop(t *testing.T) {
	m, err := NewClientMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	ctx := context.Background()
	done := m.Start(ctx)
	m.RecordAttempt(ctx, "GET", 200, "", time.Millisecond)
	m.RecordRetry(ctx, "GET")
	m.RecordRateLimited(ctx, "GET")
	done()
}

func TestClientMetrics_NilSafe(t *testing.T) {
	var m *ClientMetrics
	ctx := context.Background()
	m.Start(ctx)()
	m.RecordAttempt(ctx, "GET", 500, "server", time.Millisecond)
	m.RecordRetry(ctx, "GET")
	m.RecordRateLimited(ctx, "GET")
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumInt(t *testing.T, agg metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := agg.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", agg)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestClientMetrics_Recorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewClientMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	m.RecordAttempt(ctx, "GET", 500, "server", 10*time.Millisecond)
	m.RecordAttempt(ctx, "GET", 200, "", 5*time.Millisecond)
	m.RecordRetry(ctx, "GET")
	m.RecordRateLimited(ctx, "POST")
	done := m.Start(ctx)

	data := collect(t, reader)
	if got := sumInt(t, data["apiguard.requests"]); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
	if got := sumInt(t, data["apiguard.retries"]); got != 1 {
		t.Errorf("expected 1 retry, got %d", got)
	}
	if got := sumInt(t, data["apiguard.rate_limited"]); got != 1 {
		t.Errorf("expected 1 rate limited, got %d", got)
	}
	if got := sumInt(t, data["apiguard.requests.active"]); got != 1 {
		t.Errorf("expected 1 in flight, got %d", got)
	}
	hist, ok := data["apiguard.request.duration"].(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 2 {
		t.Errorf("expected 2 duration samples, got %+v", data["apiguard.request.duration"])
	}

	done()
	data = collect(t, reader)
	if got := sumInt(t, data["apiguard.requests.active"]); got != 0 {
		t.Errorf("expected 0 in flight after done, got %d", got)
	}
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestRequestSpan_Success(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tracer := tp.Tracer("test")

	_, span := StartRequestSpan(context.Background(), tracer, "GET", "http://api/users", "req-1", 0)
	EndRequestSpan(span, 200, "", nil)

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	s := ended[0]
	if s.Name() != SpanHTTPRequest {
		t.Errorf("expected span name %s, got %s", SpanHTTPRequest, s.Name())
	}
	if v, ok := attrValue(s.Attributes(), AttrMethod); !ok || v.AsString() != "GET" {
		t.Errorf("expected method GET, got %v", v)
	}
	if v, ok := attrValue(s.Attributes(), AttrRequestID); !ok || v.AsString() != "req-1" {
		t.Errorf("expected request id req-1, got %v", v)
	}
	if v, ok := attrValue(s.Attributes(), AttrStatus); !ok || v.AsInt64() != 200 {
		t.Errorf("expected status 200, got %v", v)
	}
	if s.Status().Code == codes.Error {
		t.Error("expected non-error status")
	}
}

func TestRequestSpan_Error(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	_, span := StartRequestSpan(context.Background(), tp.Tracer("test"), "POST", "http://api/login", "req-2", 2)
	EndRequestSpan(span, 0, "network", errors.New("connection refused"))

	s := sr.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status().Code)
	}
	if v, _ := attrValue(s.Attributes(), AttrErrorKind); v.AsString() != "network" {
		t.Errorf("expected error kind network, got %v", v)
	}
	if v, _ := attrValue(s.Attributes(), AttrAttempt); v.AsInt64() != 2 {
		t.Errorf("expected attempt 2, got %v", v)
	}
	if _, ok := attrValue(s.Attributes(), AttrStatus); ok {
		t.Error("expected no status attribute without a response")
	}
	if len(s.Events()) == 0 {
		t.Error("expected the error to be recorded as an event")
	}
}

func TestInjectHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	headers := http.Header{}
	InjectHeaders(context.Background(), headers)
	if headers.Get("traceparent") != "" {
		t.Error("expected no traceparent without an active span")
	}

	ctx, span := StartRequestSpan(context.Background(), tp.Tracer("test"), "GET", "http://api/x", "req", 0)
	defer span.End()
	InjectHeaders(ctx, headers)
	if headers.Get("traceparent") == "" {
		t.Error("expected traceparent with an active span")
	}
}
