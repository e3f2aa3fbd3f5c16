// Package observability provides OpenTelemetry tracing and metrics for
// outbound API requests.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("apiprobe"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	cfg := observability.DefaultMeterConfig("apiprobe")
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewClientMetrics(observability.Meter("apiguard"))
//	metrics.RecordAttempt(ctx, "GET", 200, "", elapsed)
//
// Request spans:
//
//	ctx, span := observability.StartRequestSpan(ctx, tracer, "GET", url, requestID, attempt)
//	defer observability.EndRequestSpan(span, status, kind, err)
package observability
