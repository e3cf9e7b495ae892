// Package tracing provides OpenTelemetry tracing integration.
//
// Features:
//   - Automatic HTTP request tracing via Middleware
//   - A shared application tracer for manual spans
//   - Cross-service trace propagation (W3C Trace Context)
//
// Example usage:
//
//	import "stream-notify/internal/observability/tracing"
//
//	func dispatch(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "dispatch")
//	    defer span.End()
//	    // ... do work ...
//	}
package tracing
