/*
Package tracing provides lightweight request tracing.

Each HTTP request gets a span whose ids travel in the X-Trace-ID and
X-Span-ID headers. A caller that sends X-Trace-ID keeps its trace; the
stream handler tags its connection logs with the same trace id, so a
WebSocket session can be followed from the upgrade request onwards.

Completed spans are buffered and logged through zap by a single collector
goroutine. A full buffer drops spans rather than blocking requests.

# Usage

	tracer := tracing.New("workerview", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	traceID := tracing.GetTraceID(c.Request.Context())
*/
package tracing
