package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/finworks/accrual-engine-go/internal/telemetry"
)

// Package middleware provides HTTP middleware components for admin
// authorization, telemetry, and other cross-cutting concerns. Request spans
// come from the otelgin middleware wired in cmd/server; the helpers here
// annotate those spans rather than opening parallel ones.

// HealthCheckTelemetryMiddleware annotates health probe spans with the probe
// outcome, so a flapping readiness check is visible in traces without
// reading response bodies.
func HealthCheckTelemetryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		statusCode := c.Writer.Status()
		span.SetAttributes(
			attribute.String("span.type", "health_check"),
			attribute.String("health.status", healthStatusFromCode(statusCode)),
			attribute.Int64("http.response.time_ms", time.Since(start).Milliseconds()),
		)

		if statusCode >= 400 {
			span.SetStatus(codes.Error, fmt.Sprintf("health probe failed: HTTP %d", statusCode))
		}
	}
}

// RecordError records an error on the current request span.
func RecordError(c *gin.Context, err error, description string) {
	span := trace.SpanFromContext(c.Request.Context())
	if span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, description)
	}
}

// AddSpanAttribute adds an attribute to the current request span.
func AddSpanAttribute(c *gin.Context, key string, value interface{}) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}

	switch v := value.(type) {
	case string:
		span.SetAttributes(attribute.String(key, v))
	case int:
		span.SetAttributes(attribute.Int(key, v))
	case int64:
		span.SetAttributes(attribute.Int64(key, v))
	case float64:
		span.SetAttributes(attribute.Float64(key, v))
	case bool:
		span.SetAttributes(attribute.Bool(key, v))
	default:
		span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", value)))
	}
}

// StartSpan starts a child span under the current request context and swaps
// the enriched context back onto the request.
func StartSpan(c *gin.Context, name string) (context.Context, trace.Span) {
	tracer := telemetry.GetHTTPTracer()
	ctx, span := tracer.Start(c.Request.Context(), name, trace.WithSpanKind(trace.SpanKindServer))
	c.Request = c.Request.WithContext(ctx)
	return ctx, span
}

// healthStatusFromCode maps an HTTP status to the health label recorded on
// probe spans.
func healthStatusFromCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "healthy"
	case code >= 400 && code < 500:
		return "client_error"
	case code >= 500:
		return "server_error"
	default:
		return "unknown"
	}
}
