package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BusinessTracer provides utilities for tracing forecast domain operations.
// It covers the lifecycle spans of a forecast run, accuracy computation,
// adaptive weight refreshes, and outbound notifications.
type BusinessTracer struct {
	tracer trace.Tracer
}

// NewBusinessTracer creates a new instance of BusinessTracer.
//
// Returns:
//   - A pointer to an initialized BusinessTracer.
func NewBusinessTracer() *BusinessTracer {
	return &BusinessTracer{tracer: GetBusinessTracer()}
}

// TraceForecastRun starts a span covering one forecast run.
//
// Parameters:
//   - ctx: The context to attach the span to.
//   - period: The target period in YYYY-MM form.
//   - categoryCount: The number of categories the run covers.
//
// Returns:
//   - A context containing the new span.
//   - The created span.
func (bt *BusinessTracer) TraceForecastRun(ctx context.Context, period string, categoryCount int) (context.Context, trace.Span) {
	ctx, span := bt.tracer.Start(ctx, "forecast_run", trace.WithAttributes(
		attribute.String("forecast.period", period),
		attribute.Int("forecast.category_count", categoryCount),
	))
	return ctx, span
}

// RecordRunMetrics adds the outcome of a completed forecast run to a span.
func (bt *BusinessTracer) RecordRunMetrics(span trace.Span, metrics RunMetrics) {
	span.SetAttributes(
		attribute.String("forecast.version_id", metrics.VersionID),
		attribute.Int("forecast.categories_forecast", metrics.ForecastCategories),
		attribute.Int("forecast.categories_failed", metrics.FailedCategories),
		attribute.Int64("forecast.duration_ms", metrics.Duration.Milliseconds()),
	)
}

// TraceAccuracyRun starts a span covering accuracy computation for one period.
//
// Parameters:
//   - ctx: The context to attach the span to.
//   - period: The period whose actuals are being scored, in YYYY-MM form.
//
// Returns:
//   - A context containing the new span.
//   - The created span.
func (bt *BusinessTracer) TraceAccuracyRun(ctx context.Context, period string) (context.Context, trace.Span) {
	ctx, span := bt.tracer.Start(ctx, "accuracy_run", trace.WithAttributes(
		attribute.String("forecast.period", period),
	))
	return ctx, span
}

// RecordAccuracyMetrics records the outcome of an accuracy run onto a span.
func (bt *BusinessTracer) RecordAccuracyMetrics(span trace.Span, metrics AccuracyRunMetrics) {
	span.SetAttributes(
		attribute.String("forecast.version_id", metrics.VersionID),
		attribute.Int("accuracy.metric_count", metrics.MetricCount),
		attribute.Int("accuracy.skipped_count", metrics.SkippedCount),
		attribute.Int64("accuracy.duration_ms", metrics.Duration.Milliseconds()),
	)
}

// TraceWeightRefresh starts a span covering an adaptive weight refresh for
// one category.
func (bt *BusinessTracer) TraceWeightRefresh(ctx context.Context, category string) (context.Context, trace.Span) {
	ctx, span := bt.tracer.Start(ctx, "weight_refresh", trace.WithAttributes(
		attribute.String("forecast.category", category),
	))
	return ctx, span
}

// RecordWeightUpdate records the learned weights onto a span.
func (bt *BusinessTracer) RecordWeightUpdate(span trace.Span, metrics WeightUpdateMetrics) {
	span.SetAttributes(
		attribute.Int("weights.sample_count", metrics.SampleCount),
		attribute.Float64("weights.confidence_score", metrics.ConfidenceScore),
		attribute.Bool("weights.persisted", metrics.Persisted),
	)
	for method, weight := range metrics.Weights {
		span.SetAttributes(attribute.Float64("weights."+method, weight))
	}
}

// TraceNotification starts a span for tracing notification delivery.
//
// Parameters:
//   - ctx: The context to attach the span to.
//   - notificationType: The type of notification being sent.
//   - channel: The delivery channel, e.g. "telegram".
//
// Returns:
//   - A context containing the new span.
//   - The created span.
func (bt *BusinessTracer) TraceNotification(ctx context.Context, notificationType string, channel string) (context.Context, trace.Span) {
	ctx, span := bt.tracer.Start(ctx, "notification", trace.WithAttributes(
		attribute.String("notification.type", notificationType),
		attribute.String("notification.channel", channel),
	))
	return ctx, span
}

// RecordNotificationResult records the outcome of a notification attempt.
func (bt *BusinessTracer) RecordNotificationResult(span trace.Span, success bool, err error) {
	span.SetAttributes(attribute.Bool("notification.success", success))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "delivered")
}

// RunMetrics describes the outcome of a forecast run for telemetry.
type RunMetrics struct {
	VersionID          string
	ForecastCategories int
	FailedCategories   int
	Duration           time.Duration
}

// AccuracyRunMetrics describes the outcome of an accuracy run for telemetry.
type AccuracyRunMetrics struct {
	VersionID    string
	MetricCount  int
	SkippedCount int
	Duration     time.Duration
}

// WeightUpdateMetrics describes an adaptive weight refresh for telemetry.
type WeightUpdateMetrics struct {
	SampleCount     int
	ConfidenceScore float64
	Persisted       bool
	Weights         map[string]float64
}
