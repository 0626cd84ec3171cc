package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Service information
	ServiceName    = "github.com/finworks/accrual-engine-go"
	ServiceVersion = "1.0.0"
)

// TelemetryConfig holds configuration for telemetry
type TelemetryConfig struct {
	Enabled        bool
	OTLPEndpoint   string
	ServiceName    string
	ServiceVersion string
	Environment    string
	SampleRate     float64
	BatchTimeout   time.Duration
	MaxExportBatch int
	MaxQueueSize   int
	LogLevel       string
}

// DefaultConfig returns default telemetry configuration
func DefaultConfig() *TelemetryConfig {
	return &TelemetryConfig{
		Enabled:        true,
		OTLPEndpoint:   "http://localhost:4318",
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    "development",
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		MaxExportBatch: 512,
		MaxQueueSize:   2048,
		LogLevel:       "info",
	}
}

var (
	mu             sync.Mutex
	globalProvider *sdktrace.TracerProvider
	globalLogger   *slog.Logger
)

// normalizeOTLPEndpoint splits an OTLP base URL into the host:port and URL
// path the HTTP exporter expects. The input must carry an http or https
// scheme; bare host:port strings are rejected. Any base path is preserved
// and /v1/traces appended unless already present.
func normalizeOTLPEndpoint(endpoint string) (hostport, urlPath string, insecure bool, resolved string, err error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", "", false, "", fmt.Errorf("invalid OTLPEndpoint %q: expected scheme://host[:port][/path]", endpoint)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", false, "", fmt.Errorf("invalid OTLPEndpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}

	basePath := strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(basePath, "/v1/traces") {
		basePath += "/v1/traces"
	}

	return u.Host, basePath, u.Scheme == "http", u.Scheme + "://" + u.Host + basePath, nil
}

// buildProvider assembles the tracer provider for an enabled config.
func buildProvider(ctx context.Context, config *TelemetryConfig) (*sdktrace.TracerProvider, error) {
	serviceName := config.ServiceName
	if serviceName == "" {
		serviceName = ServiceName
	}
	serviceVersion := config.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = ServiceVersion
	}
	environment := config.Environment
	if environment == "" {
		environment = "development"
	}

	var exporter sdktrace.SpanExporter
	if config.OTLPEndpoint != "" {
		hostport, urlPath, insecure, _, err := normalizeOTLPEndpoint(config.OTLPEndpoint)
		if err != nil {
			return nil, err
		}
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(hostport),
			otlptracehttp.WithURLPath(urlPath),
		}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	} else {
		// No collector configured: spans go to stdout
		var err error
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sampleRate := config.SampleRate
	if sampleRate <= 0 || sampleRate > 1 {
		sampleRate = 1.0
	}
	batchTimeout := config.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 5 * time.Second
	}
	maxExportBatch := config.MaxExportBatch
	if maxExportBatch <= 0 {
		maxExportBatch = 512
	}
	maxQueueSize := config.MaxQueueSize
	if maxQueueSize <= 0 {
		maxQueueSize = 2048
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(batchTimeout),
			sdktrace.WithMaxExportBatchSize(maxExportBatch),
			sdktrace.WithMaxQueueSize(maxQueueSize),
		),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	), nil
}

// InitTelemetry initializes the global tracer provider and propagators.
// With Enabled false it is a no-op and tracing stays on the default
// no-op provider.
func InitTelemetry(config TelemetryConfig) error {
	if !config.Enabled {
		return nil
	}

	provider, err := buildProvider(context.Background(), &config)
	if err != nil {
		return err
	}

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	mu.Lock()
	globalProvider = provider
	mu.Unlock()

	return nil
}

// Provider bundles the telemetry shutdown hook with the logger used
// during initialization.
type Provider struct {
	Shutdown func(context.Context) error
	logger   *slog.Logger
}

// InitTelemetryWithProvider initializes telemetry and returns a Provider
// owning the shutdown hook, instead of relying on the package globals.
func InitTelemetryWithProvider(ctx context.Context, config *TelemetryConfig, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config == nil {
		config = DefaultConfig()
	}

	if !config.Enabled {
		return &Provider{
			Shutdown: func(context.Context) error { return nil },
			logger:   logger,
		}, nil
	}

	provider, err := buildProvider(ctx, config)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	mu.Lock()
	globalProvider = provider
	globalLogger = logger
	mu.Unlock()

	return &Provider{
		Shutdown: provider.Shutdown,
		logger:   logger,
	}, nil
}

// Shutdown flushes and stops the global tracer provider
func Shutdown() error {
	mu.Lock()
	provider := globalProvider
	globalProvider = nil
	mu.Unlock()

	if provider == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return provider.Shutdown(ctx)
}

// Logger returns the global slog.Logger instance for application logging
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger != nil {
		return globalLogger
	}
	return slog.Default()
}

// GetLogger returns the logger captured at initialization, or nil when
// telemetry has not been initialized with one.
func GetLogger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return globalLogger
}

// GetTracer returns a named tracer from the global provider
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// GetHTTPTracer returns the tracer used for inbound HTTP handling
func GetHTTPTracer() trace.Tracer {
	return GetTracer("http")
}

// GetDatabaseTracer returns the tracer used for database operations
func GetDatabaseTracer() trace.Tracer {
	return GetTracer("database")
}

// GetBusinessTracer returns the tracer used for forecast domain operations
func GetBusinessTracer() trace.Tracer {
	return GetTracer("forecast")
}

// GetCacheTracer returns the tracer used for cache operations
func GetCacheTracer() trace.Tracer {
	return GetTracer("cache")
}

// GetExternalTracer returns the tracer used for outbound calls such as
// notification delivery
func GetExternalTracer() trace.Tracer {
	return GetTracer("external")
}

// StartSpan starts a span on the given tracer
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, opts...)
}

// SetSpanAttributes sets attributes on a span when it is recording
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span.IsRecording() {
		span.SetAttributes(attrs...)
	}
}

// RecordError records an error on a span when it is recording
func RecordError(span trace.Span, err error) {
	if err != nil && span.IsRecording() {
		span.RecordError(err)
	}
}

// SetSpanStatus sets the status of a span
func SetSpanStatus(span trace.Span, code codes.Code, description string) {
	span.SetStatus(code, description)
}

// StringAttribute creates a string attribute
func StringAttribute(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// StringSliceAttribute creates a string slice attribute
func StringSliceAttribute(key string, value []string) attribute.KeyValue {
	return attribute.StringSlice(key, value)
}

// Int64Attribute creates an int64 attribute
func Int64Attribute(key string, value int64) attribute.KeyValue {
	return attribute.Int64(key, value)
}

// Float64Attribute creates a float64 attribute
func Float64Attribute(key string, value float64) attribute.KeyValue {
	return attribute.Float64(key, value)
}

// BoolAttribute creates a bool attribute
func BoolAttribute(key string, value bool) attribute.KeyValue {
	return attribute.Bool(key, value)
}
