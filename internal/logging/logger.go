package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logging surface shared by services and the
// HTTP layer. Both the plain stdout logger and the OTLP-backed logger
// implement it.
type Logger interface {
	WithService(serviceName string) *slog.Logger
	WithComponent(componentName string) *slog.Logger
	WithOperation(operationName string) *slog.Logger
	WithRequestID(requestID string) *slog.Logger
	WithCategory(category string) *slog.Logger
	WithVersionID(versionID string) *slog.Logger
	WithPeriod(period string) *slog.Logger
	WithError(err error) *slog.Logger
	LogStartup(serviceName string, version string, port int)
	LogShutdown(serviceName string, reason string)
	LogCacheOperation(operation string, key string, hit bool, duration int64)
	LogDatabaseOperation(operation string, table string, duration int64, rowsAffected int64)
	LogForecastEvent(eventType string, details map[string]interface{})
	Logger() *slog.Logger
}

// StandardLogger provides a standardized logging interface
type StandardLogger struct {
	logger Logger
}

// NewStandardLogger creates a stdout JSON logger. Used until telemetry
// is initialized, and in environments without an OTLP collector.
func NewStandardLogger(logLevel string, environment string) *StandardLogger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: getSlogLevel(logLevel),
	}))

	return &StandardLogger{
		logger: &contextLogger{logger: logger},
	}
}

// NewStandardOTLPLogger creates a standardized logger with OTLP export.
// Falls back to the stdout logger if the exporter cannot be built.
func NewStandardOTLPLogger(config OTLPConfig) *StandardLogger {
	otlpLogger, err := NewOTLPLogger(config)
	if err != nil {
		return NewStandardLogger(config.LogLevel, config.Environment)
	}
	return &StandardLogger{logger: &contextLogger{logger: otlpLogger.Logger()}}
}

// SetLogger sets the underlying logger implementation
func (l *StandardLogger) SetLogger(logger Logger) {
	l.logger = logger
}

// WithService creates a logger with service context
func (l *StandardLogger) WithService(serviceName string) *slog.Logger {
	return l.logger.WithService(serviceName)
}

// WithComponent creates a logger with component context
func (l *StandardLogger) WithComponent(componentName string) *slog.Logger {
	return l.logger.WithComponent(componentName)
}

// WithOperation creates a logger with operation context
func (l *StandardLogger) WithOperation(operationName string) *slog.Logger {
	return l.logger.WithOperation(operationName)
}

// WithRequestID creates a logger with request ID context
func (l *StandardLogger) WithRequestID(requestID string) *slog.Logger {
	return l.logger.WithRequestID(requestID)
}

// WithCategory creates a logger with accrual category context
func (l *StandardLogger) WithCategory(category string) *slog.Logger {
	return l.logger.WithCategory(category)
}

// WithVersionID creates a logger with forecast version context
func (l *StandardLogger) WithVersionID(versionID string) *slog.Logger {
	return l.logger.WithVersionID(versionID)
}

// WithPeriod creates a logger with accounting period context
func (l *StandardLogger) WithPeriod(period string) *slog.Logger {
	return l.logger.WithPeriod(period)
}

// WithError creates a logger with error context
func (l *StandardLogger) WithError(err error) *slog.Logger {
	return l.logger.WithError(err)
}

// LogStartup logs application startup information
func (l *StandardLogger) LogStartup(serviceName string, version string, port int) {
	l.logger.LogStartup(serviceName, version, port)
}

// LogShutdown logs application shutdown information
func (l *StandardLogger) LogShutdown(serviceName string, reason string) {
	l.logger.LogShutdown(serviceName, reason)
}

// LogCacheOperation logs cache operations in a standardized format
func (l *StandardLogger) LogCacheOperation(operation string, key string, hit bool, duration int64) {
	l.logger.LogCacheOperation(operation, key, hit, duration)
}

// LogDatabaseOperation logs database operations in a standardized format
func (l *StandardLogger) LogDatabaseOperation(operation string, table string, duration int64, rowsAffected int64) {
	l.logger.LogDatabaseOperation(operation, table, duration, rowsAffected)
}

// LogForecastEvent logs domain events such as completed runs or weight
// refreshes in a standardized format
func (l *StandardLogger) LogForecastEvent(eventType string, details map[string]interface{}) {
	l.logger.LogForecastEvent(eventType, details)
}

// Logger returns the underlying *slog.Logger
func (l *StandardLogger) Logger() *slog.Logger {
	return l.logger.Logger()
}

// getSlogLevel converts string level to slog.Level
func getSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogrusLevel converts string level to logrus.Level
func ParseLogrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// contextLogger implements Logger on top of any *slog.Logger, whether
// its handler writes to stdout or exports over OTLP.
type contextLogger struct {
	logger *slog.Logger
}

func (c *contextLogger) WithService(serviceName string) *slog.Logger {
	return c.logger.With("service", serviceName)
}

func (c *contextLogger) WithComponent(componentName string) *slog.Logger {
	return c.logger.With("component", componentName)
}

func (c *contextLogger) WithOperation(operationName string) *slog.Logger {
	return c.logger.With("operation", operationName)
}

func (c *contextLogger) WithRequestID(requestID string) *slog.Logger {
	return c.logger.With("request_id", requestID)
}

func (c *contextLogger) WithCategory(category string) *slog.Logger {
	return c.logger.With("category", category)
}

func (c *contextLogger) WithVersionID(versionID string) *slog.Logger {
	return c.logger.With("version_id", versionID)
}

func (c *contextLogger) WithPeriod(period string) *slog.Logger {
	return c.logger.With("period", period)
}

func (c *contextLogger) WithError(err error) *slog.Logger {
	return c.logger.With("error", err.Error())
}

func (c *contextLogger) LogStartup(serviceName string, version string, port int) {
	c.logger.Info("Application startup",
		"service", serviceName,
		"version", version,
		"port", port,
		"event", "startup",
	)
}

func (c *contextLogger) LogShutdown(serviceName string, reason string) {
	c.logger.Info("Application shutdown",
		"service", serviceName,
		"reason", reason,
		"event", "shutdown",
	)
}

func (c *contextLogger) LogCacheOperation(operation string, key string, hit bool, duration int64) {
	c.logger.Debug("Cache operation",
		"operation", operation,
		"key", key,
		"hit", hit,
		"duration_ms", duration,
		"event", "cache",
	)
}

func (c *contextLogger) LogDatabaseOperation(operation string, table string, duration int64, rowsAffected int64) {
	c.logger.Debug("Database operation",
		"operation", operation,
		"table", table,
		"duration_ms", duration,
		"rows_affected", rowsAffected,
		"event", "database",
	)
}

func (c *contextLogger) LogForecastEvent(eventType string, details map[string]interface{}) {
	fields := []interface{}{
		"event", "forecast",
		"type", eventType,
	}
	for k, v := range details {
		fields = append(fields, k, v)
	}
	c.logger.Info("Forecast event", fields...)
}

func (c *contextLogger) Logger() *slog.Logger {
	return c.logger
}
