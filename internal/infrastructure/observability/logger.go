package observability

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artisanmarket/inventory/internal/infrastructure/config"
)

type Logger struct {
	*zerolog.Logger
}

// NewLogger creates a new structured logger based on configuration
func NewLogger(cfg *config.ObservabilityConfig) *Logger {
	var output io.Writer = os.Stdout

	logLevel := parseLogLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(logLevel)

	if cfg.LogFormat == "text" {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	logger := zerolog.New(output).
		Level(logLevel).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: &logger}
}

// NewTestLogger creates a silent logger for tests
func NewTestLogger() *Logger {
	logger := zerolog.New(io.Discard)
	return &Logger{Logger: &logger}
}

// WithSagaID returns a new logger with the owning saga attached
func (l *Logger) WithSagaID(sagaID string) *Logger {
	logger := l.With().Str("saga_id", sagaID).Logger()
	return &Logger{Logger: &logger}
}

// WithOrderID returns a new logger with the order id attached
func (l *Logger) WithOrderID(orderID string) *Logger {
	logger := l.With().Str("order_id", orderID).Logger()
	return &Logger{Logger: &logger}
}

// WithProductID returns a new logger with the product id attached
func (l *Logger) WithProductID(productID string) *Logger {
	logger := l.With().Str("product_id", productID).Logger()
	return &Logger{Logger: &logger}
}

// WithOperation returns a new logger with the operation name attached
func (l *Logger) WithOperation(operation string) *Logger {
	logger := l.With().Str("operation", operation).Logger()
	return &Logger{Logger: &logger}
}

// WithError returns a new logger with error attached
func (l *Logger) WithError(err error) *Logger {
	logger := l.With().Err(err).Logger()
	return &Logger{Logger: &logger}
}

// parseLogLevel converts string to zerolog level
func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
