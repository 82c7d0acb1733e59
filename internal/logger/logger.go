// Package logger builds the operational zap logger and the Console that
// renders the test report.
package logger

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	// Level is the minimum enabled logging level
	// Valid values: "debug", "info", "warn", "error"
	// Default: "warn"
	Level string

	// Development enables development mode (stack traces on warnings)
	Development bool

	// Encoding sets the logger's encoding
	// Valid values: "json", "console"
	// Default: "console"
	Encoding string

	// OutputPaths is a list of URLs or file paths to write logging output to.
	// The report owns stdout, so the default is ["stderr"].
	OutputPaths []string

	// ErrorOutputPaths is a list of URLs or file paths to write internal logger errors to
	// Default: ["stderr"]
	ErrorOutputPaths []string

	// InitialFields is a collection of fields to add to the root logger
	InitialFields map[string]interface{}
}

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// loggerKey is the context key for storing logger instances
var loggerKey = contextKey{}

// NewDevelopment creates a debug-level console logger on stderr
func NewDevelopment() (*zap.Logger, error) {
	return NewWithConfig(&Config{Level: "debug", Development: true, Encoding: "console"})
}

// NewProduction creates a warn-level JSON logger on stderr
func NewProduction() (*zap.Logger, error) {
	return NewWithConfig(&Config{Level: "warn", Encoding: "json"})
}

// NewWithConfig creates a logger with the specified configuration
func NewWithConfig(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Level == "" {
		cfg.Level = "warn"
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "console"
	}
	if len(cfg.OutputPaths) == 0 {
		cfg.OutputPaths = []string{"stderr"}
	}
	if len(cfg.ErrorOutputPaths) == 0 {
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapConfig := zap.Config{
		Level:             level,
		Development:       cfg.Development,
		Encoding:          cfg.Encoding,
		EncoderConfig:     encoderConfig(cfg.Encoding),
		OutputPaths:       cfg.OutputPaths,
		ErrorOutputPaths:  cfg.ErrorOutputPaths,
		InitialFields:     cfg.InitialFields,
		DisableStacktrace: !cfg.Development,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// NewWithWriter creates a logger writing to w. Used by tests and by
// callers that already own an output stream.
func NewWithWriter(w io.Writer, level, encoding string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var enc zapcore.Encoder
	switch encoding {
	case "json":
		enc = zapcore.NewJSONEncoder(encoderConfig(encoding))
	case "", "console":
		enc = zapcore.NewConsoleEncoder(encoderConfig(encoding))
	default:
		return nil, fmt.Errorf("invalid log encoding %q", encoding)
	}

	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl)), nil
}

func encoderConfig(encoding string) zapcore.EncoderConfig {
	if encoding == "json" {
		return zap.NewProductionEncoderConfig()
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// OrNop returns logger, or a no-op logger when it is nil
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// WithLogger returns a new context with the given logger attached
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from the context
// If no logger is found, it returns a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return zap.NewNop()
	}

	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}

	return zap.NewNop()
}

// WithComponent returns a logger with a "component" field
func WithComponent(logger *zap.Logger, component string) *zap.Logger {
	return OrNop(logger).With(zap.String("component", component))
}

// WithSuite returns a logger with a "suite" field
func WithSuite(logger *zap.Logger, suite string) *zap.Logger {
	return OrNop(logger).With(zap.String("suite", suite))
}
