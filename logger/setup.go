package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerClient wraps a zap.Logger.
//
// LoggerClient implements the Logger interface.
type LoggerClient struct {
	// Zap is the underlying logger, exposed for zap-specific needs.
	Zap *zap.Logger

	// tracingEnabled turns on trace/span correlation fields.
	tracingEnabled bool
}

// NewLoggerClient builds a JSON logger writing to stderr.
//
// The encoder uses ISO8601 timestamps, capital level names and full caller
// paths; "pid" and "service" are attached to every entry. A build failure is
// fatal because the agent cannot report anything without a logger.
//
// Example:
//
//	log := logger.NewLoggerClient(logger.Config{
//	    Level:         logger.Info,
//	    ServiceName:   "checkout",
//	    EnableTracing: true,
//	})
//	log.Info("agent started", nil)
func NewLoggerClient(cfg Config) *LoggerClient {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeCaller = zapcore.FullCallerEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Encoding:         "json",
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": cfg.ServiceName,
		},
	}

	callerSkip := cfg.CallerSkip
	if callerSkip <= 0 {
		callerSkip = 1
	}

	zl, err := config.Build(zap.AddCaller(), zap.AddCallerSkip(callerSkip))
	if err != nil {
		log.Fatal(err)
	}

	return &LoggerClient{
		Zap:            zl,
		tracingEnabled: cfg.EnableTracing,
	}
}

// NewFromZap wraps an existing zap logger, e.g. one built on an observer core
// in tests.
func NewFromZap(zl *zap.Logger, tracingEnabled bool) *LoggerClient {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &LoggerClient{Zap: zl, tracingEnabled: tracingEnabled}
}

// NewNop returns a logger that discards everything. Components fall back to
// it when no logger is injected.
func NewNop() *LoggerClient {
	return &LoggerClient{Zap: zap.NewNop()}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case Debug:
		return zap.DebugLevel
	case Warning:
		return zap.WarnLevel
	case Error:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
