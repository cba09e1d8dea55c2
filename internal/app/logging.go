package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"vnmcp/internal/infra/config"
)

// LoggingConfig configures logging wiring.
type LoggingConfig struct {
	Logger *zap.Logger
	Level  *zap.AtomicLevel
}

// Logging bundles the logger and its adjustable level.
type Logging struct {
	Logger *zap.Logger
	Level  *zap.AtomicLevel
}

func NewLogging(cfg LoggingConfig) Logging {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	level := cfg.Level
	if level == nil {
		atomic := zap.NewAtomicLevel()
		level = &atomic
	}
	return Logging{
		Logger: logger.Named("app"),
		Level:  level,
	}
}

func NewLogger(logging Logging) *zap.Logger {
	return logging.Logger
}

// NewProcessLogger builds the production JSON logger. Output goes to stderr
// so stdout stays free for the stdio transport.
func NewProcessLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func applyLevel(logging Logging, raw string) {
	if logging.Level == nil {
		return
	}
	level, err := config.ParseLevel(raw)
	if err != nil {
		logging.Logger.Warn("ignoring log level", zap.String("level", raw), zap.Error(err))
		return
	}
	if logging.Level.Level() != level {
		logging.Level.SetLevel(level)
		logging.Logger.Info("log level changed", zap.Stringer("level", level))
	}
}
