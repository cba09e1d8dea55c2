package app

import (
	"context"

	"go.uber.org/zap"

	"vnmcp/internal/domain"
)

type App struct {
	logger *zap.Logger
	level  *zap.AtomicLevel
}

// ServeConfig selects the config file and optional in-process overrides,
// applied after every load (including hot reloads).
type ServeConfig struct {
	ConfigPath string
	Override   func(*domain.Config)
}

type ValidateConfig struct {
	ConfigPath string
	Override   func(*domain.Config)
}

// New creates an App. level, when set, is adjusted to logging.level.
func New(logger *zap.Logger, level *zap.AtomicLevel) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		logger: logger,
		level:  level,
	}
}

// Serve loads the catalog and serves it over the configured transport until
// ctx is canceled.
func (a *App) Serve(ctx context.Context, cfg ServeConfig) error {
	application, err := InitializeApplication(ctx, cfg, LoggingConfig{
		Logger: a.logger,
		Level:  a.level,
	})
	if err != nil {
		return err
	}
	return application.Run()
}
