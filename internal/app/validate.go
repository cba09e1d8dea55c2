package app

import (
	"context"

	"go.uber.org/zap"

	"vnmcp/internal/infra/catalog"
	"vnmcp/internal/infra/telemetry"
)

// ValidationReport summarizes a successful validate run.
type ValidationReport struct {
	ConfigPath  string `json:"config"`
	CatalogPath string `json:"catalog"`
	Entries     int    `json:"entries"`
	Fingerprint string `json:"fingerprint"`
}

// ValidateConfig loads the config and the catalog it names without serving.
func (a *App) ValidateConfig(ctx context.Context, cfg ValidateConfig) (ValidationReport, error) {
	logger := NewLogging(LoggingConfig{Logger: a.logger, Level: a.level}).Logger

	loaded, err := loadConfig(ctx, cfg.ConfigPath, cfg.Override, logger)
	if err != nil {
		return ValidationReport{}, err
	}
	store, err := catalog.NewLoader(logger).Load(ctx, loaded.Catalog.Path)
	if err != nil {
		return ValidationReport{}, err
	}

	report := ValidationReport{
		ConfigPath:  cfg.ConfigPath,
		CatalogPath: loaded.Catalog.Path,
		Entries:     store.Len(),
		Fingerprint: store.Fingerprint(),
	}
	logger.Info("configuration validated",
		zap.String("config", cfg.ConfigPath),
		zap.String("catalog", report.CatalogPath),
		telemetry.EntriesField(report.Entries),
		telemetry.FingerprintField(report.Fingerprint),
	)
	return report, nil
}
