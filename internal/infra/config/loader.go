package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/mod/semver"

	"vnmcp/internal/domain"
)

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("config")}
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.path", domain.DefaultCatalogPath)
	v.SetDefault("server.name", domain.DefaultServerName)
	v.SetDefault("server.version", domain.DefaultServerVersion)
	v.SetDefault("transport", string(domain.DefaultTransport))
	v.SetDefault("http.addr", domain.DefaultHTTPAddr)
	v.SetDefault("http.path", domain.DefaultHTTPPath)
	v.SetDefault("http.jsonResponse", false)
	v.SetDefault("http.sessionTimeoutSeconds", 0)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
	v.SetDefault("observability.metrics", false)
	v.SetDefault("observability.healthz", false)
	v.SetDefault("logging.level", domain.DefaultLogLevel)
}

type rawConfig struct {
	Catalog       rawCatalogConfig       `mapstructure:"catalog"`
	Server        rawServerConfig        `mapstructure:"server"`
	Transport     string                 `mapstructure:"transport"`
	HTTP          rawHTTPConfig          `mapstructure:"http"`
	Observability rawObservabilityConfig `mapstructure:"observability"`
	Logging       rawLoggingConfig       `mapstructure:"logging"`
}

type rawCatalogConfig struct {
	Path string `mapstructure:"path"`
}

type rawServerConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

type rawHTTPConfig struct {
	Addr                  string   `mapstructure:"addr"`
	Path                  string   `mapstructure:"path"`
	Token                 string   `mapstructure:"token"`
	AllowedOrigins        []string `mapstructure:"allowedOrigins"`
	JSONResponse          bool     `mapstructure:"jsonResponse"`
	SessionTimeoutSeconds int      `mapstructure:"sessionTimeoutSeconds"`
}

type rawObservabilityConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
	Metrics       bool   `mapstructure:"metrics"`
	Healthz       bool   `mapstructure:"healthz"`
}

type rawLoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the configuration used when no config file is given.
func Default() domain.Config {
	cfg, _ := decode("")
	normalized, _ := normalizeConfig(cfg, "")
	return normalized
}

// Load reads a YAML config file. An empty path yields the defaults.
// A relative catalog path is resolved against the config file's directory.
func (l *Loader) Load(ctx context.Context, path string) (domain.Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), ctx.Err()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Config{}, fmt.Errorf("read config: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return domain.Config{}, fmt.Errorf("config %s is empty", path)
	}
	expanded, unset, err := expandConfigEnv(data)
	if err != nil {
		return domain.Config{}, err
	}
	if len(unset) > 0 {
		keys := make([]string, 0, len(unset))
		for _, u := range unset {
			keys = append(keys, u.String())
		}
		l.logger.Warn("config keys reference unset environment variables", zap.String("path", path), zap.Strings("keys", keys))
	}

	raw, err := decode(expanded)
	if err != nil {
		return domain.Config{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Config{}, err
	}

	cfg, errs := normalizeConfig(raw, filepath.Dir(path))
	if len(errs) > 0 {
		return domain.Config{}, errors.New(strings.Join(errs, "; "))
	}
	return cfg, nil
}

func decode(expanded string) (rawConfig, error) {
	v := newConfigViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return rawConfig{}, fmt.Errorf("parse config: %w", err)
	}
	var cfg rawConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return rawConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func normalizeConfig(raw rawConfig, baseDir string) (domain.Config, []string) {
	var errs []string

	catalogPath := strings.TrimSpace(raw.Catalog.Path)
	if catalogPath == "" {
		errs = append(errs, "catalog.path is required")
	} else if baseDir != "" && !filepath.IsAbs(catalogPath) {
		catalogPath = filepath.Join(baseDir, catalogPath)
	}

	server, serverErrs := normalizeServerInfo(raw.Server)
	errs = append(errs, serverErrs...)

	transport := domain.TransportKind(strings.ToLower(strings.TrimSpace(raw.Transport)))
	if transport != domain.TransportStdio && transport != domain.TransportStreamableHTTP {
		errs = append(errs, fmt.Sprintf("transport must be %s or %s", domain.TransportStdio, domain.TransportStreamableHTTP))
	}

	httpCfg, httpErrs := normalizeHTTPConfig(raw.HTTP, transport)
	errs = append(errs, httpErrs...)

	observability := domain.ObservabilityConfig{
		ListenAddress: strings.TrimSpace(raw.Observability.ListenAddress),
		Metrics:       raw.Observability.Metrics,
		Healthz:       raw.Observability.Healthz,
	}
	if observability.ListenAddress == "" {
		observability.ListenAddress = domain.DefaultObservabilityListenAddress
	}

	level := strings.ToLower(strings.TrimSpace(raw.Logging.Level))
	if level == "" {
		level = domain.DefaultLogLevel
	}
	if _, err := ParseLevel(level); err != nil {
		errs = append(errs, err.Error())
	}

	return domain.Config{
		Catalog:       domain.CatalogConfig{Path: catalogPath},
		Server:        server,
		Transport:     transport,
		HTTP:          httpCfg,
		Observability: observability,
		Logging:       domain.LoggingConfig{Level: level},
	}, errs
}

func normalizeServerInfo(raw rawServerConfig) (domain.ServerInfo, []string) {
	var errs []string
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		errs = append(errs, "server.name is required")
	}
	version := strings.TrimSpace(raw.Version)
	if !IsValidVersion(version) {
		errs = append(errs, fmt.Sprintf("server.version must be a semantic version, got %q", version))
	}
	return domain.ServerInfo{Name: name, Version: version}, errs
}

func normalizeHTTPConfig(raw rawHTTPConfig, transport domain.TransportKind) (domain.HTTPConfig, []string) {
	var errs []string
	cfg := domain.HTTPConfig{
		Addr:                  strings.TrimSpace(raw.Addr),
		Path:                  strings.TrimSpace(raw.Path),
		Token:                 strings.TrimSpace(raw.Token),
		JSONResponse:          raw.JSONResponse,
		SessionTimeoutSeconds: raw.SessionTimeoutSeconds,
	}
	for _, origin := range raw.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}
	if cfg.SessionTimeoutSeconds < 0 {
		errs = append(errs, "http.sessionTimeoutSeconds must be >= 0")
	}
	if transport != domain.TransportStreamableHTTP {
		return cfg, errs
	}
	if cfg.Addr == "" {
		errs = append(errs, "http.addr is required for streamable-http transport")
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		errs = append(errs, "http.path must start with '/'")
	}
	return cfg, errs
}

// IsValidVersion accepts semantic versions with or without a leading "v".
func IsValidVersion(version string) bool {
	if version == "" {
		return false
	}
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return semver.IsValid(version)
}

func ParseLevel(level string) (zapcore.Level, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("logging.level: %w", err)
	}
	return parsed, nil
}
