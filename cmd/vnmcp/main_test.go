package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"vnmcp/internal/domain"
)

func TestApplyOverrideFlags_OnlyExplicitFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	registerOverrideFlags(flags)
	require.NoError(t, flags.Parse([]string{
		"--transport", "streamable-http",
		"--http-allowed-origin", "https://a.example",
		"--http-allowed-origin", "https://b.example",
		"--metrics",
		"--log-level", "debug",
	}))

	cfg := domain.Config{
		Catalog: domain.CatalogConfig{Path: "/srv/catalog.json"},
		HTTP:    domain.HTTPConfig{Addr: "127.0.0.1:9999", Path: "/rpc"},
	}
	applyOverrideFlags(flags, &cfg)

	require.Equal(t, "/srv/catalog.json", cfg.Catalog.Path)
	require.Equal(t, domain.TransportStreamableHTTP, cfg.Transport)
	require.Equal(t, "127.0.0.1:9999", cfg.HTTP.Addr)
	require.Equal(t, "/rpc", cfg.HTTP.Path)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	require.True(t, cfg.Observability.Metrics)
	require.False(t, cfg.Observability.Healthz)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`[{"name":"Ever17","description":["d"],"url":"u","tags":[["Mystery"]]}]`), 0o644))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"validate", "--catalog", catalogPath})
	require.NoError(t, root.Execute())

	var report struct {
		Catalog string `json:"catalog"`
		Entries int    `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.Equal(t, catalogPath, report.Catalog)
	require.Equal(t, 1, report.Entries)
}

func TestValidateCommand_BadTransport(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"validate", "--transport", "websocket"})
	require.ErrorContains(t, root.Execute(), "unsupported transport")
}
