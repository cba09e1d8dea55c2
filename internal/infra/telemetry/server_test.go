package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vnmcp/internal/domain"
)

func TestObservabilityRun_Metrics(t *testing.T) {
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	NewPrometheusMetrics(registry).SetCatalogEntries(7)
	obs := NewObservability(domain.ObservabilityConfig{ListenAddress: addr, Metrics: true}, nil, registry, zap.NewNop())

	errChan := make(chan error, 1)
	go func() { errChan <- obs.Run(ctx) }()

	url := "http://" + addr + "/metrics"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 25*time.Millisecond)

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "vnmcp_catalog_entries 7")

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

func TestObservabilityRun_PortInUse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skip test due to listen error: %v", err)
	}
	defer listener.Close()

	obs := NewObservability(domain.ObservabilityConfig{
		ListenAddress: listener.Addr().String(),
		Metrics:       true,
	}, nil, prometheus.NewRegistry(), zap.NewNop())
	err = obs.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "observability server failed to start")
}

func TestObservabilityRun_Disabled(t *testing.T) {
	obs := NewObservability(domain.ObservabilityConfig{}, nil, nil, nil)
	require.NoError(t, obs.Run(context.Background()))
}

func TestObservabilityHandler_OnlyEnabledRoutes(t *testing.T) {
	obs := NewObservability(domain.ObservabilityConfig{Healthz: true}, NewHealthTracker(), prometheus.NewRegistry(), nil)
	server := httptest.NewServer(obs.Handler())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(server.URL+"/healthz", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestObservabilityHandler_Healthz(t *testing.T) {
	tracker := NewHealthTracker()
	obs := NewObservability(domain.ObservabilityConfig{Healthz: true}, tracker, nil, nil)
	server := httptest.NewServer(obs.Handler())
	t.Cleanup(server.Close)

	report, resp := getHealth(t, server.URL)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, HealthStatusStarting, report.Status)
	require.Empty(t, resp.Header.Get(CatalogFingerprintHeader))
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	tracker.CatalogLoaded("catalog.json", 3, "fp")

	report, resp = getHealth(t, server.URL)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, HealthStatusOK, report.Status)
	require.Equal(t, 3, report.Catalog.Entries)
	require.Equal(t, "fp", resp.Header.Get(CatalogFingerprintHeader))
}

func freeAddr(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skip test due to listen error: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	return fmt.Sprintf("127.0.0.1:%d", port)
}

func getHealth(t *testing.T, baseURL string) (HealthReport, *http.Response) {
	t.Helper()
	resp, err := http.Get(baseURL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var report HealthReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	return report, resp
}
