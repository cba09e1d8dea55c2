package telemetry

import (
	"sync"
	"time"
)

const (
	HealthStatusOK       = "ok"
	HealthStatusStarting = "starting"
)

// CatalogHealth describes the catalog the process is serving.
type CatalogHealth struct {
	State       string    `json:"state"`
	Entries     int       `json:"entries"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Source      string    `json:"source,omitempty"`
	LoadedAt    time.Time `json:"loadedAt,omitempty"`
}

type HealthReport struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Catalog CatalogHealth `json:"catalog"`
}

// HealthTracker records catalog state for the health endpoint.
type HealthTracker struct {
	mu      sync.RWMutex
	started time.Time
	catalog CatalogHealth
	now     func() time.Time
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		started: time.Now(),
		catalog: CatalogHealth{State: HealthStatusStarting},
		now:     time.Now,
	}
}

func (h *HealthTracker) CatalogLoaded(source string, entries int, fingerprint string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.catalog = CatalogHealth{
		State:       HealthStatusOK,
		Entries:     entries,
		Fingerprint: fingerprint,
		Source:      source,
		LoadedAt:    h.now().UTC(),
	}
}

// Report is ok only once a catalog has been loaded.
func (h *HealthTracker) Report() HealthReport {
	if h == nil {
		return HealthReport{Status: HealthStatusOK}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HealthReport{
		Status:  h.catalog.State,
		Uptime:  h.now().Sub(h.started).Truncate(time.Second).String(),
		Catalog: h.catalog,
	}
}
