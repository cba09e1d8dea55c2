package domain

type TransportKind string

const (
	TransportStdio          TransportKind = "stdio"
	TransportStreamableHTTP TransportKind = "streamable-http"
)

// Config is the normalized service configuration.
type Config struct {
	Catalog       CatalogConfig       `json:"catalog"`
	Server        ServerInfo          `json:"server"`
	Transport     TransportKind       `json:"transport"`
	HTTP          HTTPConfig          `json:"http"`
	Observability ObservabilityConfig `json:"observability"`
	Logging       LoggingConfig       `json:"logging"`
}

type CatalogConfig struct {
	Path string `json:"path"`
}

// ServerInfo is advertised to MCP clients on initialize.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type HTTPConfig struct {
	Addr                  string   `json:"addr"`
	Path                  string   `json:"path"`
	Token                 string   `json:"token,omitempty"`
	AllowedOrigins        []string `json:"allowedOrigins,omitempty"`
	JSONResponse          bool     `json:"jsonResponse"`
	SessionTimeoutSeconds int      `json:"sessionTimeoutSeconds"`
}

type ObservabilityConfig struct {
	ListenAddress string `json:"listenAddress"`
	Metrics       bool   `json:"metrics"`
	Healthz       bool   `json:"healthz"`
}

func (c ObservabilityConfig) Enabled() bool {
	return c.Metrics || c.Healthz
}

type LoggingConfig struct {
	Level string `json:"level"`
}
