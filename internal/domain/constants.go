package domain

const (
	DefaultServerName                 = "vnmcp"
	DefaultServerVersion              = "1.0.0"
	DefaultCatalogPath                = "catalog.json"
	DefaultTransport                  = TransportStdio
	DefaultHTTPAddr                   = "127.0.0.1:8090"
	DefaultHTTPPath                   = "/mcp"
	DefaultObservabilityListenAddress = "127.0.0.1:9090"
	DefaultLogLevel                   = "info"
	DefaultScrapeMinDelayMs           = 1000
	DefaultScrapeMaxDelayMs           = 3000
	DefaultScrapeTimeoutSeconds       = 10
	DefaultScrapeUserAgent            = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)
