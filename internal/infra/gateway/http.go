package gateway

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"vnmcp/internal/domain"
	"vnmcp/internal/infra/telemetry"
)

const shutdownTimeout = 5 * time.Second

type HTTPOptions struct {
	Addr           string
	Path           string
	Token          string
	AllowedOrigins []string
	JSONResponse   bool
	SessionTimeout time.Duration
}

// HTTPOptionsFromConfig maps config onto listener options.
func HTTPOptionsFromConfig(cfg domain.HTTPConfig) HTTPOptions {
	return HTTPOptions{
		Addr:           cfg.Addr,
		Path:           cfg.Path,
		Token:          cfg.Token,
		AllowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		JSONResponse:   cfg.JSONResponse,
		SessionTimeout: time.Duration(cfg.SessionTimeoutSeconds) * time.Second,
	}
}

func (o HTTPOptions) Validate() error {
	if strings.TrimSpace(o.Addr) == "" {
		return errors.New("http address is required")
	}
	if !strings.HasPrefix(o.Path, "/") {
		return fmt.Errorf("http path must start with '/': %q", o.Path)
	}
	if !IsLocalhostAddr(o.Addr) && strings.TrimSpace(o.Token) == "" {
		return errors.New("http token is required when binding to non-localhost address")
	}
	if o.SessionTimeout < 0 {
		return errors.New("http session timeout must be >= 0")
	}
	return nil
}

// Handler returns the HTTP handler serving MCP at opts.Path.
func (g *Gateway) Handler(opts HTTPOptions) http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return g.server
	}, &mcp.StreamableHTTPOptions{
		JSONResponse:   opts.JSONResponse,
		SessionTimeout: opts.SessionTimeout,
	})

	mux := http.NewServeMux()
	mux.Handle(opts.Path, withOrigins(opts.AllowedOrigins, withBearerToken(opts.Token, streamable)))
	return mux
}

// RunStreamableHTTP serves MCP over streamable HTTP until ctx is canceled.
func (g *Gateway) RunStreamableHTTP(ctx context.Context, opts HTTPOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	g.transport = domain.TransportStreamableHTTP

	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.Addr, err)
	}
	server := &http.Server{
		Handler:           g.Handler(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("gateway starting (streamable HTTP transport)",
			telemetry.EventField(telemetry.EventServeStart),
			zap.String("addr", listener.Addr().String()),
			zap.String("path", opts.Path),
			zap.Bool("auth", opts.Token != ""),
			zap.Strings("tools", g.registry.Names()),
		)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			g.logger.Warn("gateway shutdown error", zap.Error(err))
			return err
		}
		g.logger.Info("gateway stopped", telemetry.EventField(telemetry.EventServeStop))
		return nil
	}
}

func withBearerToken(token string, next http.Handler) http.Handler {
	token = strings.TrimSpace(token)
	if token == "" {
		return next
	}
	expected := []byte("Bearer " + token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, expected) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="vnmcp"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withOrigins rejects browser requests from origins outside the allow list.
// Requests without an Origin header pass through.
func withOrigins(allowed []string, next http.Handler) http.Handler {
	allowAll := false
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
			continue
		}
		if origin != "" {
			set[strings.ToLower(origin)] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		_, ok := set[strings.ToLower(origin)]
		if !allowAll && !ok {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Mcp-Session-Id, Mcp-Protocol-Version, Last-Event-ID, X-Request-Id")
			w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id")
		next.ServeHTTP(w, r)
	})
}

func IsLocalhostAddr(addr string) bool {
	host := addr
	if strings.Contains(addr, ":") {
		if h, _, err := net.SplitHostPort(addr); err == nil {
			host = h
		}
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}
