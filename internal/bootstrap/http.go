package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/partkeep/partkeep/config"
	httpx "github.com/partkeep/partkeep/internal/http"
	"github.com/partkeep/partkeep/internal/observability/metrics"
	"github.com/partkeep/partkeep/internal/observability/notify"
	"github.com/partkeep/partkeep/internal/observability/statsd"
	"github.com/partkeep/partkeep/internal/service/incidentnotifier"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		Components:   cfg.Services.Components,
		Users:        cfg.Services.Users,
		Auth:         cfg.Services.Auth,
		CookieDomain: appCfg.HTTP.CookieDomain,
		IsDev:        appCfg.IsDev,
		Logger:       logger,
	}

	// Build handler with middleware
	handler := buildHTTPHandler(httpHandlerConfig{
		Logger:    logger,
		Services:  services,
		HTTP:      appCfg.HTTP,
		Metrics:   cfg.Services.Metrics,
		Incidents: cfg.Services.Incidents,
	})

	// Start server (logs "starting HTTP server" internally)
	server := startServer(logger, handler, appCfg.HTTP.Addr)

	return server
}

type httpHandlerConfig struct {
	Logger    *slog.Logger
	Services  httpx.RouterServices
	HTTP      config.HTTPConfig
	Metrics   statsd.Sink
	Incidents *incidentnotifier.Service
}

func buildHTTPHandler(cfg httpHandlerConfig) http.Handler {
	router := httpx.NewRouter(cfg.Services)

	// Apply compression middleware first (innermost) so logging captures compressed sizes
	// Order: Instrument -> Recover -> Logging -> Compression -> Router
	h := router
	if cfg.HTTP.CompressionEnabled {
		cfg.Logger.Info("HTTP compression enabled", "level", cfg.HTTP.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: cfg.HTTP.CompressionLevel})(h)
	}

	h = httpx.Logging(cfg.Logger)(h)
	h = httpx.Recover(cfg.Logger)(h)
	h = instrument(cfg.Metrics, cfg.Incidents)(h)

	return h
}

// instrument sits outside Recover so it observes the 500 written for a
// recovered panic. It emits request metrics and raises an incident for
// server errors.
func instrument(sink statsd.Sink, incidents *incidentnotifier.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if sink == nil && incidents == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, r)

			metrics.EmitHTTPRequest(sink, metrics.RequestMetric{
				Method:   r.Method,
				Route:    r.URL.Path,
				Status:   sr.status,
				Duration: time.Since(start),
			})

			if incidents != nil && sr.status >= http.StatusInternalServerError {
				payload := notify.IncidentPayload{
					Summary:     fmt.Sprintf("HTTP %d on %s %s", sr.status, r.Method, r.URL.Path),
					Component:   "http",
					RequestPath: r.URL.Path,
					Severity:    notify.SeverityError,
					DedupKey:    fmt.Sprintf("http:%s:%d", r.URL.Path, sr.status),
					OccurredAt:  time.Now(),
				}
				// Detach from the request context so delivery survives the response.
				go incidents.NotifyIncident(context.WithoutCancel(r.Context()), payload)
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(cfg.Context, 10*time.Second)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
