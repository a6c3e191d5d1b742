package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/stitchnstyle/pkg/config"
	"github.com/abgdnv/stitchnstyle/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HealthPath is the liveness route. It is excluded from tracing.
const HealthPath = "/healthz"

// maxBodyBytes caps request bodies. Custom order descriptions are the largest payload.
const maxBodyBytes = 1 << 20

// NewHTTPServer builds the server from cfg. Every request except health checks and
// metric scrapes gets an otelhttp server span.
func NewHTTPServer(cfg config.HTTPConfig, serviceName string, handler http.Handler) *http.Server {
	traced := otelhttp.NewHandler(handler, serviceName, otelhttp.WithFilter(func(r *http.Request) bool {
		return r.URL.Path != HealthPath && r.URL.Path != "/metrics"
	}))
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           traced,
		ReadTimeout:       cfg.Timeout.Read,
		WriteTimeout:      cfg.Timeout.Write,
		IdleTimeout:       cfg.Timeout.Idle,
		ReadHeaderTimeout: cfg.Timeout.ReadHeader,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// NewChiRouter returns a router with request ids, access logging, panic recovery
// and a request body cap.
func NewChiRouter(logger *slog.Logger) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(web.RequestIDInjector)
	mux.Use(web.StructuredLogger(logger))
	mux.Use(web.Recoverer(logger))
	mux.Use(middleware.RequestSize(maxBodyBytes))
	return mux
}
