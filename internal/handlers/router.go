package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/config"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/metrics"
)

// NewRouter arma todas las rutas HTTP del servicio.
func NewRouter(cfg *config.Config, svc Resolver) http.Handler {
	r := chi.NewRouter()
	r.Use(WithLogging)

	health := NewHealthHandler(cfg)
	r.Get("/", health.Root)
	r.Get("/health", health.Health)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	NewOrdersHandler(svc, cfg).Routes(r)
	return r
}
