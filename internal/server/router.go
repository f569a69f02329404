package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"brrrr-analyzer/internal/calculator"
	"brrrr-analyzer/internal/handlers"
	"brrrr-analyzer/internal/observability"
	"brrrr-analyzer/internal/property"
	"brrrr-analyzer/internal/rent"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Store    *property.Store
	Resolver *rent.Resolver
	Registry *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(observability.RequestIDMiddleware)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.LoggingMiddleware)

	r.Get("/health", handlers.Health)
	r.Get("/ready", handlers.Ready(deps.Store.Ping))

	r.Handle("/metrics", observability.PrometheusHandler(deps.Registry))

	calculator.RegisterRoutes(r, calculator.NewHandler(deps.Store))
	property.RegisterRoutes(r, property.NewHandler(deps.Store))
	rent.RegisterRoutes(r, rent.NewHandler(deps.Resolver))

	return r
}
