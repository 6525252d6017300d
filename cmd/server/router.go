package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/json-bucket/internal/api"
	apiMiddleware "github.com/phrazzld/json-bucket/internal/api/middleware"
	"github.com/phrazzld/json-bucket/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates the router with every gateway route and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(app.metrics.Middleware)
	r.Use(apiMiddleware.RateLimit(app.limiter))

	r.NotFound(api.NotFound)
	r.MethodNotAllowed(api.MethodNotAllowed)

	maxBody := app.config.Server.MaxBodyBytes
	meta := api.NewMetaHandler(api.ServiceInfo{
		Name:        serviceName,
		Version:     version,
		Description: "JSON over HTTP gateway for MongoDB",
	}, maxBody)
	gateway := api.NewGatewayHandler(app.store, app.builder, app.cache, maxBody, app.logger)

	r.Get("/", meta.Root)
	r.Get("/health", meta.Health)
	r.Get("/help", meta.Help)
	r.Post("/echo", meta.Echo)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	r.Get("/_cat/databases", gateway.ListDatabases)
	r.Get("/{database}/_cat/collections", gateway.ListCollections)

	r.Route("/{database}/{collection}", func(r chi.Router) {
		r.Get("/_count", gateway.Count)
		r.Get("/_indexes", gateway.ListIndexes)

		for _, action := range domain.Actions {
			if action.IsWrite() {
				r.With(apiMiddleware.RejectWrites(app.config.Server.ReadOnly)).
					Post("/"+action.String(), gateway.Action(action))
				continue
			}
			r.Post("/"+action.String(), gateway.Action(action))
		}
	})

	return r
}
