package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/json-bucket/internal/api"
	apiMiddleware "github.com/phrazzld/json-bucket/internal/api/middleware"
	"github.com/phrazzld/json-bucket/internal/config"
	"github.com/phrazzld/json-bucket/internal/domain"
	"github.com/phrazzld/json-bucket/internal/platform/mongodb"
	"github.com/phrazzld/json-bucket/internal/redact"
	"github.com/phrazzld/json-bucket/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"
)

const serviceName = "json-bucket"

// application holds the shared dependencies of the running gateway.
type application struct {
	config *config.Config
	logger *slog.Logger

	// client is nil when the application is built around an injected store.
	client  *mongo.Client
	store   store.DocumentStore
	builder *domain.Builder
	cache   *api.MetadataCache

	registry *prometheus.Registry
	metrics  *apiMiddleware.Metrics
	limiter  *rate.Limiter
}

// newApplication connects to MongoDB and wires the gateway around it. A
// failed connection is fatal.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	logger.Info("Connecting to MongoDB", slog.String("url", redact.URI(cfg.Database.URL)))

	client, err := mongodb.NewClient(ctx, mongodb.ClientConfig{
		URI:            cfg.Database.URL,
		ConnectTimeout: cfg.Database.ConnectTimeout(),
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		AppName:        serviceName,
	}, logger.With(slog.String("component", "mongodb")))
	if err != nil {
		return nil, err
	}

	app := newApplicationWithStore(cfg, logger, mongodb.NewMongoDocumentStore(client, logger))
	app.client = client
	return app, nil
}

// newApplicationWithStore wires the gateway around an existing store.
func newApplicationWithStore(cfg *config.Config, logger *slog.Logger, s store.DocumentStore) *application {
	registry := prometheus.NewRegistry()
	builder := domain.NewBuilder(domain.BuilderConfig{
		TimeField:        cfg.Gateway.TimeField,
		DefaultLimit:     cfg.Gateway.DefaultLimit,
		DefaultMaxTimeMS: cfg.Gateway.DefaultMaxTimeMS,
	})

	logger.Info("Gateway configured",
		slog.String("time_field", builder.TimeField()),
		slog.Int64("default_limit", cfg.Gateway.DefaultLimit),
		slog.Int64("default_max_time_ms", cfg.Gateway.DefaultMaxTimeMS),
		slog.Duration("metadata_cache_ttl", cfg.Gateway.MetadataCacheTTL()))

	return &application{
		config:   cfg,
		logger:   logger,
		store:    s,
		builder:  builder,
		cache:    api.NewMetadataCache(cfg.Gateway.MetadataCacheTTL()),
		registry: registry,
		metrics:  apiMiddleware.NewMetrics(registry),
		limiter:  apiMiddleware.NewLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
	}
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases backend resources after the server has stopped.
func (app *application) cleanup(ctx context.Context) {
	if app.client != nil {
		if err := app.client.Disconnect(ctx); err != nil {
			app.logger.Error("Error closing MongoDB connection", slog.String("error", redact.Error(err)))
		}
	}

	app.logger.Info("Application shutdown completed")
}
