package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ClientConfig holds the connection settings for NewClient.
type ClientConfig struct {
	URI            string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64
	AppName        string
}

// NewClient connects to MongoDB with connection pooling and verifies the
// deployment is usable by pinging the primary and listing database names.
// The returned client is safe for concurrent use; the caller must Disconnect
// it on shutdown.
func NewClient(ctx context.Context, cfg ClientConfig, logger *slog.Logger) (*mongo.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(cfg.ConnectTimeout).
		SetConnectTimeout(cfg.ConnectTimeout)
	if cfg.AppName != "" {
		clientOptions.SetAppName(cfg.AppName)
	}
	if err := clientOptions.Validate(); err != nil {
		return nil, fmt.Errorf("invalid MongoDB connection settings: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", MapError(err))
	}

	names, err := verifyConnection(connectCtx, client)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("MongoDB connection established",
		slog.Int("databases", len(names)),
		slog.Uint64("max_pool_size", cfg.MaxPoolSize))
	return client, nil
}

func verifyConnection(ctx context.Context, client *mongo.Client) ([]string, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", MapError(err))
	}

	names, err := client.ListDatabaseNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list MongoDB databases: %w", MapError(err))
	}
	return names, nil
}
