package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/json-bucket/internal/platform/logger"
	"github.com/phrazzld/json-bucket/internal/redact"
	"github.com/phrazzld/json-bucket/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDocumentStore implements the store.DocumentStore interface
// on top of a pooled *mongo.Client.
type MongoDocumentStore struct {
	client *mongo.Client
	logger *slog.Logger
}

// NewMongoDocumentStore creates a new MongoDB implementation of the DocumentStore interface.
// The client is owned by the caller. If logger is nil, a default logger will be used.
func NewMongoDocumentStore(client *mongo.Client, logger *slog.Logger) *MongoDocumentStore {
	if client == nil {
		panic("client cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &MongoDocumentStore{
		client: client,
		logger: logger.With(slog.String("component", "document_store")),
	}
}

// Ensure MongoDocumentStore implements store.DocumentStore interface
var _ store.DocumentStore = (*MongoDocumentStore)(nil)

func (s *MongoDocumentStore) collection(ns store.Namespace) *mongo.Collection {
	return s.client.Database(ns.Database).Collection(ns.Collection)
}

// fail classifies err, logs it and wraps it in a StoreError.
func (s *MongoDocumentStore) fail(ctx context.Context, ns store.Namespace, op string, err error) error {
	mapped := MapError(err)
	log := logger.FromContextOrDefault(ctx, s.logger)

	attrs := []any{
		slog.String("operation", op),
		slog.String("namespace", ns.String()),
		slog.String("error", redact.Error(err)),
	}
	switch {
	case errors.Is(mapped, store.ErrNotFound):
		log.Debug("document not found", attrs...)
	case errors.Is(mapped, store.ErrUnavailable):
		log.Error("backend unavailable", attrs...)
	default:
		log.Warn("backend operation failed", attrs...)
	}

	return store.NewStoreError(ns, op, "backend call failed", mapped)
}

// cursorStream adapts *mongo.Cursor to store.DocumentStream so that
// iteration errors are classified like every other driver error.
type cursorStream struct {
	*mongo.Cursor
}

// Err implements store.DocumentStream.Err
func (c cursorStream) Err() error {
	return MapError(c.Cursor.Err())
}

func nonNil(doc bson.D) bson.D {
	if doc == nil {
		return bson.D{}
	}
	return doc
}

// FindOne implements store.DocumentStore.FindOne
// Returns store.ErrNotFound if no document matches the filter.
func (s *MongoDocumentStore) FindOne(
	ctx context.Context,
	ns store.Namespace,
	filter, opts bson.D,
) (bson.Raw, error) {
	fo, err := findOneOptions(opts)
	if err != nil {
		return nil, err
	}

	raw, err := s.collection(ns).FindOne(ctx, nonNil(filter), fo).Raw()
	if err != nil {
		return nil, s.fail(ctx, ns, "find_one", err)
	}
	return raw, nil
}

// Find implements store.DocumentStore.Find
func (s *MongoDocumentStore) Find(
	ctx context.Context,
	ns store.Namespace,
	filter, opts bson.D,
) (store.DocumentStream, error) {
	fo, err := findOptions(opts)
	if err != nil {
		return nil, err
	}

	cursor, err := s.collection(ns).Find(ctx, nonNil(filter), fo)
	if err != nil {
		return nil, s.fail(ctx, ns, "find", err)
	}
	return cursorStream{cursor}, nil
}

// InsertOne implements store.DocumentStore.InsertOne
// A maxTime option bounds the call through a context deadline.
func (s *MongoDocumentStore) InsertOne(
	ctx context.Context,
	ns store.Namespace,
	doc, opts bson.D,
) (*store.InsertOneResult, error) {
	ioo, maxTime, err := insertOneOptions(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withMaxTime(ctx, maxTime)
	defer cancel()

	res, err := s.collection(ns).InsertOne(ctx, nonNil(doc), ioo)
	if err != nil {
		return nil, s.fail(ctx, ns, "insert", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("document inserted",
		slog.String("namespace", ns.String()))
	return &store.InsertOneResult{InsertedID: res.InsertedID}, nil
}

// InsertMany implements store.DocumentStore.InsertMany
// A maxTime option bounds the call through a context deadline.
func (s *MongoDocumentStore) InsertMany(
	ctx context.Context,
	ns store.Namespace,
	docs []bson.D,
	opts bson.D,
) (*store.InsertManyResult, error) {
	im, maxTime, err := insertManyOptions(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withMaxTime(ctx, maxTime)
	defer cancel()

	batch := make([]interface{}, len(docs))
	for i, doc := range docs {
		batch[i] = nonNil(doc)
	}

	res, err := s.collection(ns).InsertMany(ctx, batch, im)
	if err != nil {
		return nil, s.fail(ctx, ns, "insert_many", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("documents inserted",
		slog.String("namespace", ns.String()),
		slog.Int("count", len(res.InsertedIDs)))
	return &store.InsertManyResult{InsertedIDs: res.InsertedIDs}, nil
}

// Aggregate implements store.DocumentStore.Aggregate
func (s *MongoDocumentStore) Aggregate(
	ctx context.Context,
	ns store.Namespace,
	pipeline []bson.D,
	opts bson.D,
) (store.DocumentStream, error) {
	ao, err := aggregateOptions(opts)
	if err != nil {
		return nil, err
	}

	stages := mongo.Pipeline(pipeline)
	if stages == nil {
		stages = mongo.Pipeline{}
	}

	cursor, err := s.collection(ns).Aggregate(ctx, stages, ao)
	if err != nil {
		return nil, s.fail(ctx, ns, "aggregate", err)
	}
	return cursorStream{cursor}, nil
}

// ListDatabaseNames implements store.DocumentStore.ListDatabaseNames
func (s *MongoDocumentStore) ListDatabaseNames(ctx context.Context) ([]string, error) {
	names, err := s.client.ListDatabaseNames(ctx, bson.D{})
	if err != nil {
		return nil, s.fail(ctx, store.Namespace{}, "list_databases", err)
	}
	return names, nil
}

// ListCollectionNames implements store.DocumentStore.ListCollectionNames
func (s *MongoDocumentStore) ListCollectionNames(ctx context.Context, database string) ([]string, error) {
	names, err := s.client.Database(database).ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, s.fail(ctx, store.Namespace{Database: database}, "list_collections", err)
	}
	return names, nil
}

// CountDocuments implements store.DocumentStore.CountDocuments
func (s *MongoDocumentStore) CountDocuments(ctx context.Context, ns store.Namespace) (int64, error) {
	n, err := s.collection(ns).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, s.fail(ctx, ns, "count", err)
	}
	return n, nil
}

// ListIndexes implements store.DocumentStore.ListIndexes
func (s *MongoDocumentStore) ListIndexes(ctx context.Context, ns store.Namespace) (store.DocumentStream, error) {
	cursor, err := s.collection(ns).Indexes().List(ctx)
	if err != nil {
		return nil, s.fail(ctx, ns, "list_indexes", err)
	}
	return cursorStream{cursor}, nil
}

// Ping implements store.DocumentStore.Ping
func (s *MongoDocumentStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping failed: %w", MapError(err))
	}
	return nil
}

func withMaxTime(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
