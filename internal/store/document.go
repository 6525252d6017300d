package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Namespace addresses a collection inside a database. Collection is empty for
// database-level operations.
type Namespace struct {
	Database   string
	Collection string
}

// String renders the namespace as "db.collection", or just "db".
func (n Namespace) String() string {
	if n.Collection == "" {
		return n.Database
	}
	return n.Database + "." + n.Collection
}

// DocumentStream is a forward-only sequence of result documents.
// Implementations classify iteration errors like any other store error.
type DocumentStream interface {
	// Next advances to the next document. It returns false at the end of the
	// stream or on error; check Err afterwards.
	Next(ctx context.Context) bool

	// Decode unmarshals the current document into v.
	Decode(v interface{}) error

	// Err returns the error that stopped iteration, if any.
	Err() error

	// Close releases the stream's server-side resources.
	Close(ctx context.Context) error
}

// InsertOneResult acknowledges a single insert.
type InsertOneResult struct {
	InsertedID interface{}
}

// InsertManyResult acknowledges a batch insert. IDs are in input order.
type InsertManyResult struct {
	InsertedIDs []interface{}
}

// DocumentStore is the backend collaborator of the gateway. Options are the
// validated option documents produced by the domain builder; implementations
// translate them into backend-specific settings.
//
// All methods honor ctx cancellation. Errors wrap ErrNotFound, ErrUnavailable
// or ErrOperationFailed.
type DocumentStore interface {
	// FindOne returns the first matching document, or ErrNotFound.
	FindOne(ctx context.Context, ns Namespace, filter, opts bson.D) (bson.Raw, error)

	// Find returns a stream over the matching documents. The caller must
	// close it.
	Find(ctx context.Context, ns Namespace, filter, opts bson.D) (DocumentStream, error)

	// InsertOne inserts doc and returns its id.
	InsertOne(ctx context.Context, ns Namespace, doc, opts bson.D) (*InsertOneResult, error)

	// InsertMany inserts docs and returns their ids.
	InsertMany(ctx context.Context, ns Namespace, docs []bson.D, opts bson.D) (*InsertManyResult, error)

	// Aggregate runs pipeline and returns a stream over its output. The
	// caller must close it.
	Aggregate(ctx context.Context, ns Namespace, pipeline []bson.D, opts bson.D) (DocumentStream, error)

	// ListDatabaseNames returns the names of all databases.
	ListDatabaseNames(ctx context.Context) ([]string, error)

	// ListCollectionNames returns the names of the collections in database.
	ListCollectionNames(ctx context.Context, database string) ([]string, error)

	// CountDocuments counts the documents in a collection.
	CountDocuments(ctx context.Context, ns Namespace) (int64, error)

	// ListIndexes returns a stream over the index specifications of a
	// collection. The caller must close it.
	ListIndexes(ctx context.Context, ns Namespace) (DocumentStream, error)

	// Ping verifies that the backend is reachable.
	Ping(ctx context.Context) error
}
