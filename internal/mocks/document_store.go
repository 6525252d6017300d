package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/json-bucket/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Call records one invocation of a MockDocumentStore method.
type Call struct {
	Method    string
	Namespace store.Namespace
	Primary   interface{} // filter, document, documents or pipeline
	Options   bson.D
}

// MockDocumentStore implements store.DocumentStore for testing.
//
// Every method first defers to its function field when set. Otherwise the
// store behaves as a small in-memory backend: inserts append to Docs and
// reads return the namespace's documents newest first, ignoring filters and
// options.
type MockDocumentStore struct {
	// Function fields for customizable behavior
	FindOneFn             func(ctx context.Context, ns store.Namespace, filter, opts bson.D) (bson.Raw, error)
	FindFn                func(ctx context.Context, ns store.Namespace, filter, opts bson.D) (store.DocumentStream, error)
	InsertOneFn           func(ctx context.Context, ns store.Namespace, doc, opts bson.D) (*store.InsertOneResult, error)
	InsertManyFn          func(ctx context.Context, ns store.Namespace, docs []bson.D, opts bson.D) (*store.InsertManyResult, error)
	AggregateFn           func(ctx context.Context, ns store.Namespace, pipeline []bson.D, opts bson.D) (store.DocumentStream, error)
	ListDatabaseNamesFn   func(ctx context.Context) ([]string, error)
	ListCollectionNamesFn func(ctx context.Context, database string) ([]string, error)
	CountDocumentsFn      func(ctx context.Context, ns store.Namespace) (int64, error)
	ListIndexesFn         func(ctx context.Context, ns store.Namespace) (store.DocumentStream, error)
	PingFn                func(ctx context.Context) error

	// Data for default implementation, keyed by namespace
	Docs map[store.Namespace][]bson.D

	// Err, when set, is returned by every default implementation
	Err error

	mu    sync.Mutex
	calls []Call
}

// NewMockDocumentStore creates a new mock store with initialized defaults
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		Docs: make(map[store.Namespace][]bson.D),
	}
}

// Ensure MockDocumentStore implements store.DocumentStore interface
var _ store.DocumentStore = (*MockDocumentStore)(nil)

// Calls returns the recorded invocations in order.
func (m *MockDocumentStore) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastCall returns the most recent invocation, or false if there was none.
func (m *MockDocumentStore) LastCall() (Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Call{}, false
	}
	return m.calls[len(m.calls)-1], true
}

func (m *MockDocumentStore) record(method string, ns store.Namespace, primary interface{}, opts bson.D) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: method, Namespace: ns, Primary: primary, Options: opts})
}

// newestFirst returns the raw documents of ns in reverse insertion order.
func (m *MockDocumentStore) newestFirst(ns store.Namespace) ([]bson.Raw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.Docs[ns]
	out := make([]bson.Raw, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		raw, err := bson.Marshal(docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

// FindOne implements store.DocumentStore.FindOne
func (m *MockDocumentStore) FindOne(ctx context.Context, ns store.Namespace, filter, opts bson.D) (bson.Raw, error) {
	m.record("FindOne", ns, filter, opts)
	if m.FindOneFn != nil {
		return m.FindOneFn(ctx, ns, filter, opts)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	docs, err := m.newestFirst(ns)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return docs[0], nil
}

// Find implements store.DocumentStore.Find
func (m *MockDocumentStore) Find(
	ctx context.Context,
	ns store.Namespace,
	filter, opts bson.D,
) (store.DocumentStream, error) {
	m.record("Find", ns, filter, opts)
	if m.FindFn != nil {
		return m.FindFn(ctx, ns, filter, opts)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	docs, err := m.newestFirst(ns)
	if err != nil {
		return nil, err
	}
	return NewMockStream(docs...), nil
}

// InsertOne implements store.DocumentStore.InsertOne
func (m *MockDocumentStore) InsertOne(
	ctx context.Context,
	ns store.Namespace,
	doc, opts bson.D,
) (*store.InsertOneResult, error) {
	m.record("InsertOne", ns, doc, opts)
	if m.InsertOneFn != nil {
		return m.InsertOneFn(ctx, ns, doc, opts)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	id := m.insert(ns, doc)
	return &store.InsertOneResult{InsertedID: id}, nil
}

// InsertMany implements store.DocumentStore.InsertMany
func (m *MockDocumentStore) InsertMany(
	ctx context.Context,
	ns store.Namespace,
	docs []bson.D,
	opts bson.D,
) (*store.InsertManyResult, error) {
	m.record("InsertMany", ns, docs, opts)
	if m.InsertManyFn != nil {
		return m.InsertManyFn(ctx, ns, docs, opts)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	ids := make([]interface{}, len(docs))
	for i, doc := range docs {
		ids[i] = m.insert(ns, doc)
	}
	return &store.InsertManyResult{InsertedIDs: ids}, nil
}

// insert stores a copy of doc, assigning an ObjectID when it has no _id.
func (m *MockDocumentStore) insert(ns store.Namespace, doc bson.D) interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range doc {
		if e.Key == "_id" {
			m.Docs[ns] = append(m.Docs[ns], append(bson.D(nil), doc...))
			return e.Value
		}
	}

	id := primitive.NewObjectID()
	stored := append(bson.D{{Key: "_id", Value: id}}, doc...)
	m.Docs[ns] = append(m.Docs[ns], stored)
	return id
}

// Aggregate implements store.DocumentStore.Aggregate
func (m *MockDocumentStore) Aggregate(
	ctx context.Context,
	ns store.Namespace,
	pipeline []bson.D,
	opts bson.D,
) (store.DocumentStream, error) {
	m.record("Aggregate", ns, pipeline, opts)
	if m.AggregateFn != nil {
		return m.AggregateFn(ctx, ns, pipeline, opts)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	docs, err := m.newestFirst(ns)
	if err != nil {
		return nil, err
	}
	return NewMockStream(docs...), nil
}

// ListDatabaseNames implements store.DocumentStore.ListDatabaseNames
func (m *MockDocumentStore) ListDatabaseNames(ctx context.Context) ([]string, error) {
	m.record("ListDatabaseNames", store.Namespace{}, nil, nil)
	if m.ListDatabaseNamesFn != nil {
		return m.ListDatabaseNamesFn(ctx)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var names []string
	for ns := range m.Docs {
		if !seen[ns.Database] {
			seen[ns.Database] = true
			names = append(names, ns.Database)
		}
	}
	return names, nil
}

// ListCollectionNames implements store.DocumentStore.ListCollectionNames
func (m *MockDocumentStore) ListCollectionNames(ctx context.Context, database string) ([]string, error) {
	m.record("ListCollectionNames", store.Namespace{Database: database}, nil, nil)
	if m.ListCollectionNamesFn != nil {
		return m.ListCollectionNamesFn(ctx, database)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for ns := range m.Docs {
		if ns.Database == database {
			names = append(names, ns.Collection)
		}
	}
	return names, nil
}

// CountDocuments implements store.DocumentStore.CountDocuments
func (m *MockDocumentStore) CountDocuments(ctx context.Context, ns store.Namespace) (int64, error) {
	m.record("CountDocuments", ns, nil, nil)
	if m.CountDocumentsFn != nil {
		return m.CountDocumentsFn(ctx, ns)
	}
	if m.Err != nil {
		return 0, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.Docs[ns])), nil
}

// ListIndexes implements store.DocumentStore.ListIndexes
func (m *MockDocumentStore) ListIndexes(ctx context.Context, ns store.Namespace) (store.DocumentStream, error) {
	m.record("ListIndexes", ns, nil, nil)
	if m.ListIndexesFn != nil {
		return m.ListIndexesFn(ctx, ns)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	idIndex, err := bson.Marshal(bson.D{
		{Key: "v", Value: int32(2)},
		{Key: "key", Value: bson.D{{Key: "_id", Value: int32(1)}}},
		{Key: "name", Value: "_id_"},
	})
	if err != nil {
		return nil, err
	}
	return NewMockStream(idIndex), nil
}

// Ping implements store.DocumentStore.Ping
func (m *MockDocumentStore) Ping(ctx context.Context) error {
	m.record("Ping", store.Namespace{}, nil, nil)
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return m.Err
}
