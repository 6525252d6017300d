// Package mocks provides in-memory test doubles for the store interfaces.
//
// MockDocumentStore keeps documents per namespace and records every call, so
// handler tests can assert both on responses and on the exact operation
// arguments that reached the backend. Each method can be overridden through
// its function field:
//
//	s := mocks.NewMockDocumentStore()
//	s.FindFn = func(ctx context.Context, ns store.Namespace, filter bson.D, opts bson.D) (store.DocumentStream, error) {
//	    return mocks.NewMockStream(mocks.MustRaw(bson.D{{Key: "a", Value: 1}})...), nil
//	}
package mocks
