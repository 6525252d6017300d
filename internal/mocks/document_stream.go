package mocks

import (
	"context"

	"github.com/phrazzld/json-bucket/internal/store"
	"go.mongodb.org/mongo-driver/bson"
)

// MockStream implements store.DocumentStream over a fixed slice of documents.
type MockStream struct {
	Docs []bson.Raw

	// DecodeErrs makes Decode fail for the document at the given index
	DecodeErrs map[int]error

	// IterErr is reported by Err once the documents are exhausted
	IterErr error

	// Closed is set by Close
	Closed bool

	pos int
}

// NewMockStream creates a stream yielding docs in order.
func NewMockStream(docs ...bson.Raw) *MockStream {
	return &MockStream{Docs: docs, pos: -1}
}

// Ensure MockStream implements store.DocumentStream interface
var _ store.DocumentStream = (*MockStream)(nil)

// Next implements store.DocumentStream.Next
func (s *MockStream) Next(ctx context.Context) bool {
	if s.Closed || ctx.Err() != nil {
		return false
	}
	if s.pos+1 >= len(s.Docs) {
		s.pos = len(s.Docs)
		return false
	}
	s.pos++
	return true
}

// Decode implements store.DocumentStream.Decode
func (s *MockStream) Decode(v interface{}) error {
	if err, ok := s.DecodeErrs[s.pos]; ok {
		return err
	}
	if raw, ok := v.(*bson.Raw); ok {
		*raw = append(bson.Raw(nil), s.Docs[s.pos]...)
		return nil
	}
	return bson.Unmarshal(s.Docs[s.pos], v)
}

// Err implements store.DocumentStream.Err
func (s *MockStream) Err() error {
	if s.pos >= len(s.Docs) {
		return s.IterErr
	}
	return nil
}

// Close implements store.DocumentStream.Close
func (s *MockStream) Close(ctx context.Context) error {
	s.Closed = true
	return nil
}

// MustRaw marshals each document, panicking on error. It is meant for
// building test fixtures.
func MustRaw(docs ...interface{}) []bson.Raw {
	out := make([]bson.Raw, len(docs))
	for i, doc := range docs {
		raw, err := bson.Marshal(doc)
		if err != nil {
			panic(err)
		}
		out[i] = raw
	}
	return out
}
