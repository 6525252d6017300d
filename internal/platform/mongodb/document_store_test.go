package mongodb

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/json-bucket/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newTestStore(mt *mtest.T) (*MongoDocumentStore, store.Namespace) {
	ns := store.Namespace{Database: mt.DB.Name(), Collection: mt.Coll.Name()}
	return NewMongoDocumentStore(mt.Client, nil), ns
}

func drain(t *testing.T, stream store.DocumentStream) []bson.M {
	t.Helper()
	ctx := context.Background()
	defer func() { _ = stream.Close(ctx) }()

	var docs []bson.M
	for stream.Next(ctx) {
		var doc bson.M
		require.NoError(t, stream.Decode(&doc))
		docs = append(docs, doc)
	}
	require.NoError(t, stream.Err())
	return docs
}

func TestNewMongoDocumentStore_NilClientPanics(t *testing.T) {
	assert.Panics(t, func() { NewMongoDocumentStore(nil, nil) })
}

func TestMongoDocumentStore_FindOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("returns the first match", func(mt *mtest.T) {
		s, ns := newTestStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns.String(), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: int32(1)}, {Key: "name", Value: "ada"}}))

		raw, err := s.FindOne(ctx, ns, bson.D{{Key: "name", Value: "ada"}}, bson.D{{Key: "skip", Value: int64(1)}})
		require.NoError(t, err)
		assert.Equal(t, "ada", raw.Lookup("name").StringValue())

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "find", started.CommandName)
		assert.Equal(t, int64(1), started.Command.Lookup("skip").AsInt64())
	})

	mt.Run("empty result is not found", func(mt *mtest.T) {
		s, ns := newTestStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns.String(), mtest.FirstBatch))

		raw, err := s.FindOne(ctx, ns, nil, nil)
		assert.Nil(t, raw)
		assert.True(t, store.IsNotFoundError(err))

		var storeErr *store.StoreError
		require.True(t, errors.As(err, &storeErr))
		assert.Equal(t, "find_one", storeErr.Operation)
		assert.Equal(t, ns, storeErr.Namespace)
	})
}

func TestMongoDocumentStore_Find(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("applies options and streams documents", func(mt *mtest.T) {
		s, ns := newTestStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns.String(), mtest.FirstBatch,
			bson.D{{Key: "a", Value: int32(2)}},
			bson.D{{Key: "a", Value: int32(1)}},
		))

		stream, err := s.Find(ctx, ns, bson.D{}, bson.D{
			{Key: "limit", Value: int64(2)},
			{Key: "sort", Value: bson.D{{Key: "_time", Value: int32(-1)}}},
		})
		require.NoError(t, err)

		docs := drain(t, stream)
		require.Len(t, docs, 2)
		assert.Equal(t, int32(2), docs[0]["a"])

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, int64(2), started.Command.Lookup("limit").AsInt64())
		sortDoc, ok := started.Command.Lookup("sort").DocumentOK()
		require.True(t, ok)
		assert.Equal(t, int32(-1), sortDoc.Lookup("_time").Int32())
	})

	mt.Run("command error is an operation failure", func(mt *mtest.T) {
		s, ns := newTestStore(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "unknown top level operator: $bogus",
		}))

		stream, err := s.Find(ctx, ns, bson.D{{Key: "$bogus", Value: int32(1)}}, nil)
		assert.Nil(t, stream)
		assert.ErrorIs(t, err, store.ErrOperationFailed)
		assert.False(t, store.IsUnavailableError(err))
	})

	mt.Run("iteration error is classified", func(mt *mtest.T) {
		s, ns := newTestStore(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns.String(), mtest.FirstBatch, bson.D{{Key: "a", Value: int32(1)}}),
			mtest.CreateCommandErrorResponse(mtest.CommandError{
				Code:    50,
				Name:    "MaxTimeMSExpired",
				Message: "operation exceeded time limit",
			}),
			mtest.CreateSuccessResponse(),
		)

		stream, err := s.Find(ctx, ns, nil, nil)
		require.NoError(t, err)
		defer func() { _ = stream.Close(ctx) }()

		assert.True(t, stream.Next(ctx))
		assert.False(t, stream.Next(ctx))
		assert.ErrorIs(t, stream.Err(), store.ErrTimeout)
	})

	mt.Run("invalid option is rejected before the call", func(mt *mtest.T) {
		s, ns := newTestStore(mt)

		_, err := s.Find(ctx, ns, nil, bson.D{{Key: "limit", Value: "ten"}})
		assert.Error(t, err)
		assert.Nil(t, mt.GetStartedEvent())
	})
}

func TestMongoDocumentStore_Insert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert one returns the generated id", func(mt *mtest.T) {
		s, ns := newTestStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}))

		res, err := s.InsertOne(ctx, ns, bson.D{{Key: "a", Value: int32(1)}}, bson.D{{Key: "maxTime", Value: int64(5000)}})
		require.NoError(t, err)
		assert.IsType(t, primitive.ObjectID{}, res.InsertedID)

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "insert", started.CommandName)
	})

	mt.Run("insert one keeps a caller supplied id", func(mt *mtest.T) {
		s, ns := newTestStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}))

		res, err := s.InsertOne(ctx, ns, bson.D{{Key: "_id", Value: "note-1"}}, nil)
		require.NoError(t, err)
		assert.Equal(t, "note-1", res.InsertedID)
	})

	mt.Run("duplicate key", func(mt *mtest.T) {
		s, ns := newTestStore(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		_, err := s.InsertOne(ctx, ns, bson.D{{Key: "_id", Value: "note-1"}}, nil)
		assert.ErrorIs(t, err, store.ErrDuplicate)
		assert.ErrorIs(t, err, store.ErrOperationFailed)
	})

	mt.Run("insert many returns ids in order", func(mt *mtest.T) {
		s, ns := newTestStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(2)}))

		res, err := s.InsertMany(ctx, ns, []bson.D{
			{{Key: "_id", Value: int32(1)}},
			{{Key: "_id", Value: int32(2)}},
		}, bson.D{{Key: "ordered", Value: true}})
		require.NoError(t, err)
		assert.Equal(t, []interface{}{int32(1), int32(2)}, res.InsertedIDs)
	})
}

func TestMongoDocumentStore_Aggregate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("runs the pipeline", func(mt *mtest.T) {
		s, ns := newTestStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns.String(), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "x"}, {Key: "total", Value: int32(3)}}))

		pipeline := []bson.D{{{Key: "$match", Value: bson.D{{Key: "a", Value: int32(1)}}}}}
		stream, err := s.Aggregate(ctx, ns, pipeline, bson.D{{Key: "maxTime", Value: int64(60000)}})
		require.NoError(t, err)

		docs := drain(t, stream)
		require.Len(t, docs, 1)
		assert.Equal(t, int32(3), docs[0]["total"])

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "aggregate", started.CommandName)
		assert.Equal(t, int64(60000), started.Command.Lookup("maxTimeMS").AsInt64())
	})
}

func TestMongoDocumentStore_Metadata(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("list databases", func(mt *mtest.T) {
		s, _ := newTestStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "databases", Value: bson.A{
				bson.D{{Key: "name", Value: "admin"}},
				bson.D{{Key: "name", Value: "notes"}},
			}},
			bson.E{Key: "totalSize", Value: int64(0)},
		))

		names, err := s.ListDatabaseNames(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"admin", "notes"}, names)
	})

	mt.Run("list collections", func(mt *mtest.T) {
		s, ns := newTestStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns.Database+".$cmd.listCollections", mtest.FirstBatch,
			bson.D{{Key: "name", Value: "notes"}, {Key: "type", Value: "collection"}},
			bson.D{{Key: "name", Value: "events"}, {Key: "type", Value: "collection"}},
		))

		names, err := s.ListCollectionNames(ctx, ns.Database)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"notes", "events"}, names)
	})

	mt.Run("count documents", func(mt *mtest.T) {
		s, ns := newTestStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns.String(), mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(42)}}))

		n, err := s.CountDocuments(ctx, ns)
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)
	})

	mt.Run("list indexes", func(mt *mtest.T) {
		s, ns := newTestStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns.String(), mtest.FirstBatch,
			bson.D{
				{Key: "v", Value: int32(2)},
				{Key: "key", Value: bson.D{{Key: "_id", Value: int32(1)}}},
				{Key: "name", Value: "_id_"},
			}))

		stream, err := s.ListIndexes(ctx, ns)
		require.NoError(t, err)

		docs := drain(t, stream)
		require.Len(t, docs, 1)
		assert.Equal(t, "_id_", docs[0]["name"])
	})

	mt.Run("ping", func(mt *mtest.T) {
		s, _ := newTestStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(t, s.Ping(ctx))
	})
}
