package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var fixedNow = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func newTestBuilder() *Builder {
	return NewBuilder(BuilderConfig{Clock: func() time.Time { return fixedNow }})
}

func mustDecode(t *testing.T, body string, action Action) RequestShape {
	t.Helper()
	shape, err := Decode([]byte(body), action.PrimaryKind())
	require.NoError(t, err)
	return shape
}

func TestBuild_Find(t *testing.T) {
	t.Parallel()
	b := newTestBuilder()

	t.Run("defaults are applied", func(t *testing.T) {
		args, err := b.Build(ActionFind, mustDecode(t, `{"a":1}`, ActionFind))
		require.NoError(t, err)

		assert.Equal(t, bson.D{{Key: "a", Value: int32(1)}}, args.Filter())
		assert.Equal(t, bson.D{
			{Key: OptLimit, Value: int64(DefaultLimit)},
			{Key: OptSort, Value: bson.D{
				{Key: "_time", Value: int32(-1)},
				{Key: "_id", Value: int32(-1)},
			}},
			{Key: OptMaxTime, Value: int64(DefaultMaxTimeMS)},
		}, args.Options)
		assert.Equal(t, int64(DefaultLimit), args.Cap)
		assert.Equal(t, []string{"_id", "_time"}, args.Hidden)
	})

	t.Run("caller options win per key", func(t *testing.T) {
		args, err := b.Build(ActionFind, mustDecode(t, `[{}, {"limit":5,"sort":{"a":1}}]`, ActionFind))
		require.NoError(t, err)

		assert.Equal(t, bson.D{
			{Key: OptLimit, Value: int32(5)},
			{Key: OptSort, Value: bson.D{{Key: "a", Value: int32(1)}}},
			{Key: OptMaxTime, Value: int64(DefaultMaxTimeMS)},
		}, args.Options)
		assert.Equal(t, int64(5), args.Cap)
	})

	t.Run("projection reveals hidden fields", func(t *testing.T) {
		args, err := b.Build(ActionFind, mustDecode(t, `[{}, {"projection":{"_id":1,"_time":0,"a":1}}]`, ActionFind))
		require.NoError(t, err)
		assert.Equal(t, []string{"_time"}, args.Hidden)
	})

	t.Run("null options equal bare filter", func(t *testing.T) {
		bare, err := b.Build(ActionFind, mustDecode(t, `{"a":1}`, ActionFind))
		require.NoError(t, err)
		withNull, err := b.Build(ActionFind, mustDecode(t, `[{"a":1},null]`, ActionFind))
		require.NoError(t, err)
		assert.Equal(t, bare, withNull)
	})
}

func TestBuild_FindOne(t *testing.T) {
	t.Parallel()
	b := newTestBuilder()

	args, err := b.Build(ActionFindOne, mustDecode(t, `{"a":1}`, ActionFindOne))
	require.NoError(t, err)
	assert.Nil(t, args.Options)
	assert.Zero(t, args.Cap)
	assert.Equal(t, []string{"_id", "_time"}, args.Hidden)

	withNull, err := b.Build(ActionFindOne, mustDecode(t, `[{"a":1},null]`, ActionFindOne))
	require.NoError(t, err)
	assert.Equal(t, args, withNull)
}

func TestBuild_InsertOne(t *testing.T) {
	t.Parallel()
	b := newTestBuilder()
	ts := primitive.NewDateTimeFromTime(fixedNow)

	t.Run("stamps and passes options through", func(t *testing.T) {
		args, err := b.Build(ActionInsertOne, mustDecode(t, `[{"a":1},{"maxTime":5000}]`, ActionInsertOne))
		require.NoError(t, err)

		assert.Equal(t, bson.D{
			{Key: "a", Value: int32(1)},
			{Key: "_time", Value: ts},
		}, args.Document())
		assert.Equal(t, bson.D{{Key: OptMaxTime, Value: int32(5000)}}, args.Options)
	})

	t.Run("caller timestamp is overwritten in place", func(t *testing.T) {
		args, err := b.Build(ActionInsertOne, mustDecode(t, `{"_time":"yesterday","a":1,"_time":2}`, ActionInsertOne))
		require.NoError(t, err)

		assert.Equal(t, bson.D{
			{Key: "_time", Value: ts},
			{Key: "a", Value: int32(1)},
		}, args.Document())
	})

	t.Run("input shape is not mutated", func(t *testing.T) {
		shape := mustDecode(t, `{"a":1}`, ActionInsertOne)
		_, err := b.Build(ActionInsertOne, shape)
		require.NoError(t, err)

		doc, _ := shape.Primary.Object()
		assert.Equal(t, bson.D{{Key: "a", Value: int32(1)}}, doc)
	})

	t.Run("identical documents are stamped independently", func(t *testing.T) {
		first, err := b.Build(ActionInsertOne, mustDecode(t, `{"a":1}`, ActionInsertOne))
		require.NoError(t, err)
		second, err := b.Build(ActionInsertOne, mustDecode(t, `{"a":1}`, ActionInsertOne))
		require.NoError(t, err)

		for _, doc := range []bson.D{first.Document(), second.Document()} {
			v, ok := lookup(doc, "_time")
			require.True(t, ok)
			assert.Equal(t, ts, v)
		}
	})
}

func TestBuild_InsertMany(t *testing.T) {
	t.Parallel()

	calls := 0
	b := NewBuilder(BuilderConfig{Clock: func() time.Time {
		calls++
		return fixedNow.Add(time.Duration(calls) * time.Second)
	}})

	args, err := b.Build(ActionInsertMany, mustDecode(t, `[{"a":1},{"b":2},{"c":3}]`, ActionInsertMany))
	require.NoError(t, err)

	docs := args.Documents()
	require.Len(t, docs, 3)
	assert.Equal(t, 1, calls, "one timestamp is shared by the batch")

	first, _ := lookup(docs[0], "_time")
	for _, doc := range docs[1:] {
		v, ok := lookup(doc, "_time")
		require.True(t, ok)
		assert.Equal(t, first, v)
	}

	_, err = b.Build(ActionInsertMany, mustDecode(t, `[]`, ActionInsertMany))
	assert.ErrorIs(t, err, ErrBuild)

	withOpts, err := b.Build(ActionInsertMany, mustDecode(t, `[[{"a":1}],{"ordered":false}]`, ActionInsertMany))
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: OptOrdered, Value: false}}, withOpts.Options)
	assert.Len(t, withOpts.Documents(), 1)
}

func TestBuild_Aggregate(t *testing.T) {
	t.Parallel()
	b := newTestBuilder()

	args, err := b.Build(ActionAggregate, mustDecode(t, `[[{"$match":{"a":1}}],{}]`, ActionAggregate))
	require.NoError(t, err)

	assert.Equal(t, []bson.D{
		{{Key: "$match", Value: bson.D{{Key: "a", Value: int32(1)}}}},
	}, args.Pipeline())
	assert.Equal(t, bson.D{{Key: OptMaxTime, Value: int64(DefaultMaxTimeMS)}}, args.Options)
	assert.Equal(t, int64(DefaultLimit), args.Cap)
	assert.Empty(t, args.Hidden)

	stage, ok := lookup(args.Pipeline()[0], "_time")
	assert.False(t, ok, "pipeline stages are never stamped: %v", stage)
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()
	b := newTestBuilder()

	tests := []struct {
		name   string
		action Action
		body   string
	}{
		{name: "find with array primary", action: ActionFind, body: `[{"a":1},{"b":2},{"c":3}]`},
		{name: "insert_many with object primary", action: ActionInsertMany, body: `{"a":1}`},
		{name: "aggregate with object primary", action: ActionAggregate, body: `{"$match":{}}`},
		{name: "unknown option", action: ActionFind, body: `[{},{"bogus":1}]`},
		{name: "option of another action", action: ActionFindOne, body: `[{},{"limit":1}]`},
		{name: "string limit", action: ActionFind, body: `[{},{"limit":"10"}]`},
		{name: "zero limit", action: ActionFind, body: `[{},{"limit":0}]`},
		{name: "fractional limit", action: ActionFind, body: `[{},{"limit":2.5}]`},
		{name: "negative skip", action: ActionFind, body: `[{},{"skip":-1}]`},
		{name: "non-object sort", action: ActionFind, body: `[{},{"sort":"a"}]`},
		{name: "non-boolean ordered", action: ActionInsertMany, body: `[[{"a":1}],{"ordered":"no"}]`},
		{name: "duplicate option", action: ActionFind, body: `[{},{"skip":1,"skip":2}]`},
		{name: "negative maxTime", action: ActionAggregate, body: `[[],{"maxTime":-1}]`},
		{name: "maxTime beyond a duration", action: ActionFind, body: `[{},{"maxTime":10000000000000}]`},
		{name: "maxTime beyond a duration on insert", action: ActionInsertOne, body: `[{"a":1},{"maxTime":10000000000000}]`},
		{name: "maxTime of 2^63", action: ActionFind, body: `[{},{"maxTime":9223372036854775808.0}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(tt.action, mustDecode(t, tt.body, tt.action))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBuild)
			assert.True(t, IsClientError(err))
		})
	}
}

func TestBuild_UnknownAction(t *testing.T) {
	t.Parallel()

	_, err := newTestBuilder().Build(Action("delete"), RequestShape{Variant: ShapeBare, Primary: ObjectPayload(bson.D{})})
	assert.ErrorIs(t, err, ErrBuild)
}

func TestNewBuilder_CustomTimeField(t *testing.T) {
	t.Parallel()

	b := NewBuilder(BuilderConfig{TimeField: "created", DefaultLimit: 10, Clock: func() time.Time { return fixedNow }})
	assert.Equal(t, "created", b.TimeField())

	args, err := b.Build(ActionFind, mustDecode(t, `{}`, ActionFind))
	require.NoError(t, err)
	assert.Equal(t, int64(10), args.Cap)
	assert.Equal(t, []string{"_id", "created"}, args.Hidden)

	sortVal, ok := lookup(args.Options, OptSort)
	require.True(t, ok)
	assert.Equal(t, "created", sortVal.(bson.D)[0].Key)
}

func TestBuild_MaxTimeUpperBound(t *testing.T) {
	t.Parallel()
	b := newTestBuilder()

	args, err := b.Build(ActionFind, RequestShape{
		Variant: ShapeWithOptions,
		Primary: ObjectPayload(bson.D{}),
		Options: bson.D{{Key: OptMaxTime, Value: MaxTimeLimitMS}},
	})
	require.NoError(t, err)
	got, _ := lookup(args.Options, OptMaxTime)
	assert.Equal(t, MaxTimeLimitMS, got)

	_, err = b.Build(ActionInsertMany, RequestShape{
		Variant: ShapeWithOptions,
		Primary: ArrayPayload([]bson.D{{{Key: "a", Value: int32(1)}}}),
		Options: bson.D{{Key: OptMaxTime, Value: MaxTimeLimitMS + 1}},
	})
	assert.ErrorIs(t, err, ErrBuild)
	assert.ErrorContains(t, err, "options.maxTime")
}

func TestAsInt64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     interface{}
		want   int64
		wantOK bool
	}{
		{in: int32(7), want: 7, wantOK: true},
		{in: int64(7), want: 7, wantOK: true},
		{in: float64(7), want: 7, wantOK: true},
		{in: 7.5, wantOK: false},
		{in: math.Pow(2, 63), wantOK: false},
		{in: -math.Pow(2, 63), want: math.MinInt64, wantOK: true},
		{in: "7", wantOK: false},
		{in: nil, wantOK: false},
	}

	for _, tt := range tests {
		got, ok := AsInt64(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %v", tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got)
		}
	}
}
