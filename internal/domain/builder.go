package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Builder defaults.
const (
	DefaultTimeField = "_time"
	DefaultLimit     = 100
	DefaultMaxTimeMS = 60000
)

// BuilderConfig parameterizes a Builder. Zero fields fall back to the package
// defaults.
type BuilderConfig struct {
	TimeField        string
	DefaultLimit     int64
	DefaultMaxTimeMS int64
	Clock            func() time.Time
}

// Builder turns a decoded RequestShape into OperationArguments. It applies the
// per-action defaults and stamps inserted documents with a server timestamp.
// A Builder holds no mutable state and is safe for concurrent use.
type Builder struct {
	timeField    string
	limit        int64
	maxTimeMS    int64
	now          func() time.Time
	defaultOrder bson.D
}

// NewBuilder creates a Builder from cfg.
func NewBuilder(cfg BuilderConfig) *Builder {
	b := &Builder{
		timeField: cfg.TimeField,
		limit:     cfg.DefaultLimit,
		maxTimeMS: cfg.DefaultMaxTimeMS,
		now:       cfg.Clock,
	}
	if b.timeField == "" {
		b.timeField = DefaultTimeField
	}
	if b.limit <= 0 {
		b.limit = DefaultLimit
	}
	if b.maxTimeMS <= 0 {
		b.maxTimeMS = DefaultMaxTimeMS
	}
	if b.now == nil {
		b.now = time.Now
	}
	b.defaultOrder = bson.D{
		{Key: b.timeField, Value: int32(-1)},
		{Key: "_id", Value: int32(-1)},
	}
	return b
}

// TimeField returns the name of the field stamped on inserted documents.
func (b *Builder) TimeField() string {
	return b.timeField
}

// OperationArguments are the validated, defaulted inputs of a single backend
// call.
type OperationArguments struct {
	Action  Action
	Primary Payload
	Options bson.D

	// Cap is the maximum number of documents the encoder drains from a
	// result stream. Zero for actions that do not stream.
	Cap int64

	// Hidden lists top-level fields removed from returned documents.
	Hidden []string
}

// Filter returns the filter of a find or find_one operation.
func (a OperationArguments) Filter() bson.D {
	doc, _ := a.Primary.Object()
	return doc
}

// Document returns the document of an insert operation.
func (a OperationArguments) Document() bson.D {
	doc, _ := a.Primary.Object()
	return doc
}

// Documents returns the documents of an insert_many operation.
func (a OperationArguments) Documents() []bson.D {
	docs, _ := a.Primary.Array()
	return docs
}

// Pipeline returns the stages of an aggregate operation.
func (a OperationArguments) Pipeline() []bson.D {
	stages, _ := a.Primary.Array()
	return stages
}

// Build validates shape against action and produces the operation arguments.
// shape is not modified.
func (b *Builder) Build(action Action, shape RequestShape) (OperationArguments, error) {
	if !action.Valid() {
		return OperationArguments{}, buildError("action", fmt.Sprintf("unknown action %q", string(action)))
	}

	want := action.PrimaryKind()
	if got := shape.Primary.Kind(); got != want {
		return OperationArguments{}, buildError(
			action.primaryName(),
			fmt.Sprintf("%s expects %s to be an %s, got an %s", action, action.primaryName(), want, got),
		)
	}

	if err := validateOptions(action, shape.Options); err != nil {
		return OperationArguments{}, err
	}

	args := OperationArguments{
		Action:  action,
		Primary: shape.Primary,
		Options: shape.Options,
	}

	switch action {
	case ActionFind:
		args.Options = withDefault(args.Options, OptLimit, b.limit)
		args.Options = withDefault(args.Options, OptSort, b.defaultOrder)
		args.Options = withDefault(args.Options, OptMaxTime, b.maxTimeMS)
		limit, _ := lookup(args.Options, OptLimit)
		args.Cap, _ = AsInt64(limit)
		args.Hidden = b.hiddenFields(args.Options)

	case ActionFindOne:
		args.Hidden = b.hiddenFields(args.Options)

	case ActionInsertOne:
		doc, _ := shape.Primary.Object()
		args.Primary = ObjectPayload(stamp(doc, b.timeField, b.timestamp()))

	case ActionInsertMany:
		docs, _ := shape.Primary.Array()
		if len(docs) == 0 {
			return OperationArguments{}, buildError(action.primaryName(), "insert_many requires at least one document")
		}
		ts := b.timestamp()
		stamped := make([]bson.D, len(docs))
		for i, doc := range docs {
			stamped[i] = stamp(doc, b.timeField, ts)
		}
		args.Primary = ArrayPayload(stamped)

	case ActionAggregate:
		args.Options = withDefault(args.Options, OptMaxTime, b.maxTimeMS)
		args.Cap = b.limit
	}

	return args, nil
}

func (b *Builder) timestamp() primitive.DateTime {
	return primitive.NewDateTimeFromTime(b.now().UTC())
}

// hiddenFields returns the server-managed fields to strip from results unless
// the projection asks for them.
func (b *Builder) hiddenFields(opts bson.D) []string {
	var projection bson.D
	if v, ok := lookup(opts, OptProjection); ok {
		projection, _ = v.(bson.D)
	}

	hidden := make([]string, 0, 2)
	for _, field := range []string{"_id", b.timeField} {
		if v, ok := lookup(projection, field); ok && truthy(v) {
			continue
		}
		hidden = append(hidden, field)
	}
	return hidden
}

// stamp returns a copy of doc with field set to ts. An existing field keeps its
// position; later duplicates are dropped.
func stamp(doc bson.D, field string, ts primitive.DateTime) bson.D {
	out := make(bson.D, 0, len(doc)+1)
	found := false
	for _, e := range doc {
		if e.Key != field {
			out = append(out, e)
			continue
		}
		if !found {
			out = append(out, bson.E{Key: field, Value: ts})
			found = true
		}
	}
	if !found {
		out = append(out, bson.E{Key: field, Value: ts})
	}
	return out
}
