package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/phrazzld/json-bucket/internal/platform/logger"
	"github.com/phrazzld/json-bucket/internal/redact"
	"github.com/phrazzld/json-bucket/internal/store"
	"go.mongodb.org/mongo-driver/bson"
)

// noResults is the find_one response when nothing matches.
const noResults = "no results found"

// encodeDocument renders raw as relaxed Extended JSON without the hidden
// top-level fields. Field order is preserved.
func encodeDocument(raw bson.Raw, hidden []string) (json.RawMessage, error) {
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return encodeValue(stripFields(doc, hidden))
}

// encodeValue renders v as relaxed Extended JSON.
func encodeValue(v interface{}) (json.RawMessage, error) {
	out, err := bson.MarshalExtJSON(v, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extended JSON: %w", err)
	}
	return json.RawMessage(out), nil
}

func stripFields(doc bson.D, hidden []string) bson.D {
	if len(hidden) == 0 {
		return doc
	}
	out := make(bson.D, 0, len(doc))
	for _, e := range doc {
		if !isHidden(e.Key, hidden) {
			out = append(out, e)
		}
	}
	return out
}

func isHidden(key string, hidden []string) bool {
	for _, h := range hidden {
		if key == h {
			return true
		}
	}
	return false
}

// drainStream reads at most limit documents from stream and renders them as a
// JSON array in stream order. A non-positive limit drains the whole stream.
// Documents that fail to decode or encode are skipped and logged; an
// iteration error fails the whole call. The stream is always closed.
func drainStream(
	ctx context.Context,
	stream store.DocumentStream,
	limit int64,
	hidden []string,
	log *slog.Logger,
) (json.RawMessage, error) {
	log = logger.FromContextOrDefault(ctx, log)
	defer func() {
		if err := stream.Close(ctx); err != nil {
			log.Debug("failed to close result stream", slog.String("error", redact.Error(err)))
		}
	}()

	buf := []byte{'['}
	var n, skipped int64
	for (limit <= 0 || n < limit) && stream.Next(ctx) {
		var raw bson.Raw
		if err := stream.Decode(&raw); err != nil {
			skipped++
			log.Warn("skipping undecodable document", slog.String("error", redact.Error(err)))
			continue
		}

		doc, err := encodeDocument(raw, hidden)
		if err != nil {
			skipped++
			log.Warn("skipping unencodable document", slog.String("error", redact.Error(err)))
			continue
		}

		if n > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, doc...)
		n++
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("failed to read result stream: %w", err)
	}

	if skipped > 0 {
		log.Info("result stream had skipped documents",
			slog.Int64("returned", n),
			slog.Int64("skipped", skipped))
	}

	buf = append(buf, ']')
	return json.RawMessage(buf), nil
}

// encodeInsertedID renders an insert acknowledgement as {"insertedId": id}.
func encodeInsertedID(id interface{}) (json.RawMessage, error) {
	return encodeValue(bson.D{{Key: "insertedId", Value: id}})
}

// encodeInsertedIDs renders a batch insert acknowledgement as
// {"insertedIds": [ids...]}.
func encodeInsertedIDs(ids []interface{}) (json.RawMessage, error) {
	arr := bson.A(ids)
	if arr == nil {
		arr = bson.A{}
	}
	return encodeValue(bson.D{{Key: "insertedIds", Value: arr}})
}

// sortedNames returns a sorted copy of names, never nil.
func sortedNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)
	return out
}
