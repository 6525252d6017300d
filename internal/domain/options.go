package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// MaxTimeLimitMS is the largest maxTime, in milliseconds, that fits in a
// time.Duration.
const MaxTimeLimitMS = math.MaxInt64 / int64(time.Millisecond)

// Option keys understood by the backend translation layer.
const (
	OptSort                     = "sort"
	OptLimit                    = "limit"
	OptSkip                     = "skip"
	OptProjection               = "projection"
	OptMaxTime                  = "maxTime"
	OptHint                     = "hint"
	OptBatchSize                = "batchSize"
	OptComment                  = "comment"
	OptAllowDiskUse             = "allowDiskUse"
	OptBypassDocumentValidation = "bypassDocumentValidation"
	OptOrdered                  = "ordered"
	OptLet                      = "let"
)

type optionCheck func(v interface{}) string

var optionChecks = map[string]optionCheck{
	OptSort:                     isDocument,
	OptLimit:                    positiveInteger,
	OptSkip:                     nonNegativeInteger,
	OptProjection:               isDocument,
	OptMaxTime:                  durationMillis,
	OptHint:                     isStringOrDocument,
	OptBatchSize:                nonNegativeInteger,
	OptComment:                  isString,
	OptAllowDiskUse:             isBool,
	OptBypassDocumentValidation: isBool,
	OptOrdered:                  isBool,
	OptLet:                      isDocument,
}

var allowedOptions = map[Action][]string{
	ActionFind: {
		OptSort, OptLimit, OptSkip, OptProjection, OptMaxTime,
		OptHint, OptBatchSize, OptComment, OptAllowDiskUse,
	},
	ActionFindOne: {
		OptSort, OptSkip, OptProjection, OptMaxTime, OptHint, OptComment,
	},
	ActionInsertOne: {
		OptMaxTime, OptBypassDocumentValidation, OptComment,
	},
	ActionInsertMany: {
		OptMaxTime, OptBypassDocumentValidation, OptOrdered, OptComment,
	},
	ActionAggregate: {
		OptMaxTime, OptAllowDiskUse, OptBatchSize, OptHint, OptComment, OptLet,
	},
}

// AllowedOptions returns the option keys accepted by action, sorted.
func AllowedOptions(action Action) []string {
	keys := append([]string(nil), allowedOptions[action]...)
	sort.Strings(keys)
	return keys
}

func validateOptions(action Action, opts bson.D) error {
	allowed := allowedOptions[action]
	seen := make(map[string]struct{}, len(opts))

	for _, e := range opts {
		variant := "options." + e.Key
		if !contains(allowed, e.Key) {
			return buildError(variant, fmt.Sprintf(
				"option is not supported by %s (accepted: %s)",
				action, strings.Join(AllowedOptions(action), ", "),
			))
		}
		if _, dup := seen[e.Key]; dup {
			return buildError(variant, "option is given more than once")
		}
		seen[e.Key] = struct{}{}

		if reason := optionChecks[e.Key](e.Value); reason != "" {
			return buildError(variant, reason)
		}
	}
	return nil
}

// withDefault appends key=value to opts if key is absent. opts is never
// modified in place.
func withDefault(opts bson.D, key string, value interface{}) bson.D {
	if _, ok := lookup(opts, key); ok {
		return opts
	}
	out := make(bson.D, len(opts), len(opts)+1)
	copy(out, opts)
	return append(out, bson.E{Key: key, Value: value})
}

func lookup(doc bson.D, key string) (interface{}, bool) {
	for _, e := range doc {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// AsInt64 converts a BSON numeric value to int64. Doubles are accepted only
// when they hold an integral value.
func AsInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// truthy follows the projection convention: false and numeric zero exclude a
// field, every other value includes it.
func truthy(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case nil:
		return false
	}
	if n, ok := v.(float64); ok {
		return n != 0
	}
	if n, ok := AsInt64(v); ok {
		return n != 0
	}
	return true
}

func isDocument(v interface{}) string {
	if _, ok := v.(bson.D); ok {
		return ""
	}
	return fmt.Sprintf("expected an object, got %s", bsonTypeName(v))
}

func isString(v interface{}) string {
	if _, ok := v.(string); ok {
		return ""
	}
	return fmt.Sprintf("expected a string, got %s", bsonTypeName(v))
}

func isStringOrDocument(v interface{}) string {
	switch v.(type) {
	case string, bson.D:
		return ""
	}
	return fmt.Sprintf("expected a string or an object, got %s", bsonTypeName(v))
}

func isBool(v interface{}) string {
	if _, ok := v.(bool); ok {
		return ""
	}
	return fmt.Sprintf("expected a boolean, got %s", bsonTypeName(v))
}

func positiveInteger(v interface{}) string {
	n, ok := AsInt64(v)
	if !ok {
		return fmt.Sprintf("expected an integer, got %s", bsonTypeName(v))
	}
	if n <= 0 {
		return fmt.Sprintf("must be greater than 0, got %d", n)
	}
	return ""
}

func nonNegativeInteger(v interface{}) string {
	n, ok := AsInt64(v)
	if !ok {
		return fmt.Sprintf("expected an integer, got %s", bsonTypeName(v))
	}
	if n < 0 {
		return fmt.Sprintf("must not be negative, got %d", n)
	}
	return ""
}

func durationMillis(v interface{}) string {
	if reason := nonNegativeInteger(v); reason != "" {
		return reason
	}
	if n, _ := AsInt64(v); n > MaxTimeLimitMS {
		return fmt.Sprintf("must not exceed %d milliseconds, got %d", MaxTimeLimitMS, n)
	}
	return ""
}

func bsonTypeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case string:
		return "a string"
	case int32, int64, int, float64:
		return "a number"
	case bson.D:
		return "an object"
	case bson.A:
		return "an array"
	default:
		return fmt.Sprintf("a %T", v)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
