package domain

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"
	"go.mongodb.org/mongo-driver/bson"
)

// PayloadKind tells an object payload from an array-of-objects payload.
type PayloadKind int

// Payload kinds.
const (
	KindObject PayloadKind = iota + 1
	KindArray
)

// String implements fmt.Stringer.
func (k PayloadKind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Payload is the primary argument of an operation: a single document or an
// ordered list of documents. Documents keep the key order of the request.
type Payload struct {
	kind   PayloadKind
	object bson.D
	array  []bson.D
}

// ObjectPayload wraps a single document.
func ObjectPayload(doc bson.D) Payload {
	return Payload{kind: KindObject, object: doc}
}

// ArrayPayload wraps a list of documents.
func ArrayPayload(docs []bson.D) Payload {
	return Payload{kind: KindArray, array: docs}
}

// Kind returns the payload kind.
func (p Payload) Kind() PayloadKind {
	return p.kind
}

// Object returns the document and true if p is an object payload.
func (p Payload) Object() (bson.D, bool) {
	return p.object, p.kind == KindObject
}

// Array returns the documents and true if p is an array payload.
func (p Payload) Array() ([]bson.D, bool) {
	return p.array, p.kind == KindArray
}

// ShapeVariant discriminates RequestShape.
type ShapeVariant int

// Shape variants.
const (
	ShapeBare ShapeVariant = iota + 1
	ShapeWithOptions
)

// String implements fmt.Stringer.
func (v ShapeVariant) String() string {
	switch v {
	case ShapeBare:
		return "bare"
	case ShapeWithOptions:
		return "with_options"
	default:
		return "unknown"
	}
}

// RequestShape is a decoded request body. Bare shapes carry only the primary
// payload; WithOptions shapes also carry an options document.
type RequestShape struct {
	Variant ShapeVariant
	Primary Payload
	Options bson.D
}

// Decode probes the top-level structure of body and converts it into a
// RequestShape. expected is the primary kind of the requested action; it
// decides whether a two-element array is a [primary, options] pair.
//
// The probe never looks at key names: a body is a [primary, options] pair only
// if it is an array of two elements whose first element has the expected kind
// and whose second element is an object or null. A null second element yields
// a Bare shape.
func Decode(body []byte, expected PayloadKind) (RequestShape, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return RequestShape{}, parseError("body", "request body is empty")
	}
	if !gjson.ValidBytes(trimmed) {
		return RequestShape{}, parseError("body", "request body is not valid JSON")
	}

	root := gjson.ParseBytes(trimmed)
	switch {
	case root.IsObject():
		doc, err := toDocument(root, "object")
		if err != nil {
			return RequestShape{}, err
		}
		return RequestShape{Variant: ShapeBare, Primary: ObjectPayload(doc)}, nil
	case root.IsArray():
		return decodeArray(root.Array(), expected)
	default:
		return RequestShape{}, shapeError(
			"body",
			fmt.Sprintf("top-level %s is neither an object nor an array", describe(root)),
		)
	}
}

func decodeArray(elems []gjson.Result, expected PayloadKind) (RequestShape, error) {
	if isOptionsPair(elems, expected) {
		variant := fmt.Sprintf("[%s, options]", expected)

		primary, err := toPayload(elems[0], expected, variant)
		if err != nil {
			return RequestShape{}, err
		}
		if elems[1].Type == gjson.Null {
			return RequestShape{Variant: ShapeBare, Primary: primary}, nil
		}

		opts, err := toDocument(elems[1], variant+" options")
		if err != nil {
			return RequestShape{}, err
		}
		return RequestShape{Variant: ShapeWithOptions, Primary: primary, Options: opts}, nil
	}

	for i, elem := range elems {
		if !elem.IsObject() {
			return RequestShape{}, shapeError(
				"array",
				fmt.Sprintf("element %d is %s; expected an object", i, describe(elem)),
			)
		}
	}

	docs, err := toDocuments(elems, "array")
	if err != nil {
		return RequestShape{}, err
	}
	return RequestShape{Variant: ShapeBare, Primary: ArrayPayload(docs)}, nil
}

func isOptionsPair(elems []gjson.Result, expected PayloadKind) bool {
	if len(elems) != 2 {
		return false
	}
	if !hasKind(elems[0], expected) {
		return false
	}
	return elems[1].IsObject() || elems[1].Type == gjson.Null
}

func hasKind(r gjson.Result, kind PayloadKind) bool {
	switch kind {
	case KindObject:
		return r.IsObject()
	case KindArray:
		return r.IsArray()
	default:
		return false
	}
}

func toPayload(r gjson.Result, kind PayloadKind, variant string) (Payload, error) {
	if kind == KindObject {
		doc, err := toDocument(r, variant)
		if err != nil {
			return Payload{}, err
		}
		return ObjectPayload(doc), nil
	}

	elems := r.Array()
	for i, elem := range elems {
		if !elem.IsObject() {
			return Payload{}, shapeError(
				variant,
				fmt.Sprintf("element %d of the primary array is %s; expected an object", i, describe(elem)),
			)
		}
	}
	docs, err := toDocuments(elems, variant)
	if err != nil {
		return Payload{}, err
	}
	return ArrayPayload(docs), nil
}

func toDocuments(elems []gjson.Result, variant string) ([]bson.D, error) {
	docs := make([]bson.D, 0, len(elems))
	for _, elem := range elems {
		doc, err := toDocument(elem, variant)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// toDocument converts a JSON object into a bson.D. Relaxed Extended JSON is
// accepted so that {"$oid": ...} and {"$date": ...} literals keep their BSON
// types.
func toDocument(r gjson.Result, variant string) (bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(r.Raw), false, &doc); err != nil {
		return nil, parseError(variant, err.Error())
	}
	if doc == nil {
		doc = bson.D{}
	}
	return doc, nil
}

func describe(r gjson.Result) string {
	switch r.Type {
	case gjson.Null:
		return "null"
	case gjson.True, gjson.False:
		return "a boolean"
	case gjson.Number:
		return "a number"
	case gjson.String:
		return "a string"
	case gjson.JSON:
		if r.IsArray() {
			return "an array"
		}
		return "an object"
	default:
		return "an unknown value"
	}
}
