package domain

import (
	"errors"
	"fmt"
)

// Client-side errors produced while turning a request into an operation.
var (
	// ErrParse is returned when a request body is empty, is not valid JSON, or
	// contains an Extended JSON literal that cannot be converted to BSON.
	ErrParse = errors.New("malformed JSON")

	// ErrUnsupportedShape is returned when a body is valid JSON but matches
	// none of the shapes accepted for the requested action.
	ErrUnsupportedShape = errors.New("unsupported request shape")

	// ErrBuild is returned when a decoded shape cannot be turned into
	// operation arguments, e.g. because of an unknown or mistyped option.
	ErrBuild = errors.New("invalid operation arguments")

	// ErrNotFound is returned for requests that address no known route.
	ErrNotFound = errors.New("not found")

	// ErrMethodNotAllowed is returned when a route exists but not for the
	// request method.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrReadOnly is returned for write actions while the gateway runs in
	// read-only mode.
	ErrReadOnly = errors.New("gateway is in read-only mode")

	// ErrPayloadTooLarge is returned when a request body exceeds the
	// configured limit.
	ErrPayloadTooLarge = errors.New("request body too large")

	// ErrRateLimited is returned when the global request budget is exhausted.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ShapeError describes a decode or build failure and names the variant that
// was being processed when it happened. It wraps one of ErrParse,
// ErrUnsupportedShape or ErrBuild.
type ShapeError struct {
	Variant string // e.g. "filter", "[pipeline, options]", "options.limit"
	Reason  string
	Err     error
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Variant, e.Reason)
	}
	return fmt.Sprintf("%v (%s): %s", e.Err, e.Variant, e.Reason)
}

// Unwrap returns the wrapped sentinel to support errors.Is.
func (e *ShapeError) Unwrap() error {
	return e.Err
}

func parseError(variant, reason string) error {
	return &ShapeError{Variant: variant, Reason: reason, Err: ErrParse}
}

func shapeError(variant, reason string) error {
	return &ShapeError{Variant: variant, Reason: reason, Err: ErrUnsupportedShape}
}

func buildError(variant, reason string) error {
	return &ShapeError{Variant: variant, Reason: reason, Err: ErrBuild}
}

// IsClientError reports whether err was caused by the request itself rather
// than by the backend.
func IsClientError(err error) bool {
	return errors.Is(err, ErrParse) ||
		errors.Is(err, ErrUnsupportedShape) ||
		errors.Is(err, ErrBuild)
}
