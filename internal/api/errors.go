package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/json-bucket/internal/api/shared"
	"github.com/phrazzld/json-bucket/internal/domain"
	"github.com/phrazzld/json-bucket/internal/store"
)

// Fixed client-facing messages.
const (
	msgNotFound         = "HTTP 404 Not Found"
	msgMethodNotAllowed = "HTTP 405 Method Not Allowed"
	msgUnexpected       = "An unexpected error occurred"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var tooLarge *http.MaxBytesError

	switch {
	// Request errors: the body could not be turned into an operation
	case errors.Is(err, domain.ErrParse),
		errors.Is(err, domain.ErrUnsupportedShape),
		errors.Is(err, domain.ErrBuild):
		return http.StatusBadRequest

	// Routing errors
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed

	// Gateway policy errors
	case errors.Is(err, domain.ErrReadOnly):
		return http.StatusForbidden

	case errors.Is(err, domain.ErrPayloadTooLarge),
		errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests

	// Backend errors
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable

	// Default: internal server error, covers store.ErrOperationFailed
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the message sent to the client for err.
// Request errors are echoed so callers can fix their payload; backend errors
// are reduced to their class so driver details stay in the logs.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return msgUnexpected
	}

	var tooLarge *http.MaxBytesError

	switch {
	case domain.IsClientError(err):
		return err.Error()

	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return msgNotFound

	case errors.Is(err, domain.ErrMethodNotAllowed):
		return msgMethodNotAllowed

	case errors.Is(err, domain.ErrReadOnly):
		return domain.ErrReadOnly.Error()

	case errors.Is(err, domain.ErrPayloadTooLarge):
		return err.Error()

	case errors.As(err, &tooLarge):
		return domain.ErrPayloadTooLarge.Error()

	case errors.Is(err, domain.ErrRateLimited):
		return domain.ErrRateLimited.Error()

	case errors.Is(err, store.ErrUnavailable):
		return store.ErrUnavailable.Error()

	case errors.Is(err, store.ErrDuplicate):
		return store.ErrDuplicate.Error()

	case errors.Is(err, store.ErrTimeout):
		return store.ErrTimeout.Error()

	case errors.Is(err, store.ErrOperationFailed):
		return store.ErrOperationFailed.Error()

	default:
		return msgUnexpected
	}
}

// HandleAPIError writes the error response for err: the mapped status, the
// safe message and the trace ID, logging the redacted details.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
}
