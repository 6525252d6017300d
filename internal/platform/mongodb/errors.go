package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/json-bucket/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

// MapError maps a driver error to the store error taxonomy.
// It wraps the original error to preserve context for logging; callers must
// not expose the wrapped text to clients.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	if IsUnavailable(err) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}

	if mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %v", store.ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", store.ErrOperationFailed, err)
}

// IsUnavailable reports whether err means the backend could not be reached,
// as opposed to the backend failing the operation.
func IsUnavailable(err error) bool {
	if errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, topology.ErrServerSelectionTimeout) ||
		errors.Is(err, topology.ErrTopologyClosed) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	var sse topology.ServerSelectionError
	if errors.As(err, &sse) {
		return true
	}

	return mongo.IsNetworkError(err)
}
