package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/json-bucket/internal/api/shared"
	"github.com/phrazzld/json-bucket/internal/domain"
	"github.com/phrazzld/json-bucket/internal/platform/logger"
	"github.com/phrazzld/json-bucket/internal/store"
)

// Path parameter names used by the gateway routes.
const (
	ParamDatabase   = "database"
	ParamCollection = "collection"
)

// GatewayHandler serves the document routes. Each request is decoded, built
// into operation arguments, sent to the store and encoded back as relaxed
// Extended JSON. It holds no per-request state and is safe for concurrent use.
type GatewayHandler struct {
	store        store.DocumentStore
	builder      *domain.Builder
	cache        *MetadataCache
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewGatewayHandler creates a GatewayHandler. A nil cache disables listing
// caching; a nil logger uses slog.Default().
func NewGatewayHandler(
	documentStore store.DocumentStore,
	builder *domain.Builder,
	cache *MetadataCache,
	maxBodyBytes int64,
	logger *slog.Logger,
) *GatewayHandler {
	if documentStore == nil {
		panic("documentStore cannot be nil")
	}
	if builder == nil {
		panic("builder cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GatewayHandler{
		store:        documentStore,
		builder:      builder,
		cache:        cache,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.With(slog.String("component", "gateway")),
	}
}

// Action returns the handler for a body-carrying action,
// e.g. POST /{database}/{collection}/find.
func (h *GatewayHandler) Action(action domain.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContextOrDefault(r.Context(), h.logger).With(
			slog.String("action", action.String()))

		ns, err := collectionNamespace(r)
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}

		body, err := shared.ReadBody(w, r, h.maxBodyBytes)
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}

		shape, err := domain.Decode(body, action.PrimaryKind())
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}

		args, err := h.builder.Build(action, shape)
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}

		log.Debug("dispatching operation",
			slog.String("namespace", ns.String()),
			slog.String("shape", shape.Variant.String()))

		result, err := h.dispatch(r, ns, args, log)
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}

		shared.RespondWithJSON(w, r, http.StatusOK, result)
	}
}

// dispatch performs the backend call for args and encodes its result.
func (h *GatewayHandler) dispatch(
	r *http.Request,
	ns store.Namespace,
	args domain.OperationArguments,
	log *slog.Logger,
) (interface{}, error) {
	ctx := r.Context()

	switch args.Action {
	case domain.ActionFindOne:
		raw, err := h.store.FindOne(ctx, ns, args.Filter(), args.Options)
		if store.IsNotFoundError(err) {
			return shared.MessageResponse{Msg: noResults}, nil
		}
		if err != nil {
			return nil, err
		}
		return encodeDocument(raw, args.Hidden)

	case domain.ActionFind:
		stream, err := h.store.Find(ctx, ns, args.Filter(), args.Options)
		if err != nil {
			return nil, err
		}
		return drainStream(ctx, stream, args.Cap, args.Hidden, log)

	case domain.ActionInsertOne:
		res, err := h.store.InsertOne(ctx, ns, args.Document(), args.Options)
		if err != nil {
			return nil, err
		}
		return encodeInsertedID(res.InsertedID)

	case domain.ActionInsertMany:
		res, err := h.store.InsertMany(ctx, ns, args.Documents(), args.Options)
		if err != nil {
			return nil, err
		}
		return encodeInsertedIDs(res.InsertedIDs)

	case domain.ActionAggregate:
		stream, err := h.store.Aggregate(ctx, ns, args.Pipeline(), args.Options)
		if err != nil {
			return nil, err
		}
		return drainStream(ctx, stream, args.Cap, args.Hidden, log)

	default:
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrNotFound, args.Action)
	}
}

// ListDatabases handles GET /_cat/databases.
func (h *GatewayHandler) ListDatabases(w http.ResponseWriter, r *http.Request) {
	names, err := h.cache.Databases(r.Context(), h.store.ListDatabaseNames)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, names)
}

// ListCollections handles GET /{database}/_cat/collections.
func (h *GatewayHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	database := chi.URLParam(r, ParamDatabase)
	if err := domain.ValidateDatabaseName(database); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	names, err := h.cache.Collections(r.Context(), database, func(ctx context.Context) ([]string, error) {
		return h.store.ListCollectionNames(ctx, database)
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, names)
}

// CountResponse is the body of the _count route.
type CountResponse struct {
	Count int64 `json:"count"`
}

// Count handles GET /{database}/{collection}/_count.
func (h *GatewayHandler) Count(w http.ResponseWriter, r *http.Request) {
	ns, err := collectionNamespace(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	n, err := h.store.CountDocuments(r.Context(), ns)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{Count: n})
}

// ListIndexes handles GET /{database}/{collection}/_indexes.
func (h *GatewayHandler) ListIndexes(w http.ResponseWriter, r *http.Request) {
	ns, err := collectionNamespace(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	stream, err := h.store.ListIndexes(r.Context(), ns)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	out, err := drainStream(r.Context(), stream, 0, nil, h.logger)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// collectionNamespace extracts and validates the {database}/{collection} path
// parameters.
func collectionNamespace(r *http.Request) (store.Namespace, error) {
	ns := store.Namespace{
		Database:   chi.URLParam(r, ParamDatabase),
		Collection: chi.URLParam(r, ParamCollection),
	}
	if err := domain.ValidateDatabaseName(ns.Database); err != nil {
		return store.Namespace{}, err
	}
	if err := domain.ValidateCollectionName(ns.Collection); err != nil {
		return store.Namespace{}, err
	}
	return ns, nil
}
