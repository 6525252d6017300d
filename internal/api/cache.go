package api

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const databasesKey = "databases"

// MetadataCache memoizes database and collection listings for a short TTL.
// A zero TTL disables caching. It is safe for concurrent use.
type MetadataCache struct {
	names *cache.Cache
}

// NewMetadataCache creates a cache whose entries expire after ttl.
func NewMetadataCache(ttl time.Duration) *MetadataCache {
	if ttl <= 0 {
		return &MetadataCache{}
	}
	return &MetadataCache{names: cache.New(ttl, 2*ttl)}
}

// Databases returns the cached database listing, calling load on a miss.
func (m *MetadataCache) Databases(ctx context.Context, load func(context.Context) ([]string, error)) ([]string, error) {
	return m.get(ctx, databasesKey, load)
}

// Collections returns the cached collection listing of database, calling load
// on a miss.
func (m *MetadataCache) Collections(
	ctx context.Context,
	database string,
	load func(context.Context) ([]string, error),
) ([]string, error) {
	return m.get(ctx, "collections:"+database, load)
}

// get returns the sorted names under key. Failed loads are not cached.
func (m *MetadataCache) get(
	ctx context.Context,
	key string,
	load func(context.Context) ([]string, error),
) ([]string, error) {
	if m == nil || m.names == nil {
		names, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return sortedNames(names), nil
	}

	if cached, ok := m.names.Get(key); ok {
		return cached.([]string), nil
	}

	names, err := load(ctx)
	if err != nil {
		return nil, err
	}
	names = sortedNames(names)
	m.names.Set(key, names, cache.DefaultExpiration)
	return names, nil
}
