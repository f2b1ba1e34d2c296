package ports

import (
	"context"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// AssetStore resolves an image source to a normalized local file
type AssetStore interface {
	// GetOrFetch returns a fresh cached asset, fetching it at most once per key
	GetOrFetch(ctx context.Context, source string) (entities.CachedAsset, error)
}

// AssetCache is the full cache surface used by the compiler and the CLI
type AssetCache interface {
	AssetStore

	// Peek returns the entry for source when it is fresh, without fetching
	Peek(source string) (entities.CacheEntry, bool)

	// NewLease binds lookups to an in-progress compile so sweeps skip them
	NewLease(runID string) AssetLease

	// Invalidate removes the entry for source
	Invalidate(ctx context.Context, source string) error

	// Sweep removes stale entries that are not leased
	Sweep(ctx context.Context) (int, error)

	// Stats returns cache statistics
	Stats() entities.CacheStats
}

// AssetLease is an AssetStore whose keys stay pinned until Release
type AssetLease interface {
	AssetStore
	Release()
}

// CacheIndex persists cache entry metadata
type CacheIndex interface {
	Get(ctx context.Context, key string) (entities.CacheEntry, bool, error)
	Put(ctx context.Context, entry entities.CacheEntry) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]entities.CacheEntry, error)
	Close() error
}

// FetchedAsset is the raw payload of a fetch
type FetchedAsset struct {
	Data        []byte
	ContentType string
}

// AssetFetcher retrieves raw asset bytes from a source
type AssetFetcher interface {
	Fetch(ctx context.Context, source string) (FetchedAsset, error)
}

// AssetProber checks whether a source is reachable without downloading it
type AssetProber interface {
	Probe(ctx context.Context, source string) error
}
