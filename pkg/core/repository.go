package core

import "context"

// Repository defines the contract for the single cache slot that holds the
// current chart and its assets. Adhering to this interface keeps the core
// independent of the storage mechanism.
type Repository interface {
	// Initialize ensures the underlying storage is ready (e.g. create directories).
	Initialize(ctx context.Context) error

	// Save replaces the cached chart. It never leaves a partial write behind.
	Save(ctx context.Context, s Snapshot) error

	// Load reads the cached chart. It returns ErrNotFound when nothing is
	// cached and ErrCorrupt when the stored chart has the wrong shape.
	Load(ctx context.Context) (Snapshot, error)

	// ImportAsset copies src into the cache under the canonical name for
	// kind and returns that name.
	ImportAsset(ctx context.Context, kind AssetKind, src string) (string, error)

	// AssetPath resolves a cached asset name to a readable location.
	AssetPath(name string) string

	// Reset removes the cached chart and its assets.
	Reset(ctx context.Context) error
}

// Archiver is implemented by repositories that can package the cache into a
// single portable file.
type Archiver interface {
	// Export packages the cached chart and assets and returns the archive path.
	// An empty dest lets the repository choose one.
	Export(ctx context.Context, dest string) (string, error)

	// Import unpacks an archive into the cache, replacing the cached chart and
	// assets only when the archive is complete and valid.
	Import(ctx context.Context, src string) (Snapshot, error)
}

// Watchable defines an interface for repositories that report external
// changes to the cache.
type Watchable interface {
	// Watch emits events for cache entries whose name matches pattern.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
