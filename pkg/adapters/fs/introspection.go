package fs

import (
	"sort"
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string     `json:"path"`
	CacheDir      string     `json:"cache_dir"`
	Format        string     `json:"format"`
	ReadOnly      bool       `json:"read_only"`
	Serializers   []string   `json:"serializers"`
	Cached        bool       `json:"cached"`
	WatcherActive bool       `json:"watcher_active"`
	LastSave      *time.Time `json:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	serializers := make([]string, 0, len(r.serializers))
	for name := range r.serializers {
		serializers = append(serializers, name)
	}
	sort.Strings(serializers)

	_, err := r.chartFile(r.CacheDir())

	return RepositoryState{
		Path:          r.Path,
		CacheDir:      r.CacheDir(),
		Format:        r.config.Format,
		ReadOnly:      r.readOnly,
		Serializers:   serializers,
		Cached:        err == nil,
		WatcherActive: r.watcherActive,
		LastSave:      r.lastSave,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}
