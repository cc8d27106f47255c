package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/tickline/pkg/core"
)

const (
	// DefaultSystemDir holds the cache inside the project directory.
	DefaultSystemDir = ".tickline"
	// DefaultExportDir receives archives exported without a destination.
	DefaultExportDir = "exports"

	chartBase    = "chart"
	chartPattern = "chart.{json,yaml,yml}"
)

// Repository implements core.Repository with a single cache slot on the
// filesystem: one chart file plus the imported audio and image.
type Repository struct {
	Path   string
	config Config

	serializers map[string]Serializer
	readOnly    bool

	mu            sync.RWMutex
	watcherActive bool
	lastSave      *time.Time
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path         string
	SystemDir    string // e.g. ".tickline"
	ExportDir    string // relative to Path unless absolute
	Format       string // "json" (default) or "yaml"
	MustExist    bool
	ReadOnly     bool
	Logger       *slog.Logger
	ErrorHandler func(error) // receives watcher failures
	Serializers  map[string]Serializer
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.ExportDir == "" {
		config.ExportDir = DefaultExportDir
	}
	if config.Format == "" {
		config.Format = "json"
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	serializers := config.Serializers
	if serializers == nil {
		serializers = DefaultSerializers()
	}
	return &Repository{
		Path:        config.Path,
		config:      config,
		serializers: serializers,
		readOnly:    config.ReadOnly,
	}
}

// CacheDir is the directory holding the cached chart and assets.
func (r *Repository) CacheDir() string {
	return filepath.Join(r.Path, r.config.SystemDir)
}

// Initialize checks the project directory and creates the cache directory.
func (r *Repository) Initialize(ctx context.Context) error {
	if _, ok := r.serializers[r.config.Format]; !ok {
		return &core.ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported chart format %q", r.config.Format)}
	}

	if r.config.MustExist || r.readOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("project path does not exist: %s: %w", r.Path, core.ErrNotFound)
		}
		if err != nil {
			return core.IOError("stat project", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("project path is not a directory: %s", r.Path)
		}
	}
	if r.readOnly {
		return nil
	}

	if err := os.MkdirAll(r.CacheDir(), 0755); err != nil {
		return core.IOError("create cache directory", err)
	}
	return nil
}

func (r *Repository) ensureCacheDir() error {
	if r.readOnly {
		if _, err := os.Stat(r.CacheDir()); err != nil {
			return core.IOError("stat cache directory", err)
		}
		return nil
	}
	if err := os.MkdirAll(r.CacheDir(), 0755); err != nil {
		return core.IOError("create cache directory", err)
	}
	return nil
}

// Save encodes the snapshot in the configured format and replaces the cached
// chart atomically. A chart cached in another format is removed afterwards.
func (r *Repository) Save(ctx context.Context, s core.Snapshot) error {
	if r.readOnly {
		return fmt.Errorf("save chart: %w", core.ErrReadOnly)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ser := r.serializers[r.config.Format]
	data, err := ser.Encode(s)
	if err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}
	if err := os.MkdirAll(r.CacheDir(), 0755); err != nil {
		return core.IOError("create cache directory", err)
	}

	target := filepath.Join(r.CacheDir(), chartBase+ser.Ext())
	if err := writeFileAtomic(target, data, 0644); err != nil {
		return core.IOError("write chart", err)
	}

	stale, err := r.match(chartPattern)
	if err != nil {
		return err
	}
	for _, name := range stale {
		if name == filepath.Base(target) {
			continue
		}
		if err := os.Remove(filepath.Join(r.CacheDir(), name)); err != nil && !os.IsNotExist(err) {
			return core.IOError("remove stale chart", err)
		}
	}

	now := time.Now()
	r.mu.Lock()
	r.lastSave = &now
	r.mu.Unlock()

	r.config.Logger.Debug("chart saved", "path", target, "lines", len(s.Lines))
	return nil
}

// Load reads and validates the cached chart.
func (r *Repository) Load(ctx context.Context) (core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.Snapshot{}, err
	}
	name, err := r.chartFile(r.CacheDir())
	if err != nil {
		return core.Snapshot{}, err
	}
	return r.decodeFile(filepath.Join(r.CacheDir(), name))
}

// chartFile finds the chart in dir, preferring the configured format.
func (r *Repository) chartFile(dir string) (string, error) {
	preferred := chartBase + r.serializers[r.config.Format].Ext()
	if _, err := os.Stat(filepath.Join(dir, preferred)); err == nil {
		return preferred, nil
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("cached chart: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", core.IOError("read cache directory", err)
	}
	for _, e := range entries {
		if ok, _ := doublestar.Match(chartPattern, e.Name()); ok && !e.IsDir() {
			return e.Name(), nil
		}
	}
	return "", fmt.Errorf("cached chart: %w", core.ErrNotFound)
}

func (r *Repository) serializerFor(filename string) (Serializer, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".yml" {
		ext = ".yaml"
	}
	for _, s := range r.serializers {
		if s.Ext() == ext {
			return s, true
		}
	}
	return nil, false
}

// decodeFile parses a chart file and checks every document invariant, so
// that a returned snapshot always rebuilds into a valid document.
func (r *Repository) decodeFile(path string) (core.Snapshot, error) {
	ser, ok := r.serializerFor(path)
	if !ok {
		return core.Snapshot{}, core.Corrupt(filepath.Base(path), "unsupported chart format")
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return core.Snapshot{}, fmt.Errorf("cached chart: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Snapshot{}, core.IOError("open chart", err)
	}
	defer f.Close()

	s, err := ser.Decode(f)
	if err != nil {
		return core.Snapshot{}, err
	}
	if _, err := core.FromSnapshot(s, core.Limits{}); err != nil {
		return core.Snapshot{}, core.Corrupt(filepath.Base(path), "%v", err)
	}
	return s, nil
}

// ImportAsset copies src into the cache as "<kind><ext>" and removes the
// previous asset of the same kind.
func (r *Repository) ImportAsset(ctx context.Context, kind core.AssetKind, src string) (string, error) {
	if r.readOnly {
		return "", fmt.Errorf("import %s: %w", kind, core.ErrReadOnly)
	}
	if kind != core.AssetAudio && kind != core.AssetImage {
		return "", &core.ValidationError{Field: "asset kind", Reason: fmt.Sprintf("unknown kind %q", kind)}
	}
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("asset %s: %w", src, core.ErrNotFound)
	}
	if err != nil {
		return "", core.IOError("stat asset", err)
	}
	if info.IsDir() {
		return "", &core.ValidationError{Field: "asset", Reason: src + " is a directory"}
	}
	if err := os.MkdirAll(r.CacheDir(), 0755); err != nil {
		return "", core.IOError("create cache directory", err)
	}

	name := assetName(kind, src)
	if err := copyFileAtomic(filepath.Join(r.CacheDir(), name), src, 0644); err != nil {
		return "", core.IOError("copy asset", err)
	}
	if err := r.removeMatching(string(kind)+".*", name); err != nil {
		return "", err
	}

	r.config.Logger.Debug("asset imported", "kind", kind, "name", name, "source", src)
	return name, nil
}

func assetName(kind core.AssetKind, src string) string {
	return string(kind) + strings.ToLower(filepath.Ext(src))
}

// AssetPath resolves a cached asset name.
func (r *Repository) AssetPath(name string) string {
	return filepath.Join(r.CacheDir(), filepath.Base(name))
}

// Reset removes the cached chart and assets. Other files in the cache
// directory are left alone.
func (r *Repository) Reset(ctx context.Context) error {
	if r.readOnly {
		return fmt.Errorf("reset: %w", core.ErrReadOnly)
	}
	for _, pattern := range []string{chartPattern, "audio.*", "image.*"} {
		if err := r.removeMatching(pattern, ""); err != nil {
			return err
		}
	}
	r.config.Logger.Debug("cache reset", "path", r.CacheDir())
	return nil
}

// match lists the cache entries whose name matches pattern, sorted.
func (r *Repository) match(pattern string) ([]string, error) {
	entries, err := os.ReadDir(r.CacheDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, core.IOError("read cache directory", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), TempFilePrefix) {
			continue
		}
		ok, err := doublestar.Match(pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *Repository) removeMatching(pattern, keep string) error {
	names, err := r.match(pattern)
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range names {
		if name == keep {
			continue
		}
		if err := os.Remove(filepath.Join(r.CacheDir(), name)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return core.IOError("remove cached files", errors.Join(errs...))
	}
	return nil
}

var (
	_ core.Repository = (*Repository)(nil)
	_ core.Archiver   = (*Repository)(nil)
	_ core.Watchable  = (*Repository)(nil)
)
