package tickline

import (
	"log/slog"
	"time"

	"github.com/aretw0/tickline/internal/platform"
	"github.com/aretw0/tickline/pkg/core"
)

// --- Configuration ---

// Option defines a functional option for configuring tickline.
type Option = platform.Option

// Config holds the editor defaults read from tickline.yaml.
type Config = platform.Config

// ConfigFileName is the editor config looked up in the project directory.
const ConfigFileName = platform.ConfigFileName

// WithLogger sets the logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithAdapter allows specifying the storage adapter to use by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSystemDir sets the cache directory name (default ".tickline").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithFormat selects the cached chart format, "json" or "yaml".
func WithFormat(format string) Option {
	return platform.WithFormat(format)
}

// WithEventBuffer sets the per-subscriber event buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithReadOnly rejects every cache write with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the temp sandbox used under `go run`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist requires the project directory to exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithConfig sets the editor config instead of reading tickline.yaml.
func WithConfig(cfg *Config) Option {
	return platform.WithConfig(cfg)
}

// WithAudioLoader enables audio playback.
func WithAudioLoader(fn core.AudioLoader) Option {
	return platform.WithAudioLoader(fn)
}

// WithNow replaces the wall clock.
func WithNow(now func() time.Time) Option {
	return platform.WithNow(now)
}

// WithWatcherErrorHandler receives cache watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithSerializer registers a chart serializer (an fs.Serializer) by format.
func WithSerializer(format string, s any) Option {
	return platform.WithSerializer(format, s)
}

// --- Factory ---

// New opens an editing session on a project directory.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init prepares a project explicitly and returns its repository.
func Init(path string, opts ...Option) (core.Repository, error) {
	return platform.Init(path, opts...)
}

// DefaultConfig returns the built-in editor defaults.
func DefaultConfig() *Config {
	return platform.DefaultConfig()
}

// LoadConfig reads tickline.yaml from dir.
func LoadConfig(dir string) (*Config, error) {
	return platform.LoadConfig(dir)
}

// --- Safety & Utils ---

// ResolveProjectPath determines the actual project path based on safety rules.
func ResolveProjectPath(userPath string, forceTemp bool) string {
	return platform.ResolveProjectPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindProjectRoot looks upwards for a directory holding a .tickline cache or
// a tickline.yaml.
func FindProjectRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
