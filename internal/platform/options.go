package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/tickline/pkg/core"
)

// options holds the internal configuration for a tickline session.
type options struct {
	repository  core.Repository
	logger      *slog.Logger
	adapter     string
	config      map[string]interface{}
	serializers map[string]any
	editor      *Config
	audioLoader core.AudioLoader
	now         func() time.Time

	// resolved during Init
	path string
}

// Option defines a functional option for configuring tickline.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:     "fs",
		config:      make(map[string]interface{}),
		serializers: make(map[string]any),
	}
}

func parseOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithSerializer registers a chart serializer under a format name.
// The serializer must implement fs.Serializer; this is checked during Init.
func WithSerializer(format string, s any) Option {
	return func(o *options) {
		o.serializers[format] = s
	}
}

// WithFormat selects the chart format written to the cache ("json" or
// "yaml"). It overrides the format from the editor config.
func WithFormat(format string) Option {
	return func(o *options) {
		o.config["format"] = format
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithMustExist requires the project directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithLogger sets the logger for the session and its adapters.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository injects a storage adapter. The filesystem adapter is
// skipped when one is provided.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAdapter selects the storage adapter by name. Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSystemDir sets the cache directory name inside the project.
// Defaults to ".tickline".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithEventBuffer sets the per-subscriber event buffer.
// Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.config["event_buffer"] = size
	}
}

// WithWatcherErrorHandler receives runtime failures of the cache watcher,
// which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Cache writes (save, reset, asset and archive import) return ErrReadOnly.
// 2. The cache directory is not created.
// 3. The dev sandbox is bypassed (the real path is used).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run`.
// By default (true) the project is re-rooted into a temporary directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithConfig sets the editor config instead of reading tickline.yaml.
func WithConfig(cfg *Config) Option {
	return func(o *options) {
		o.editor = cfg
	}
}

// WithAudioLoader enables audio playback for the session.
func WithAudioLoader(fn core.AudioLoader) Option {
	return func(o *options) {
		o.audioLoader = fn
	}
}

// WithNow replaces the wall clock (useful for testing playback).
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
