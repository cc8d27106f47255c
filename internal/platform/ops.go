package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/tickline/pkg/adapters/fs"
	"github.com/aretw0/tickline/pkg/core"
)

// Init prepares a project and returns its repository.
// The 'uri' argument is adapter-specific (a project directory for 'fs').
func Init(uri string, opts ...Option) (core.Repository, error) {
	return parseOptions(opts).init(uri)
}

func (o *options) init(uri string) (core.Repository, error) {
	if o.repository != nil {
		if o.editor == nil {
			o.editor = DefaultConfig()
		}
		return o.repository, nil
	}

	var repo core.Repository
	var err error

	switch o.adapter {
	case "fs":
		repo, err = initFS(uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// initFS resolves the project path, reads the editor config and builds the
// filesystem repository.
func initFS(path string, o *options) (core.Repository, error) {
	tempDir, _ := o.config["temp_dir"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))
	isReadOnly, _ := o.config["read_only"].(bool)

	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	// Read-only projects and an explicit opt-out skip the sandbox.
	bypassSafety := isReadOnly || !devSafety
	useTemp := tempDir || (IsDevRun() && !bypassSafety)
	resolvedPath := ResolveProjectPath(path, useTemp)
	o.path = resolvedPath

	if IsDevRun() && o.logger != nil {
		if bypassSafety {
			if isReadOnly {
				o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolvedPath)
			} else {
				o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolvedPath)
			}
		} else {
			o.logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", resolvedPath)
		}
	}
	if o.logger != nil && useTemp && resolvedPath != path {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolvedPath)
	}

	if o.editor == nil {
		cfg, err := LoadConfig(resolvedPath)
		if err != nil {
			return nil, err
		}
		o.editor = cfg
	}
	format := o.editor.Format
	if f, ok := o.config["format"].(string); ok && f != "" {
		format = f
	}

	serializers := fs.DefaultSerializers()
	for name, s := range o.serializers {
		serializer, ok := s.(fs.Serializer)
		if !ok {
			if o.logger != nil {
				o.logger.Warn("invalid serializer type ignored", "format", name, "expected", "fs.Serializer")
			}
			return nil, fmt.Errorf("serializer for %s must implement fs.Serializer", name)
		}
		serializers[name] = serializer
	}

	repo := fs.NewRepository(fs.Config{
		Path:         resolvedPath,
		SystemDir:    systemDir,
		Format:       format,
		MustExist:    mustExist,
		ReadOnly:     isReadOnly,
		Logger:       o.logger,
		ErrorHandler: errorHandler,
		Serializers:  serializers,
	})
	return repo, nil
}
