package platform

import (
	"github.com/aretw0/tickline/pkg/core"
)

// New opens an editing session on a project.
//
//	svc, err := tickline.New("./charts/lumen", tickline.WithFormat("yaml"))
//
// The URI argument is adapter-specific (a directory for 'fs').
func New(uri string, opts ...Option) (*core.Service, error) {
	o := parseOptions(opts)

	repo, err := o.init(uri)
	if err != nil {
		return nil, err
	}

	settings, err := o.editor.Settings()
	if err != nil {
		return nil, err
	}

	serviceOpts := []core.ServiceOption{
		core.WithLogger(o.logger),
		core.WithSettings(settings),
		core.WithNow(o.now),
	}
	if size, ok := o.config["event_buffer"].(int); ok {
		serviceOpts = append(serviceOpts, core.WithEventBuffer(size))
	}
	if o.audioLoader != nil {
		serviceOpts = append(serviceOpts, core.WithAudioLoader(o.audioLoader))
	}

	return core.NewService(repo, serviceOpts...)
}
