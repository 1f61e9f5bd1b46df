package platform

import (
	"github.com/aretw0/mycel/pkg/adapters/fs"
	"github.com/aretw0/mycel/pkg/engine"
)

// New creates the engine service for the content root at path.
//
//	svc, err := mycel.New("./kb", mycel.WithVersioning(false))
func New(path string, opts ...Option) (*engine.Service, error) {
	store, cfg, err := Init(path, opts...)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return engine.NewService(store, cfg, fs.NewSerializer(), o.logger, o.clock), nil
}
