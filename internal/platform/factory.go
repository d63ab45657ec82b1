package platform

import (
	"context"
	"io"

	"github.com/aretw0/noteledger/pkg/core"
)

// New opens the ledger at uri and returns a loaded Service.
//
//	svc, err := noteledger.New("notes.yaml", noteledger.WithWarningWindow(7))
//
// The uri is adapter-specific; for every built-in adapter it is a file path.
func New(uri string, opts ...Option) (*core.Service, error) {
	repo, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	serviceOpts := []core.ServiceOption{
		core.WithReadOnly(o.readOnly),
	}
	if o.logger != nil {
		serviceOpts = append(serviceOpts, core.WithLogger(o.logger))
	}
	serviceOpts = append(serviceOpts, o.service...)

	service := core.NewService(repo, serviceOpts...)
	if err := service.Load(context.Background()); err != nil {
		if c, ok := repo.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return service, nil
}
