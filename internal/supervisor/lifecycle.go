package supervisor

import (
	"context"

	"github.com/pratham-garg-456/Network-Monitor/internal/events"
	"github.com/pratham-garg-456/Network-Monitor/internal/process"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type LifecycleParams struct {
	fx.In

	Config        Config
	Source        InterfaceSource
	WorkerFactory process.Factory `optional:"true"`
	Publisher     events.Publisher
	Shutdowner    fx.Shutdowner
	Log           *zap.Logger
}

// NewLifecycleSupervisor starts the supervisor with the application and
// shuts it down with it. If the supervisor loop fails, the application
// is stopped with exit code 1.
func NewLifecycleSupervisor(params LifecycleParams, lc fx.Lifecycle) (*Supervisor, error) {
	s, err := New(Params{
		Config:        params.Config,
		Source:        params.Source,
		WorkerFactory: params.WorkerFactory,
		Publisher:     params.Publisher,
		Log:           params.Log,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := s.Start(ctx); err != nil {
				return err
			}

			go func() {
				if err := s.Run(context.Background()); err != nil {
					_ = params.Shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.Shutdown(ctx)
		},
	})

	return s, nil
}
