package supervisor

import (
	"go.uber.org/fx"
)

// Module provides a supervisor spawning agents for the interfaces of
// source.
func Module(config Config, source InterfaceSource) fx.Option {
	return fx.Module(
		"supervisor",
		// provide supervisor config
		fx.Supply(config),
		// provide interface source
		fx.Supply(fx.Annotate(source, fx.As(new(InterfaceSource)))),
		// provide supervisor
		fx.Provide(NewLifecycleSupervisor),
		// expose status to the admin and http surfaces
		fx.Provide(func(s *Supervisor) StatusProvider { return s }),
		// invoke supervisor
		fx.Invoke(func(*Supervisor) {}),
	)
}
