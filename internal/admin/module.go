package admin

import "go.uber.org/fx"

func Module(config Config) fx.Option {
	return fx.Module("admin",
		// provide config
		fx.Supply(config),
		// provide server
		fx.Provide(NewLifecycleServer),
		// invoke server
		fx.Invoke(func(*Server) {}),
	)
}
