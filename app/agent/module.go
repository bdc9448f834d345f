package agent

import (
	"github.com/pratham-garg-456/Network-Monitor/internal/agent"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module(config agent.Config) fx.Option {
	return fx.Module(
		"agent-app",
		// tag all agent logs with the monitored interface
		fx.Decorate(interfaceLogger(config.Interface)),
		// provide agent
		agent.Module(config),
	)
}

// interfaceLogger adds the interface field only. Components name their
// own loggers.
func interfaceLogger(iface string) func(*zap.Logger) *zap.Logger {
	return func(log *zap.Logger) *zap.Logger {
		return log.With(zap.String("interface", iface))
	}
}
