package agent

import (
	"context"
	"io"
	"os"

	"github.com/pratham-garg-456/Network-Monitor/internal/netif"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides an agent connected to the supervisor.
func Module(config Config) fx.Option {
	return fx.Module(
		"agent",
		// provide agent config
		fx.Supply(config),
		// provide interface collaborators
		fx.Provide(newStatsReader),
		fx.Provide(newLinkController),
		// snapshots are printed to stdout
		fx.Provide(fx.Annotate(
			func() io.Writer { return os.Stdout },
			fx.ResultTags(`name:"snapshots"`),
		)),
		// provide agent
		fx.Provide(NewLifecycleAgent),
		// invoke agent
		fx.Invoke(func(*Runner) {}),
	)
}

func newStatsReader(config Config, log *zap.Logger) netif.StatsReader {
	return netif.NewSysfsStats(config.StatsRoot, log)
}

func newLinkController(lc fx.Lifecycle, log *zap.Logger) (netif.LinkController, error) {
	link, err := netif.NewLink(log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.StopHook(func(context.Context) {
		link.Close()
	}))

	return link, nil
}
