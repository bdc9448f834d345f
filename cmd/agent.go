package cmd

import (
	"github.com/pratham-garg-456/Network-Monitor/app"
	agentapp "github.com/pratham-garg-456/Network-Monitor/app/agent"
	"github.com/pratham-garg-456/Network-Monitor/config"
	"github.com/pratham-garg-456/Network-Monitor/internal/agent"
	"github.com/pratham-garg-456/Network-Monitor/util/conf"
	"github.com/urfave/cli/v2"
)

var (
	agentCmdDescription = `The agent command monitors a single interface. It is
	started by the supervisor, connects to its rendezvous socket
	and, once told to, polls the interface every second.

	If the link goes down, the agent alerts the supervisor and
	tries to bring the link back up.`
	agentCmd = &cli.Command{
		Name:        "agent",
		Usage:       "Monitor a single interface for the supervisor.",
		Description: agentCmdDescription,
		ArgsUsage:   "<interface_name>",
		Before: loadConfig(map[string]string{
			"stats-root": "agent.stats_root",
		}),
		Action: agentAction,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:  "stats-root",
				Usage: "the directory holding per-interface counters.",
			},
		},
	}
)

func agentAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 || ctx.Args().First() == "" {
		return agent.ErrMissingInterface
	}

	cfg, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return err
	}

	app, err := app.New(ctx)
	if err != nil {
		return err
	}

	return app.Run(ctx.Context, agentapp.Module(cfg.AgentConfig(ctx.Args().First())))
}

func init() {
	rootApp.Commands = append(rootApp.Commands, agentCmd)
}
