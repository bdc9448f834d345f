package cmd

import (
	"fmt"
	"os"

	"github.com/pratham-garg-456/Network-Monitor/app"
	"github.com/pratham-garg-456/Network-Monitor/app/supervise"
	"github.com/pratham-garg-456/Network-Monitor/config"
	"github.com/pratham-garg-456/Network-Monitor/internal/supervisor"
	"github.com/pratham-garg-456/Network-Monitor/util/conf"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
)

var (
	superviseCmdDescription = `The supervise command spawns one agent per interface and
	watches them. Agents connect back over the rendezvous socket,
	report their link state and ask for links to be brought up.

	If no interfaces are given, the command prompts for them. It
	runs until interrupted, then shuts down all agents gracefully.`
	superviseCmd = &cli.Command{
		Name:        "supervise",
		Usage:       "Spawn and supervise one agent per interface.",
		Description: superviseCmdDescription,
		Before: loadConfig(map[string]string{
			"interface":      "interfaces",
			"agent-cmd":      "agent.cmd",
			"stats-root":     "agent.stats_root",
			"ack-timeout":    "stop.ack_timeout",
			"wait-timeout":   "stop.wait_timeout",
			"admin-endpoint": "admin.endpoint",
			"http":           "http.enabled",
			"host":           "http.host",
			"port":           "http.port",
			"h2c":            "http.h2c",
			"nats-url":       "events.nats_url",
		}),
		Action: superviseAction,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "interface",
				Aliases:  []string{"i"},
				Usage:    "an interface to monitor, may be repeated.",
				Category: "agents",
			},
			&cli.StringFlag{
				Name:     "agent-cmd",
				Usage:    "the command to start agents with. Defaults to this executable.",
				Category: "agents",
			},
			&cli.PathFlag{
				Name:     "stats-root",
				Usage:    "the directory holding per-interface counters.",
				Category: "agents",
			},
			&cli.DurationFlag{
				Name:     "ack-timeout",
				Usage:    "how long to wait for agents to acknowledge a shutdown.",
				Category: "agents",
			},
			&cli.DurationFlag{
				Name:     "wait-timeout",
				Usage:    "how long to wait for agents to exit before killing them. Zero waits indefinitely.",
				Category: "agents",
			},
			&cli.StringFlag{
				Name:     "admin-endpoint",
				Usage:    "the admin socket serving the status, empty disables it.",
				Category: "admin",
			},
			&cli.BoolFlag{
				Name:     "http",
				Usage:    "serve the status over http.",
				Category: "http",
			},
			&cli.StringFlag{
				Name:     "host",
				Aliases:  []string{"H"},
				Usage:    "The host to listen on.",
				Category: "http",
			},
			&cli.IntFlag{
				Name:     "port",
				Aliases:  []string{"P"},
				Usage:    "The port to listen on.",
				Category: "http",
			},
			&cli.BoolFlag{
				Name:     "h2c",
				Usage:    "Enable HTTP/2 cleartext upgrade.",
				Category: "http",
			},
			&cli.StringFlag{
				Name:     "nats-url",
				Usage:    "the nats server to publish events to, empty disables events.",
				Category: "events",
			},
		},
	}
)

func superviseAction(ctx *cli.Context) error {
	cfg, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return err
	}

	// the prompt blocks on the operator, so it is answered before the
	// application starts
	source, err := interfaceSource(ctx, cfg)
	if err != nil {
		return err
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}

	app, err := app.New(ctx)
	if err != nil {
		return err
	}

	return app.Run(ctx.Context,
		fx.StopTimeout(supervise.StopTimeout(cfg.Stop)),
		supervise.Module(supervise.Params{
			Config:     cfg,
			Source:     source,
			Executable: executable,
			Output:     os.Stdout,
		}),
	)
}

func interfaceSource(ctx *cli.Context, cfg config.Config) (supervisor.StaticSource, error) {
	if len(cfg.Interfaces) > 0 {
		return supervisor.StaticSource(cfg.Interfaces), nil
	}

	prompt := supervisor.PromptSource{
		In:  os.Stdin,
		Out: os.Stdout,
	}

	interfaces, err := prompt.Interfaces(ctx.Context)
	if err != nil {
		return nil, err
	}

	return supervisor.StaticSource(interfaces), nil
}

func init() {
	rootApp.Commands = append(rootApp.Commands, superviseCmd)
}
