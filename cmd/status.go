package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pratham-garg-456/Network-Monitor/config"
	"github.com/pratham-garg-456/Network-Monitor/internal/admin"
	"github.com/pratham-garg-456/Network-Monitor/internal/supervisor"
	"github.com/pratham-garg-456/Network-Monitor/util/conf"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var (
	statusCmd = &cli.Command{
		Name:  "status",
		Usage: "Print the status of a running supervisor.",
		Before: loadConfig(map[string]string{
			"admin-endpoint": "admin.endpoint",
		}),
		Action: statusAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "admin-endpoint",
				Usage: "the admin socket of the supervisor.",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "the output format. Options: json, yaml.",
				Value:   "json",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "how long to wait for the supervisor.",
				Value: 5 * time.Second,
			},
		},
	}
)

func statusAction(ctx *cli.Context) error {
	cfg, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return err
	}

	if cfg.Admin.Endpoint == "" {
		return fmt.Errorf("no admin endpoint configured")
	}

	callCtx, cancel := context.WithTimeout(ctx.Context, ctx.Duration("timeout"))
	defer cancel()

	client, err := admin.Dial(callCtx, cfg.Admin.Endpoint)
	if err != nil {
		return err
	}
	defer client.Close()

	status, err := client.Status(callCtx)
	if err != nil {
		return err
	}

	return writeStatus(ctx.App.Writer, status, ctx.String("output"))
}

func writeStatus(w io.Writer, status supervisor.Status, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		enc.SetIndent(2)
		return enc.Encode(status)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func init() {
	rootApp.Commands = append(rootApp.Commands, statusCmd)
}
