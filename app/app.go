package app

import (
	"github.com/pratham-garg-456/Network-Monitor/config"
	"github.com/pratham-garg-456/Network-Monitor/internal/shell"
	"github.com/pratham-garg-456/Network-Monitor/util/conf"
	"github.com/pratham-garg-456/Network-Monitor/util/logging"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
)

// New creates the shell for a command from the logger and config stored
// in the cli context.
func New(ctx *cli.Context) (*shell.Shell, error) {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return nil, err
	}

	config, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return nil, err
	}

	sharedModule := fx.Module(
		"shared",
		// provide global config
		fx.Supply(config),
	)

	return shell.New(log, sharedModule), nil
}
