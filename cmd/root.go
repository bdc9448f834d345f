package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pratham-garg-456/Network-Monitor/config"
	"github.com/pratham-garg-456/Network-Monitor/internal/shell"
	"github.com/pratham-garg-456/Network-Monitor/util/conf"
	"github.com/pratham-garg-456/Network-Monitor/util/logging"
	"github.com/urfave/cli/v2"
)

var (
	appName  = "netmon"
	appUsage = `Monitor the link state of network interfaces and bring
links back up when they go down.`
	rootApp = &cli.App{
		Name:            appName,
		Usage:           appUsage,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			// general flags
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "set the log level. Options: debug, info, warn, error, panic, fatal.",
				EnvVars: []string{config.EnvPrefix + "LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "set the log format. Options: production, development.",
				EnvVars: []string{config.EnvPrefix + "LOG_FORMAT"},
			},
			&cli.PathFlag{
				Name:    "config",
				Usage:   "the json configuration file to load.",
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
			&cli.PathFlag{
				Name:    "env-file",
				Usage:   "a dotenv file with " + config.EnvPrefix + " settings to load.",
				EnvVars: []string{config.EnvPrefix + "ENV_FILE"},
			},
			&cli.StringFlag{
				Name:    "socket",
				Aliases: []string{"s"},
				Usage:   "the rendezvous socket shared by the supervisor and its agents.",
			},
		},
		Before: func(ctx *cli.Context) error {
			// create the bootstrap logger, it is replaced once the
			// config of the command is parsed
			log, err := logging.NewLogger(logging.Options{
				Level:  ctx.String("log-level"),
				Format: ctx.String("log-format"),
				App:    appName,
			})
			if err != nil {
				return err
			}

			// inject logger into cli context
			ctx.Context = logging.ContextWithLogger(ctx.Context, log)

			return nil
		},
		After: func(ctx *cli.Context) error {
			log, err := logging.LoggerFromContext(ctx.Context)
			if err != nil {
				return err
			}

			_ = log.Sync()

			return nil
		},
	}
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:               "version",
		Usage:              "print the version",
		DisableDefaultText: true,
	}
}

// loadConfig returns a command Before hook that parses the config from
// defaults, the config file, the env file, env vars and the flags of
// the command, in that order. cliMap maps flag names to config keys.
func loadConfig(cliMap map[string]string) cli.BeforeFunc {
	return func(ctx *cli.Context) error {
		log, err := logging.LoggerFromContext(ctx.Context)
		if err != nil {
			return err
		}

		cfg, err := conf.Parse[config.Config](conf.ParseOptions{
			Cli:          ctx,
			CliMap:       cliMap,
			Defaults:     config.DefaultConfig,
			EnvPrefix:    config.EnvPrefix,
			FileName:     ctx.Path("config"),
			EnvFile:      ctx.Path("env-file"),
			ListKeys:     config.ListKeys,
			ValidateFile: config.Validate,
			Log:          log,
		})
		if err != nil {
			return err
		}

		// rebuild the logger, the config file may set level and format
		log, err = logging.NewLogger(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			App:    appName,
		})
		if err != nil {
			return err
		}

		ctx.Context = logging.ContextWithLogger(ctx.Context, log)

		// inject the config into the cli context
		ctx.Context = conf.ContextWithConfig(ctx.Context, cfg)

		return nil
	}
}

type ExecuteParams struct {
	Version  string
	Compiled time.Time
}

// Execute runs the cli and returns the process exit code.
func Execute(params ExecuteParams) int {
	rootApp.Version = params.Version
	rootApp.Compiled = params.Compiled

	return run(context.Background(), os.Args)
}

func run(ctx context.Context, args []string) int {
	err := rootApp.RunContext(ctx, args)
	if err == nil {
		return 0
	}

	// exit codes requested by the application are not failures
	var exitErr *shell.ExitError
	if !errors.As(err, &exitErr) {
		sentry.CaptureException(err)
		fmt.Fprintf(os.Stderr, "%s: %s\n", appName, err)
	}

	return shell.ExitCode(err)
}
