package supervise

import (
	"io"
	"time"

	"github.com/pratham-garg-456/Network-Monitor/config"
	"github.com/pratham-garg-456/Network-Monitor/handler"
	"github.com/pratham-garg-456/Network-Monitor/internal/admin"
	"github.com/pratham-garg-456/Network-Monitor/internal/events"
	"github.com/pratham-garg-456/Network-Monitor/internal/process"
	"github.com/pratham-garg-456/Network-Monitor/internal/server"
	"github.com/pratham-garg-456/Network-Monitor/internal/supervisor"
	"github.com/pratham-garg-456/Network-Monitor/util/logging"
	"go.uber.org/fx"
)

// unboundedStop is the stop timeout used when agents are waited for
// without limit.
const unboundedStop = 24 * time.Hour

type Params struct {
	// Config is the application config
	Config config.Config

	// Source yields the interfaces to monitor
	Source supervisor.InterfaceSource

	// Executable is the agent command used if none is configured
	Executable string

	// Output receives the output of the agents
	Output io.Writer
}

func Module(params Params) fx.Option {
	cfg := params.Config

	supervisorConfig := cfg.SupervisorConfig(params.Executable)
	supervisorConfig.Agent.Stdout = params.Output
	supervisorConfig.Agent.Stderr = params.Output

	options := []fx.Option{
		// rename logger for module
		logging.DecorateLogger("supervise"),
		// provide event publisher
		events.Module(cfg.Events),
		// provide supervisor
		supervisor.Module(supervisorConfig, params.Source),
	}

	if cfg.Admin.Endpoint != "" {
		options = append(options, admin.Module(cfg.Admin))
	}

	if cfg.Http.Enabled {
		options = append(options,
			handler.Module(),
			server.Module(cfg.Http),
		)
	}

	return fx.Module("supervise", options...)
}

// StopTimeout returns how long the application may take to stop: the
// agents get the configured time to acknowledge and to exit, plus time
// to be killed and reaped.
func StopTimeout(stop process.StopConfig) time.Duration {
	if stop.WaitTimeout <= 0 {
		return unboundedStop
	}

	return stop.AckTimeout + stop.WaitTimeout + 5*time.Second
}
