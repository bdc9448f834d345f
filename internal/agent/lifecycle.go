package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pratham-garg-456/Network-Monitor/internal/netif"
	"github.com/pratham-garg-456/Network-Monitor/internal/protocol"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type LifecycleParams struct {
	fx.In

	Config     Config
	Stats      netif.StatsReader
	Link       netif.LinkController
	Output     io.Writer `name:"snapshots"`
	Shutdowner fx.Shutdowner
	Log        *zap.Logger
}

// Runner connects an Agent to the supervisor when the application
// starts and stops the application once the agent is done.
type Runner struct {
	params LifecycleParams

	cancel context.CancelFunc
	done   chan struct{}

	log *zap.Logger
}

func NewLifecycleAgent(params LifecycleParams, lc fx.Lifecycle) *Runner {
	r := &Runner{
		params: params,
		done:   make(chan struct{}),
		log:    params.Log.Named("runner"),
	}

	lc.Append(fx.Hook{
		OnStart: r.Start,
		OnStop:  r.Stop,
	})

	return r
}

// Start connects to the supervisor and runs the agent in the
// background. A connection failure is fatal.
func (r *Runner) Start(ctx context.Context) error {
	if r.params.Config.Interface == "" {
		return ErrMissingInterface
	}

	conn, err := protocol.Dial(ctx, r.params.Config.Socket)
	if err != nil {
		return fmt.Errorf("error connecting to network monitor: %w", err)
	}

	a, err := New(Params{
		Interface: r.params.Config.Interface,
		Conn:      conn,
		Stats:     r.params.Stats,
		Link:      r.params.Link,
		Output:    r.params.Output,
		Log:       r.params.Log,
	})
	if err != nil {
		conn.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	go func() {
		defer close(r.done)

		exitCode := 0
		if err := a.Run(runCtx); err != nil {
			r.log.Error("agent failed", zap.Error(err))
			exitCode = 1
		}

		// the agent is done, an interrupt from the supervisor arriving
		// while the application stops must not change the exit code
		signal.Ignore(os.Interrupt)

		// ask the application to stop, the error is irrelevant
		// if it is already shutting down
		_ = r.params.Shutdowner.Shutdown(fx.ExitCode(exitCode))
	}()

	return nil
}

// Stop interrupts the agent and waits for it to notify the supervisor.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel == nil {
		return nil
	}

	r.cancel()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
