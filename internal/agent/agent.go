package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/pratham-garg-456/Network-Monitor/internal/netif"
	"github.com/pratham-garg-456/Network-Monitor/internal/protocol"
	"go.uber.org/zap"
)

type Params struct {
	// Interface is the name of the interface to monitor.
	Interface string

	// Conn is the connection to the supervisor. The agent owns it and
	// closes it when Run returns.
	Conn *protocol.Conn

	// Stats reads the interface counters.
	Stats netif.StatsReader

	// Link is used to bring the interface back up.
	Link netif.LinkController

	// Output receives the human-readable snapshot of every poll.
	// Snapshots are discarded if nil.
	Output io.Writer

	// Log is the logger to use for the agent
	Log *zap.Logger
}

// Agent watches a single interface on behalf of the supervisor.
type Agent struct {
	iface string
	conn  *protocol.Conn
	stats netif.StatsReader
	link  netif.LinkController
	out   io.Writer

	interval time.Duration
	state    atomic.Int32

	log *zap.Logger
}

type command struct {
	token protocol.Token
	err   error
}

func New(params Params) (*Agent, error) {
	if params.Interface == "" {
		return nil, ErrMissingInterface
	}

	if params.Conn == nil {
		return nil, ErrMissingConnection
	}

	out := params.Output
	if out == nil {
		out = io.Discard
	}

	return &Agent{
		iface:    params.Interface,
		conn:     params.Conn,
		stats:    params.Stats,
		link:     params.Link,
		out:      out,
		interval: PollInterval,
		log:      params.Log.Named("agent").With(zap.String("conn", params.Conn.ID())),
	}, nil
}

// State returns the current phase of the agent.
func (a *Agent) State() State {
	return State(a.state.Load())
}

// Monitoring reports whether the agent entered its monitoring loop.
func (a *Agent) Monitoring() bool {
	return a.State() == StateMonitoring
}

// Run announces the agent to the supervisor, waits for the monitor
// command and then polls the interface until the supervisor asks it to
// shut down, the connection is closed, or ctx is cancelled. A nil error
// means a graceful exit.
func (a *Agent) Run(ctx context.Context) error {
	stop := make(chan struct{})
	cmds := make(chan command)

	defer a.setState(StateDone)
	defer a.conn.Close()
	defer close(stop)

	if err := a.conn.WriteToken(protocol.Ready); err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}

	a.log.Debug("sent handshake, waiting for command")

	go a.readCommands(cmds, stop)

	for a.State() == StateHandshake {
		select {
		case <-ctx.Done():
			return a.interrupted()
		case cmd := <-cmds:
			if exit, err := a.handleCommand(cmd); exit {
				return err
			}
		}
	}

	return a.monitor(ctx, cmds)
}

// monitor polls the interface once per interval. Commands received in
// between are handled on this goroutine.
func (a *Agent) monitor(ctx context.Context, cmds <-chan command) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		if err := a.poll(ctx); err != nil {
			return err
		}

	wait:
		for {
			select {
			case <-ctx.Done():
				return a.interrupted()
			case cmd := <-cmds:
				if exit, err := a.handleCommand(cmd); exit {
					return err
				}
			case <-ticker.C:
				break wait
			}
		}
	}
}

func (a *Agent) poll(ctx context.Context) error {
	snapshot := netif.Poll(a.stats, a.iface)

	if err := snapshot.Format(a.out); err != nil {
		a.log.Debug("failed to write snapshot", zap.Error(err))
	}

	if !snapshot.Down() {
		return nil
	}

	if err := a.conn.WriteToken(protocol.LinkDown); err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}

	a.log.Warn("interface is down, attempting to bring it up")

	if a.link == nil {
		return nil
	}

	if _, err := a.link.SetUp(ctx, a.iface); err != nil {
		a.log.Error("failed to bring interface up", zap.Error(err))
	}

	return nil
}

// handleCommand applies a command from the supervisor. It reports
// whether Run should return, and with which error.
func (a *Agent) handleCommand(cmd command) (bool, error) {
	if cmd.err != nil {
		if protocol.IsClosed(cmd.err) {
			a.log.Info("connection closed by supervisor")
			return true, nil
		}
		return true, fmt.Errorf("error reading from socket: %w", cmd.err)
	}

	log := a.log.With(zap.Stringer("command", cmd.token))

	switch cmd.token {
	case protocol.Monitor:
		if a.State() != StateHandshake {
			log.Debug("already monitoring")
			return false, nil
		}

		if err := a.conn.WriteToken(protocol.Monitoring); err != nil {
			return true, fmt.Errorf("error sending message: %w", err)
		}

		a.setState(StateMonitoring)
		log.Info("monitoring")

	case protocol.ShutDown:
		log.Info("shutting down")

		if err := a.conn.WriteToken(protocol.Done); err != nil {
			return true, fmt.Errorf("error sending message: %w", err)
		}

		return true, nil

	case protocol.SetLinkUp:
		// remediation is attempted on every poll that finds the link down
		log.Debug("received remediation hint")

	default:
		log.Debug("ignoring command")
	}

	return false, nil
}

// interrupted tells the supervisor the agent is going away, without
// waiting for an acknowledgement.
func (a *Agent) interrupted() error {
	a.log.Info("interrupted, shutting down")

	if err := a.conn.WriteToken(protocol.Done); err != nil {
		a.log.Debug("failed to notify supervisor", zap.Error(err))
	}

	return nil
}

// readCommands forwards inbound tokens until the connection fails.
func (a *Agent) readCommands(cmds chan<- command, stop <-chan struct{}) {
	for {
		token, err := a.conn.ReadToken()
		if errors.Is(err, protocol.ErrUnknownToken) {
			a.log.Debug("ignoring unknown message", zap.Error(err))
			continue
		}

		select {
		case cmds <- command{token: token, err: err}:
		case <-stop:
			return
		}

		if err != nil {
			return
		}
	}
}

func (a *Agent) setState(s State) {
	a.state.Store(int32(s))
}
