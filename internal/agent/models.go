package agent

import (
	"errors"
	"time"
)

// PollInterval is the fixed cadence of the monitoring loop.
const PollInterval = time.Second

var (
	ErrMissingInterface  = errors.New("usage: <interface_name>")
	ErrMissingConnection = errors.New("no connection to the supervisor")
)

// State is the phase an agent is in.
type State int32

const (
	// StateHandshake waits for the supervisor's first command.
	StateHandshake State = iota

	// StateMonitoring polls the interface every PollInterval.
	StateMonitoring

	// StateDone is entered once Run returned.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateHandshake:
		return "handshake"
	case StateMonitoring:
		return "monitoring"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

type Config struct {
	// Interface is the name of the monitored interface.
	Interface string `conf:"interface"`

	// Socket is the path of the supervisor's rendezvous endpoint.
	Socket string `conf:"socket"`

	// StatsRoot is the directory holding per-interface counters.
	StatsRoot string `conf:"stats_root"`
}
