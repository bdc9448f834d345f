package supervisor

import (
	"errors"
	"time"
)

var (
	ErrInvalidInterfaceCount = errors.New("invalid number of interfaces")
	ErrNotStarted            = errors.New("supervisor not started")
	ErrAlreadyStarted        = errors.New("supervisor already started")
	ErrAlreadyRunning        = errors.New("supervisor already running")
	ErrStopped               = errors.New("supervisor stopped")
)

// HandshakeTimeout bounds the time a new connection may take to send
// its first message.
const HandshakeTimeout = 5 * time.Second

// ExitGrace is how long agents that answered the shutdown request with
// done may take to exit before they are interrupted.
const ExitGrace = 2 * time.Second

// SocketEnv is the environment variable an agent reads the rendezvous
// endpoint from.
const SocketEnv = "NETMON_SOCKET"

// SlotStatus describes a single agent slot.
type SlotStatus struct {
	Index      int    `json:"index" yaml:"index"`
	Interface  string `json:"interface" yaml:"interface"`
	Pid        int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Connected  bool   `json:"connected" yaml:"connected"`
	Monitoring bool   `json:"monitoring" yaml:"monitoring"`
	Alerts     int    `json:"alerts" yaml:"alerts"`
	Exited     bool   `json:"exited" yaml:"exited"`
	ExitCode   *int   `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
}

// Status is a point-in-time view of the supervisor.
type Status struct {
	Socket   string       `json:"socket" yaml:"socket"`
	Started  time.Time    `json:"started" yaml:"started"`
	Stopping bool         `json:"stopping" yaml:"stopping"`
	Rejected int          `json:"rejected" yaml:"rejected"`
	Slots    []SlotStatus `json:"slots" yaml:"slots"`
}

// Connected returns the number of slots holding a live connection.
func (s Status) Connected() int {
	n := 0
	for _, slot := range s.Slots {
		if slot.Connected {
			n++
		}
	}
	return n
}

// StatusProvider exposes the latest supervisor status.
type StatusProvider interface {
	Status() Status
}
