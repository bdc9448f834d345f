package supervisor

import (
	"time"

	"github.com/pratham-garg-456/Network-Monitor/internal/process"
	"github.com/pratham-garg-456/Network-Monitor/internal/protocol"
)

// Slot tracks one spawned agent and the connection assigned to it.
// Slots are only touched by the goroutine owning the supervisor loop.
type Slot struct {
	Index     int
	Interface string

	conn *protocol.Conn
	gen  uint64

	worker    process.Worker
	pid       int
	spawnedAt time.Time

	monitoring bool
	acked      bool
	alerts     int

	signaled bool
	waited   bool

	exited bool
	exit   process.ExitEvent
}

// Empty reports whether the slot can take a new connection.
func (s *Slot) Empty() bool {
	return s.conn == nil
}

func (s *Slot) status() SlotStatus {
	status := SlotStatus{
		Index:      s.Index,
		Interface:  s.Interface,
		Pid:        s.pid,
		Connected:  s.conn != nil,
		Monitoring: s.conn != nil && s.monitoring,
		Alerts:     s.alerts,
		Exited:     s.exited,
	}

	if s.exited {
		status.ExitCode = s.exit.Code
	}

	return status
}
