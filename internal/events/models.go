package events

import "time"

// Type names a supervisor lifecycle or alert event.
type Type string

const (
	AgentSpawned       Type = "agent.spawned"
	AgentConnected     Type = "agent.connected"
	AgentDisconnected  Type = "agent.disconnected"
	AgentExited        Type = "agent.exited"
	LinkDown           Type = "link.down"
	SupervisorShutdown Type = "supervisor.shutdown"
)

// SubjectPrefix is prepended to the event type to form the subject an
// event is published on.
const SubjectPrefix = "netmon.events."

// Event is the payload published for every notable transition.
type Event struct {
	Type      Type      `json:"type"`
	Interface string    `json:"interface,omitempty"`
	Slot      int       `json:"slot"`
	Pid       int       `json:"pid,omitempty"`
	ExitCode  *int      `json:"exit_code,omitempty"`
	Time      time.Time `json:"time"`
}

// Subject returns the subject the event is published on.
func (e Event) Subject() string {
	return SubjectPrefix + string(e.Type)
}

type Config struct {
	// NatsURL is the url of the nats server events are published to.
	// Publishing is disabled if empty.
	NatsURL string `conf:"nats_url"`
}
