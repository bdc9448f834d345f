package supervisor

import "github.com/pratham-garg-456/Network-Monitor/internal/process"

// DefaultSocket is the rendezvous endpoint used if none is configured.
const DefaultSocket = "/tmp/netmon.sock"

type Config struct {
	// Socket is the path of the unix socket agents connect to.
	Socket string `conf:"socket"`

	// Agent describes how agents are spawned. The interface name is
	// appended to the arguments, and the socket path is passed in the
	// environment.
	Agent process.StartConfig `conf:"agent"`

	// Stop controls how long shutdown waits for agents.
	Stop process.StopConfig `conf:"stop"`
}
