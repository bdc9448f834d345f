package supervisor_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pratham-garg-456/Network-Monitor/internal/agent"
	"github.com/pratham-garg-456/Network-Monitor/internal/netif"
	"github.com/pratham-garg-456/Network-Monitor/internal/protocol"
	"github.com/pratham-garg-456/Network-Monitor/internal/supervisor"
	"go.uber.org/zap"
)

const (
	// testAgentEnv makes the test binary act as an agent process.
	testAgentEnv = "NETMON_SUPERVISOR_TEST_AGENT"

	// lateAgentEnv names the interface whose agent connects late.
	lateAgentEnv = "NETMON_TEST_LATE"

	// downAgentEnv names the interface whose link is reported down.
	downAgentEnv = "NETMON_TEST_DOWN"

	lateAgentDelay = time.Second
)

func TestMain(m *testing.M) {
	if os.Getenv(testAgentEnv) == "1" {
		os.Exit(runTestAgent(os.Args[len(os.Args)-1]))
	}

	os.Exit(m.Run())
}

func runTestAgent(iface string) int {
	if os.Getenv(lateAgentEnv) == iface {
		time.Sleep(lateAgentDelay)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := protocol.Dial(ctx, os.Getenv(supervisor.SocketEnv))
	if err != nil {
		return 1
	}

	var stats netif.StatsReader = upStats{}
	if os.Getenv(downAgentEnv) == iface {
		stats = downStats{}
	}

	a, err := agent.New(agent.Params{
		Interface: iface,
		Conn:      conn,
		Stats:     stats,
		Log:       zap.NewNop(),
	})
	if err != nil {
		conn.Close()
		return 1
	}

	if err := a.Run(ctx); err != nil {
		return 1
	}

	return 0
}

type downStats struct{}

func (downStats) Read(iface, counter string) string {
	if counter == netif.CounterOperState {
		return netif.OperStateDown
	}
	return "0"
}
