package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pratham-garg-456/Network-Monitor/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testInterval = 20 * time.Millisecond

type fakeStats struct {
	mu        sync.Mutex
	operstate string
	polls     int
}

func (s *fakeStats) Read(iface, counter string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if counter == "operstate" {
		s.polls++
		return s.operstate
	}

	return "0"
}

func (s *fakeStats) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

type mockLink struct {
	mock.Mock
}

func (m *mockLink) SetUp(ctx context.Context, iface string) (bool, error) {
	args := m.Called(ctx, iface)
	return args.Bool(0), args.Error(1)
}

type harness struct {
	agent *Agent
	raw   net.Conn
	peer  *protocol.Conn
	stats *fakeStats
	link  *mockLink

	cancel context.CancelFunc
	result chan error
}

// startAgent runs an agent against a socket served by the test, which
// plays the supervisor.
func startAgent(t *testing.T, operstate string) *harness {
	t.Helper()

	path := filepath.Join(t.TempDir(), "a.sock")

	listener, err := protocol.Listen(path)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	conn, err := protocol.Dial(context.Background(), path)
	require.NoError(t, err)

	h := &harness{
		stats:  &fakeStats{operstate: operstate},
		link:   &mockLink{},
		result: make(chan error, 1),
	}

	h.agent, err = New(Params{
		Interface: "eth0",
		Conn:      conn,
		Stats:     h.stats,
		Link:      h.link,
		Log:       zap.NewNop(),
	})
	require.NoError(t, err)
	h.agent.interval = testInterval

	select {
	case c := <-accepted:
		h.raw = c
		h.peer = protocol.NewConn(c)
	case <-time.After(2 * time.Second):
		t.Fatal("agent never connected")
	}
	t.Cleanup(func() { h.peer.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	t.Cleanup(cancel)

	go func() {
		h.result <- h.agent.Run(ctx)
	}()

	return h
}

func (h *harness) expect(t *testing.T, expected protocol.Token) {
	t.Helper()

	token, err := h.peer.ReadToken()
	require.NoError(t, err)
	require.Equal(t, expected, token)
}

func (h *harness) send(t *testing.T, token protocol.Token) {
	t.Helper()
	require.NoError(t, h.peer.WriteToken(token))
}

// handshake completes the handshake and waits for the monitoring loop.
func (h *harness) handshake(t *testing.T) {
	t.Helper()

	h.expect(t, protocol.Ready)
	h.send(t, protocol.Monitor)
	h.expect(t, protocol.Monitoring)

	require.Eventually(t, h.agent.Monitoring, time.Second, 5*time.Millisecond)
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()

	select {
	case err := <-h.result:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not return")
		return nil
	}
}

// drain reads tokens until done or the connection closes, counting
// link down alerts on the way.
func (h *harness) drain(t *testing.T) (alerts int, done bool) {
	t.Helper()

	for {
		token, err := h.peer.ReadToken()
		if err != nil {
			return alerts, done
		}

		switch token {
		case protocol.LinkDown:
			alerts++
		case protocol.Done:
			done = true
		}
	}
}

func TestNew_RequiresInterface(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrMissingInterface)
}

func TestNew_RequiresConnection(t *testing.T) {
	_, err := New(Params{Interface: "eth0", Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrMissingConnection)
}

func TestAgent_Handshake_SendsReadyAndStartsMonitoring(t *testing.T) {
	h := startAgent(t, "up")

	assert.Equal(t, StateHandshake, h.agent.State())

	h.handshake(t)

	assert.Equal(t, StateMonitoring, h.agent.State())

	h.cancel()
	assert.NoError(t, h.wait(t))
	assert.Equal(t, StateDone, h.agent.State())
}

func TestAgent_Handshake_ShutDownRepliesDone(t *testing.T) {
	h := startAgent(t, "up")

	h.expect(t, protocol.Ready)
	h.send(t, protocol.ShutDown)
	h.expect(t, protocol.Done)

	assert.NoError(t, h.wait(t))
	assert.Zero(t, h.stats.Polls(), "agent must not poll before monitoring")
}

func TestAgent_Handshake_PeerCloseTerminatesGracefully(t *testing.T) {
	h := startAgent(t, "up")

	h.expect(t, protocol.Ready)
	require.NoError(t, h.peer.Close())

	assert.NoError(t, h.wait(t))
}

func TestAgent_Handshake_InterruptNotifiesSupervisor(t *testing.T) {
	h := startAgent(t, "up")

	h.expect(t, protocol.Ready)

	h.cancel()

	h.expect(t, protocol.Done)
	assert.NoError(t, h.wait(t))
}

func TestAgent_Handshake_IgnoresUnknownMessages(t *testing.T) {
	h := startAgent(t, "up")

	h.expect(t, protocol.Ready)
	require.NoError(t, h.peer.WriteMessage([]byte("hello")))
	h.send(t, protocol.Done)
	h.send(t, protocol.Monitor)
	h.expect(t, protocol.Monitoring)

	h.cancel()
	assert.NoError(t, h.wait(t))
}

func TestAgent_Handshake_CorruptStreamIsFatal(t *testing.T) {
	h := startAgent(t, "up")

	h.expect(t, protocol.Ready)

	// a frame over the limit cannot be skipped, so the stream is lost
	_, err := fmt.Fprintf(h.raw, "Content-Length: %d\r\n\r\n", protocol.MaxMessageSize+1)
	require.NoError(t, err)

	err = h.wait(t)
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrMessageTooLarge)
}

func TestAgent_Monitoring_LinkUpSendsNoAlerts(t *testing.T) {
	h := startAgent(t, "up")

	h.handshake(t)

	require.Eventually(t, func() bool { return h.stats.Polls() >= 3 }, 2*time.Second, 5*time.Millisecond)

	h.cancel()
	require.NoError(t, h.wait(t))

	alerts, done := h.drain(t)
	assert.Zero(t, alerts)
	assert.True(t, done)
	h.link.AssertNotCalled(t, "SetUp", mock.Anything, mock.Anything)
}

func TestAgent_Monitoring_LinkDownAlertsEveryPoll(t *testing.T) {
	h := startAgent(t, "down")
	h.link.On("SetUp", mock.Anything, "eth0").Return(true, nil)

	h.handshake(t)

	for range 3 {
		h.expect(t, protocol.LinkDown)
	}

	h.cancel()
	require.NoError(t, h.wait(t))

	alerts, done := h.drain(t)
	assert.True(t, done)

	// one alert and one remediation attempt per poll
	alerts += 3
	assert.Equal(t, h.stats.Polls(), alerts)
	h.link.AssertNumberOfCalls(t, "SetUp", alerts)
}

func TestAgent_Monitoring_RemediationFailureKeepsPolling(t *testing.T) {
	h := startAgent(t, "down")
	h.link.On("SetUp", mock.Anything, "eth0").Return(false, errors.New("operation not permitted"))

	h.handshake(t)

	h.expect(t, protocol.LinkDown)
	h.expect(t, protocol.LinkDown)

	h.cancel()
	assert.NoError(t, h.wait(t))
}

func TestAgent_Monitoring_ShutDownRepliesDone(t *testing.T) {
	h := startAgent(t, "down")
	h.link.On("SetUp", mock.Anything, "eth0").Return(true, nil)

	h.handshake(t)
	h.expect(t, protocol.LinkDown)

	h.send(t, protocol.SetLinkUp)
	h.send(t, protocol.ShutDown)

	_, done := h.drain(t)
	assert.True(t, done)

	assert.NoError(t, h.wait(t))
	assert.Equal(t, StateDone, h.agent.State())
}

func TestAgent_Monitoring_PeerCloseTerminatesGracefully(t *testing.T) {
	h := startAgent(t, "up")

	h.handshake(t)
	require.NoError(t, h.peer.Close())

	assert.NoError(t, h.wait(t))
}

func TestAgent_Monitoring_WritesSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.sock")

	listener, err := protocol.Listen(path)
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		peer := protocol.NewConn(conn)
		defer peer.Close()

		if token, err := peer.ReadToken(); err != nil || token != protocol.Ready {
			return
		}
		_ = peer.WriteToken(protocol.Monitor)
		_, _ = peer.ReadToken()
		_ = peer.WriteToken(protocol.ShutDown)
		_, _ = peer.ReadToken()
	}()

	conn, err := protocol.Dial(context.Background(), path)
	require.NoError(t, err)

	out := &syncBuffer{}
	a, err := New(Params{
		Interface: "eth0",
		Conn:      conn,
		Stats:     &fakeStats{operstate: "up"},
		Output:    out,
		Log:       zap.NewNop(),
	})
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "Interface: eth0 state: ")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
