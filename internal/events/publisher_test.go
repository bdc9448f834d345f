package events_test

import (
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/pratham-garg-456/Network-Monitor/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runServer(t *testing.T) string {
	t.Helper()

	ns, err := natsserver.NewServer(&natsserver.Options{
		Host:   "127.0.0.1",
		Port:   natsserver.RANDOM_PORT,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)

	go ns.Start()
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	require.True(t, ns.ReadyForConnections(5*time.Second), "nats server not ready")

	return ns.ClientURL()
}

func TestNatsPublisher_PublishesOnTypedSubject(t *testing.T) {
	url := runServer(t)

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()

	received := make(chan *nats.Msg, 4)
	_, err = sub.ChanSubscribe(events.SubjectPrefix+">", received)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	publisher, err := events.NewNatsPublisher(url, zap.NewNop())
	require.NoError(t, err)
	defer publisher.Close()

	publisher.Publish(events.Event{
		Type:      events.LinkDown,
		Interface: "eth0",
		Slot:      1,
		Pid:       42,
	})
	require.NoError(t, publisher.Flush())

	select {
	case msg := <-received:
		assert.Equal(t, "netmon.events.link.down", msg.Subject)

		var event events.Event
		require.NoError(t, json.Unmarshal(msg.Data, &event))
		assert.Equal(t, events.LinkDown, event.Type)
		assert.Equal(t, "eth0", event.Interface)
		assert.Equal(t, 1, event.Slot)
		assert.Equal(t, 42, event.Pid)
		assert.False(t, event.Time.IsZero())
	case <-time.After(5 * time.Second):
		t.Fatal("event not received")
	}
}

func TestNewNatsPublisher_FailsWithoutServer(t *testing.T) {
	_, err := events.NewNatsPublisher("nats://127.0.0.1:1", zap.NewNop())
	assert.Error(t, err)
}

func TestNopPublisher_DropsEvents(t *testing.T) {
	assert.NotPanics(t, func() {
		events.NopPublisher{}.Publish(events.Event{Type: events.AgentSpawned})
	})
}
