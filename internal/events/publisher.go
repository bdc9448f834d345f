package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher fans events out to interested parties. Publishing never
// blocks the caller on delivery and never fails it.
type Publisher interface {
	Publish(Event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) Publish(Event) {}

// NatsPublisher publishes events as json messages on a nats connection.
type NatsPublisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

var _ Publisher = (*NatsPublisher)(nil)

// NewNatsPublisher connects to the nats server at url.
func NewNatsPublisher(url string, log *zap.Logger) (*NatsPublisher, error) {
	log = log.Named("events").With(zap.String("url", url))

	conn, err := nats.Connect(url,
		nats.Name("netmon"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("disconnected from nats", zap.Error(err))
		}),
		nats.ReconnectHandler(func(*nats.Conn) {
			log.Info("reconnected to nats")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &NatsPublisher{conn: conn, log: log}, nil
}

func (p *NatsPublisher) Publish(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	log := p.log.With(zap.String("subject", event.Subject()))

	data, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to marshal event", zap.Error(err))
		return
	}

	if err := p.conn.Publish(event.Subject(), data); err != nil {
		log.Warn("failed to publish event", zap.Error(err))
	}
}

// Flush blocks until the server has processed all buffered events.
func (p *NatsPublisher) Flush() error {
	return p.conn.Flush()
}

// Close flushes pending events and closes the connection.
func (p *NatsPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
