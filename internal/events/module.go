package events

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type PublisherParams struct {
	fx.In

	Config Config
	Log    *zap.Logger
}

// NewPublisher returns a nats publisher if a server is configured, and a
// publisher that drops all events otherwise.
func NewPublisher(params PublisherParams, lc fx.Lifecycle) (Publisher, error) {
	if params.Config.NatsURL == "" {
		return NopPublisher{}, nil
	}

	publisher, err := NewNatsPublisher(params.Config.NatsURL, params.Log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.StopHook(func(context.Context) error {
		return publisher.Close()
	}))

	return publisher, nil
}

func Module(config Config) fx.Option {
	return fx.Module(
		"events",
		fx.Supply(config),
		fx.Provide(NewPublisher),
	)
}
