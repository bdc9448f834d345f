package admin

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pratham-garg-456/Network-Monitor/internal/protocol"
	"github.com/pratham-garg-456/Network-Monitor/internal/supervisor"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Server serves the admin api over json-rpc on a unix socket.
type Server struct {
	endpoint string

	rpc      *rpc.Server
	listener net.Listener

	stopOnce sync.Once
	done     chan struct{}

	log *zap.Logger
}

func NewServer(endpoint string, status supervisor.StatusProvider, log *zap.Logger) (*Server, error) {
	server := rpc.NewServer()

	if err := server.RegisterName(Namespace, &API{status: status}); err != nil {
		return nil, fmt.Errorf("failed to register admin api: %w", err)
	}

	return &Server{
		endpoint: endpoint,
		rpc:      server,
		done:     make(chan struct{}),
		log:      log.Named("admin").With(zap.String("endpoint", endpoint)),
	}, nil
}

// Start binds the admin socket and serves requests in the background.
func (s *Server) Start() error {
	listener, err := protocol.Listen(s.endpoint)
	if err != nil {
		return fmt.Errorf("failed to bind admin socket: %w", err)
	}

	s.listener = listener

	go func() {
		defer close(s.done)

		if err := s.rpc.ServeListener(listener); err != nil {
			s.log.Debug("stopped serving", zap.Error(err))
		}
	}()

	s.log.Info("serving admin api")

	return nil
}

// Stop closes the admin socket and all open client connections.
func (s *Server) Stop() error {
	var err error

	s.stopOnce.Do(func() {
		if s.listener == nil {
			return
		}

		s.listener.Close()
		s.rpc.Stop()
		<-s.done

		err = protocol.Unlink(s.endpoint)
	})

	return err
}

type ServerParams struct {
	fx.In

	Config Config
	Status supervisor.StatusProvider
	Log    *zap.Logger
}

func NewLifecycleServer(params ServerParams, lc fx.Lifecycle) (*Server, error) {
	server, err := NewServer(params.Config.Endpoint, params.Status, params.Log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return server.Start()
		},
		OnStop: func(context.Context) error {
			return server.Stop()
		},
	})

	return server, nil
}
