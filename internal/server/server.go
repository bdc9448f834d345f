package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type HttpServerParams struct {
	fx.In

	Context context.Context

	Config HttpConfig

	Handlers []*HttpHandler `group:"handlers"`
	Logger   *zap.Logger
}

type HttpServer struct {
	ctx    context.Context
	host   string
	port   int
	server *http.Server

	listenerLock sync.Mutex
	listener     net.Listener

	log *zap.Logger
}

func NewHttpServer(params HttpServerParams) *HttpServer {
	mux := http.NewServeMux()

	for _, handler := range params.Handlers {
		mux.Handle(handler.Name, handler.Handler)
	}

	var handler http.Handler = mux
	if params.Config.H2c {
		handler = h2c.NewHandler(mux, &http2.Server{})
	}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", params.Config.Host, params.Config.Port),
		Handler: handler,
	}

	return &HttpServer{
		ctx:    params.Context,
		host:   params.Config.Host,
		port:   params.Config.Port,
		server: server,
		log:    params.Logger.Named("http"),
	}
}

func NewLifecycleServer(params HttpServerParams, lc fx.Lifecycle) *HttpServer {
	server := NewHttpServer(params)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := server.Listen(ctx); err != nil {
				return err
			}
			go server.Serve()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
	return server
}

// Listen binds the configured address.
func (s *HttpServer) Listen(ctx context.Context) error {
	cfg := net.ListenConfig{}

	listener, err := cfg.Listen(
		ctx,
		"tcp",
		fmt.Sprintf("%s:%d", s.host, s.port),
	)
	if err != nil {
		s.log.With(zap.Error(err)).Error("failed to listen")
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.listenerLock.Lock()
	s.listener = listener
	s.listenerLock.Unlock()

	s.log.With(zap.String("address", listener.Addr().String())).Info("listening")

	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *HttpServer) Addr() net.Addr {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve handles requests on the bound listener until Shutdown.
func (s *HttpServer) Serve() error {
	s.listenerLock.Lock()
	listener := s.listener
	s.listenerLock.Unlock()

	if listener == nil {
		return errors.New("server is not listening")
	}

	s.server.BaseContext = func(net.Listener) context.Context { return s.ctx }

	if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		s.log.With(zap.Error(err)).Error("failed to serve")
		return err
	}

	return nil
}

func (s *HttpServer) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		s.log.With(zap.Error(err)).Error("failed to shutdown")
		return err
	}

	return nil
}
