package skripsihub

import (
	"context"
	"errors"
	"sync"

	"github.com/medhika/skripsihub/core"
	"github.com/medhika/skripsihub/httpapi"
	"github.com/medhika/skripsihub/internal/eventbus"
	"github.com/medhika/skripsihub/schema"
	"pkt.systems/pslog"
)

// Server composes the HTTP API and the core workspace service.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
	// Service exposes the composed workspace service for embedding callers.
	Service() core.Service
	// Bus returns the in-process event bus, or nil when not enabled.
	Bus() *eventbus.Bus
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service schema.ServiceConfig
	HTTP    httpapi.Config
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	ServiceDeps core.ServiceDeps
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP bool
	enableBus  bool
}

// WithHTTP enables the HTTP API server.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithEventBus enables the in-process event bus for embedding callers.
func WithEventBus() ServerOption {
	return func(o *serverOptions) { o.enableBus = true }
}

// New constructs a composable skripsihub server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP && !options.enableBus {
		return nil, errors.New("no services enabled")
	}

	normalized, err := schema.NormalizeServiceConfig(cfg.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = normalized

	serviceDeps := deps.ServiceDeps
	var hub *httpapi.Hub
	var bus *eventbus.Bus
	if options.enableHTTP {
		hub = httpapi.NewHub(cfg.HTTP.HubHistory)
	}
	if options.enableBus {
		bus = eventbus.New(serviceDeps.Logger)
	}

	sinks := make([]core.EventSink, 0, 3)
	if serviceDeps.EventSink != nil {
		sinks = append(sinks, serviceDeps.EventSink)
	}
	if hub != nil {
		sinks = append(sinks, hub)
	}
	if bus != nil {
		sinks = append(sinks, bus)
	}
	switch len(sinks) {
	case 0:
		serviceDeps.EventSink = nil
	case 1:
		serviceDeps.EventSink = sinks[0]
	default:
		serviceDeps.EventSink = eventFanout{sinks: sinks}
	}

	service, err := core.NewService(cfg.Service, serviceDeps)
	if err != nil {
		return nil, err
	}

	var httpSrv *httpapi.Server
	if options.enableHTTP {
		httpSrv = httpapi.NewServer(cfg.HTTP, service, hub)
	}

	return &compositeServer{
		cfg:     cfg,
		options: options,
		service: service,
		httpSrv: httpSrv,
		bus:     bus,
	}, nil
}

type compositeServer struct {
	cfg     ServerConfig
	options serverOptions
	service core.Service
	httpSrv *httpapi.Server
	bus     *eventbus.Bus
	logger  pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
}

func (s *compositeServer) Service() core.Service {
	return s.service
}

func (s *compositeServer) Bus() *eventbus.Bus {
	return s.bus
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 1)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"bus", s.options.enableBus,
		"http_addr", s.cfg.HTTP.Addr,
	)
	if s.options.enableHTTP && s.httpSrv != nil {
		go func() {
			if err := httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler()); err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-s.ctx.Done():
		log.Info("server stopped")
		return nil
	}
}
