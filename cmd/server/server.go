package main

import (
	"time"

	"github.com/mimamori/mimamori/internal/config"
	"github.com/mimamori/mimamori/internal/infrastructure"
	"github.com/mimamori/mimamori/internal/scheduler"
)

type Server struct {
	infra     *infrastructure.Infrastructure
	modules   *Modules
	scheduler *scheduler.Scheduler
	http      *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(
			modules.Domain.Orgs,
			modules.Domain.Scan,
			infra.Notifier,
			cfg.Notify.Channel,
			cfg.Scheduler.TickDuration(),
			infra.Logger,
		)
	}

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"scheduler", cfg.Scheduler.Enabled,
	)

	return &Server{
		infra:     infra,
		modules:   modules,
		scheduler: sched,
		http:      newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	if s.scheduler != nil {
		s.scheduler.Start(s.infra.Lifecycle)
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
