package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

type Logger interface {
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

type (
	Service interface {
		Init() error
		Run(ctx context.Context)
		Stop()
	}
	Services interface {
		AddService(service ...Service)
		Run(ctx context.Context) error
	}
	// Manager starts services in the order they were added and stops them in
	// reverse, so a service can rely on everything added before it.
	Manager struct {
		log      Logger
		services []Service
	}
)

func NewManager(log Logger) Services {
	return &Manager{log: log}
}

func (s *Manager) AddService(service ...Service) {
	s.services = append(s.services, service...)
}

// Run blocks until ctx is done or the process is interrupted.
func (s *Manager) Run(ctx context.Context) error {
	s.log.Info("going to start %d services", len(s.services))
	for count, service := range s.services {
		if err := service.Init(); err != nil {
			s.stop(s.services[:count])
			return fmt.Errorf("failed to init service %d: %w", count, err)
		}
		go service.Run(ctx)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		s.log.Info("received %s", sig)
	case <-ctx.Done():
	}
	s.stop(s.services)

	return nil
}

func (s *Manager) stop(services []Service) {
	s.log.Info("going to stop")
	for i := len(services) - 1; i >= 0; i-- {
		services[i].Stop()
	}
}
