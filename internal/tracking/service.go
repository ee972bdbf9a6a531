package tracking

import (
	"time"

	"cargo-tracker/internal/logger"
)

// Service owns the in-memory tracking state and its background sweep.
type Service struct {
	Registry    *Registry
	Connections *ConnectionManager
	Monitor     *StalenessMonitor
}

func NewService(sweepInterval, staleTimeout time.Duration, opts ...RegistryOption) *Service {
	registry := NewRegistry(opts...)
	connections := NewConnectionManager(registry)

	return &Service{
		Registry:    registry,
		Connections: connections,
		Monitor:     NewStalenessMonitor(registry, connections, sweepInterval, staleTimeout),
	}
}

func (s *Service) Start() {
	s.Monitor.Start()
}

func (s *Service) Stop() {
	s.Monitor.Stop()
	logger.Info("Tracking service stopped")
}
