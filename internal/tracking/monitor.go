package tracking

import (
	"sync"
	"time"

	"cargo-tracker/internal/logger"
	"cargo-tracker/internal/metrics"

	"go.uber.org/zap"
)

// StalenessMonitor periodically deactivates devices that have stopped reporting.
type StalenessMonitor struct {
	registry    *Registry
	connections *ConnectionManager
	interval    time.Duration
	timeout     time.Duration

	mu       sync.Mutex
	stopChan chan struct{}
	doneChan chan struct{}
	running  bool
}

func NewStalenessMonitor(registry *Registry, connections *ConnectionManager, interval, timeout time.Duration) *StalenessMonitor {
	return &StalenessMonitor{
		registry:    registry,
		connections: connections,
		interval:    interval,
		timeout:     timeout,
	}
}

func (m *StalenessMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	m.running = true
	m.stopChan = make(chan struct{})
	m.doneChan = make(chan struct{})

	logger.Info("Staleness monitor started",
		zap.Duration("interval", m.interval),
		zap.Duration("timeout", m.timeout),
	)

	go m.run(m.stopChan, m.doneChan)
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (m *StalenessMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopChan)
	done := m.doneChan
	m.mu.Unlock()

	<-done
	logger.Info("Staleness monitor stopped")
}

func (m *StalenessMonitor) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.SweepOnce()
		case <-stop:
			return
		}
	}
}

// SweepOnce runs a single staleness pass and returns the ids it deactivated.
func (m *StalenessMonitor) SweepOnce() []string {
	stale := m.registry.Sweep(m.registry.now(), m.timeout)

	for _, deviceID := range stale {
		logger.Info("GPS device marked inactive",
			zap.String("device_id", deviceID),
			zap.Duration("timeout", m.timeout),
			zap.String("event", "device_stale"),
		)
	}
	metrics.DevicesMarkedStale.Add(float64(len(stale)))

	total, active := m.registry.Counts()
	connected := 0
	if m.connections != nil {
		connected = m.connections.Count()
	}
	metrics.SetDeviceCounts(total, active, connected)

	return stale
}
