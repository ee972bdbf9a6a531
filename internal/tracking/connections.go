package tracking

import (
	"fmt"
	"sync"

	"cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/logger"

	"go.uber.org/zap"
)

// Handle is a live transport a device can be reached through.
// Implementations must be comparable (pointer types).
type Handle interface {
	Send(payload interface{}) error
}

// ConnectionManager maps each device to at most one live handle.
type ConnectionManager struct {
	mu       sync.RWMutex
	byDevice map[string]Handle
	byHandle map[Handle]string
	registry *Registry
}

func NewConnectionManager(registry *Registry) *ConnectionManager {
	return &ConnectionManager{
		byDevice: make(map[string]Handle),
		byHandle: make(map[Handle]string),
		registry: registry,
	}
}

// Bind points deviceID at h. A previous handle for the device is dropped from
// the map but not closed. If h was bound to another device, that device is
// released and marked inactive.
func (m *ConnectionManager) Bind(deviceID string, h Handle) {
	m.mu.Lock()

	if prev, ok := m.byDevice[deviceID]; ok && prev != h {
		delete(m.byHandle, prev)
		logger.Debug("Superseding previous GPS connection",
			zap.String("device_id", deviceID),
		)
	}

	released := ""
	if prevID, ok := m.byHandle[h]; ok && prevID != deviceID {
		if m.byDevice[prevID] == h {
			delete(m.byDevice, prevID)
			released = prevID
		}
	}

	m.byDevice[deviceID] = h
	m.byHandle[h] = deviceID
	m.mu.Unlock()

	if released == "" {
		return
	}
	if m.registry != nil {
		m.registry.MarkDisconnected(released)
	}
	logger.Info("GPS device released by re-register on its connection",
		zap.String("device_id", released),
		zap.String("new_device_id", deviceID),
		zap.String("event", "device_disconnected"),
	)
}

// Unbind removes the binding held by h, if h is still the device's current
// handle, and marks the device inactive. It returns the affected device id.
func (m *ConnectionManager) Unbind(h Handle) (string, bool) {
	m.mu.Lock()
	deviceID, ok := m.byHandle[h]
	if !ok {
		m.mu.Unlock()
		return "", false
	}
	delete(m.byHandle, h)
	if m.byDevice[deviceID] == h {
		delete(m.byDevice, deviceID)
	}
	m.mu.Unlock()

	if m.registry != nil {
		m.registry.MarkDisconnected(deviceID)
	}

	logger.Info("GPS device disconnected",
		zap.String("device_id", deviceID),
		zap.String("event", "device_disconnected"),
	)

	return deviceID, true
}

// Send pushes payload to the device's bound handle.
func (m *ConnectionManager) Send(deviceID string, payload interface{}) error {
	m.mu.RLock()
	h, ok := m.byDevice[deviceID]
	m.mu.RUnlock()

	if !ok {
		return gps.ErrNotConnected
	}
	if err := h.Send(payload); err != nil {
		return fmt.Errorf("send to device %s: %w", deviceID, err)
	}
	return nil
}

func (m *ConnectionManager) IsConnected(deviceID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.byDevice[deviceID]
	return ok
}

func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.byDevice)
}
