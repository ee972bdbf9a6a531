package ingestion

import (
	"context"
	"errors"
	"time"

	"cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/logger"
	"cargo-tracker/internal/metrics"
	"cargo-tracker/internal/tracking"

	"go.uber.org/zap"
)

// Dispatcher applies device messages to the tracking state. Every transport
// goes through it so register/location/status/heartbeat mean the same thing
// regardless of how they arrived.
type Dispatcher struct {
	registry    *tracking.Registry
	connections *tracking.ConnectionManager
	processor   *Processor
	config      DeviceConfig
	now         func() time.Time
}

func NewDispatcher(svc *tracking.Service, processor *Processor, config DeviceConfig) *Dispatcher {
	return &Dispatcher{
		registry:    svc.Registry,
		connections: svc.Connections,
		processor:   processor,
		config:      config,
		now:         time.Now,
	}
}

// Register records the device and, when h is non-nil, binds it as the
// device's live handle.
func (d *Dispatcher) Register(msg *RegisterMessage, transport string, h tracking.Handle) (gps.Device, *RegisteredMessage, error) {
	metrics.MessagesReceived.WithLabelValues(transport, MessageTypeRegister).Inc()

	if err := ValidateRegister(msg); err != nil {
		d.reject(transport, "validation", msg.DeviceID, err)
		return gps.Device{}, nil, err
	}

	device := d.registry.Register(msg.Registration())
	if h != nil {
		d.connections.Bind(device.DeviceID, h)
	}

	logger.Debug("Register handled",
		zap.String("device_id", device.DeviceID),
		zap.String("transport", transport),
		zap.Bool("bound", h != nil),
	)

	return device, &RegisteredMessage{
		Type:      MessageTypeRegistered,
		DeviceID:  device.DeviceID,
		Timestamp: d.now(),
		Config:    d.config,
	}, nil
}

// Location validates and processes one sample. Samples from unregistered
// devices are dropped before validation so they never produce an error reply.
func (d *Dispatcher) Location(ctx context.Context, loc *gps.Location, transport string) (Outcome, error) {
	metrics.MessagesReceived.WithLabelValues(transport, MessageTypeLocation).Inc()

	if loc != nil && !d.known(loc.DeviceID) {
		return d.processor.Process(ctx, loc), nil
	}

	if err := ValidateLocation(loc); err != nil {
		deviceID := ""
		if loc != nil {
			deviceID = loc.DeviceID
		}
		d.reject(transport, "validation", deviceID, err)
		return "", err
	}

	return d.processor.Process(ctx, loc), nil
}

// Status merges battery/signal readings into the device record.
func (d *Dispatcher) Status(msg *StatusMessage, transport string) error {
	metrics.MessagesReceived.WithLabelValues(transport, MessageTypeStatus).Inc()

	if !d.known(msg.DeviceID) {
		metrics.MessagesRejected.WithLabelValues(transport, "unknown_device").Inc()
		return gps.ErrUnknownDevice
	}

	if err := ValidateStatus(&msg.Data); err != nil {
		d.reject(transport, "validation", msg.DeviceID, err)
		return err
	}

	_, err := d.registry.Touch(msg.DeviceID, msg.Data)
	if errors.Is(err, gps.ErrUnknownDevice) {
		metrics.MessagesRejected.WithLabelValues(transport, "unknown_device").Inc()
	}
	return err
}

// Heartbeat refreshes liveness only.
func (d *Dispatcher) Heartbeat(msg *HeartbeatMessage, transport string) error {
	metrics.MessagesReceived.WithLabelValues(transport, MessageTypeHeartbeat).Inc()

	_, err := d.registry.Touch(msg.DeviceID, gps.StatusUpdate{})
	if errors.Is(err, gps.ErrUnknownDevice) {
		metrics.MessagesRejected.WithLabelValues(transport, "unknown_device").Inc()
	}
	return err
}

// Processor exposes the location processor, e.g. for the health endpoint.
func (d *Dispatcher) Processor() *Processor {
	return d.processor
}

func (d *Dispatcher) known(deviceID string) bool {
	_, ok := d.registry.Get(deviceID)
	return ok
}

func (d *Dispatcher) reject(transport, reason, deviceID string, err error) {
	metrics.MessagesRejected.WithLabelValues(transport, reason).Inc()
	d.processor.metrics.Update(func(m *IngestMetrics) { m.MessagesRejected++ })

	logger.Warn("Device message rejected",
		zap.String("device_id", deviceID),
		zap.String("transport", transport),
		zap.String("reason", reason),
		zap.Error(err),
	)
}
