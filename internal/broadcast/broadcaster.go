package broadcast

import (
	"context"
	"errors"

	"cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/logger"
	"cargo-tracker/internal/metrics"

	"go.uber.org/zap"
)

// Broadcaster notifies downstream consumers about a stored location update.
// Delivery is best effort.
type Broadcaster interface {
	Broadcast(ctx context.Context, update *gps.LocationUpdate) error
}

// Log writes updates to the structured log. It is the default sink.
type Log struct{}

func NewLog() *Log {
	return &Log{}
}

func (*Log) Broadcast(_ context.Context, update *gps.LocationUpdate) error {
	fields := []zap.Field{
		zap.Int64("booking_id", update.BookingID),
		zap.String("device_id", update.DeviceID),
		zap.String("event", "tracking_broadcast"),
	}
	if update.Tracking != nil {
		fields = append(fields,
			zap.Float64("latitude", update.Tracking.CurrentLatitude),
			zap.Float64("longitude", update.Tracking.CurrentLongitude),
			zap.Float64("speed_kmh", update.Tracking.CurrentSpeed),
		)
	}
	logger.Debug("Tracking update broadcast", fields...)
	return nil
}

type namedSink struct {
	name string
	sink Broadcaster
}

// Multi fans an update out to every sink. A failing sink does not stop the rest.
type Multi struct {
	sinks []namedSink
}

func NewMulti() *Multi {
	return &Multi{}
}

// Add registers a sink under name, used as the metrics label.
func (m *Multi) Add(name string, sink Broadcaster) *Multi {
	m.sinks = append(m.sinks, namedSink{name: name, sink: sink})
	return m
}

func (m *Multi) Len() int {
	return len(m.sinks)
}

func (m *Multi) Broadcast(ctx context.Context, update *gps.LocationUpdate) error {
	var errs []error
	for _, s := range m.sinks {
		err := s.sink.Broadcast(ctx, update)
		metrics.RecordBroadcast(s.name, err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
