package ingestion

import (
	"context"
	"fmt"
	"time"

	"cargo-tracker/internal/broadcast"
	"cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/logger"
	"cargo-tracker/internal/metrics"
	"cargo-tracker/internal/tracking"

	"go.uber.org/zap"
)

// Outcome is how far a location sample got through processing.
type Outcome string

const (
	OutcomeUnknownDevice Outcome = "unknown_device"
	OutcomeUntracked     Outcome = "untracked"
	OutcomeTracked       Outcome = "tracked"
	// OutcomeDegraded means liveness was refreshed but persistence failed.
	OutcomeDegraded Outcome = "degraded"
)

const (
	defaultETAHorizon       = 4 * time.Hour
	defaultBroadcastTimeout = 5 * time.Second
)

// Processor turns location samples into live tracking projections and
// journey events.
type Processor struct {
	registry    *tracking.Registry
	repo        gps.Repository
	estimator   ProgressEstimator
	geocoder    Geocoder
	broadcaster broadcast.Broadcaster

	etaHorizon       time.Duration
	broadcastTimeout time.Duration
	now              func() time.Time

	metrics *MetricsTracker
}

type ProcessorOption func(*Processor)

func WithEstimator(e ProgressEstimator) ProcessorOption {
	return func(p *Processor) { p.estimator = e }
}

func WithGeocoder(g Geocoder) ProcessorOption {
	return func(p *Processor) { p.geocoder = g }
}

func WithBroadcaster(b broadcast.Broadcaster) ProcessorOption {
	return func(p *Processor) { p.broadcaster = b }
}

func WithETAHorizon(d time.Duration) ProcessorOption {
	return func(p *Processor) {
		if d > 0 {
			p.etaHorizon = d
		}
	}
}

func WithBroadcastTimeout(d time.Duration) ProcessorOption {
	return func(p *Processor) {
		if d > 0 {
			p.broadcastTimeout = d
		}
	}
}

func WithProcessorClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

// NewProcessor creates a processor. Without options it uses the random
// progress estimator, coordinate geocoding and log-only broadcasts.
func NewProcessor(registry *tracking.Registry, repo gps.Repository, opts ...ProcessorOption) *Processor {
	p := &Processor{
		registry:         registry,
		repo:             repo,
		geocoder:         CoordinateGeocoder{},
		broadcaster:      broadcast.NewLog(),
		etaHorizon:       defaultETAHorizon,
		broadcastTimeout: defaultBroadcastTimeout,
		now:              time.Now,
		metrics:          NewMetricsTracker(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.estimator == nil {
		p.estimator = NewRandomEstimator(p.etaHorizon)
	}
	return p
}

// Process handles one sample. Failures after the liveness refresh are logged
// and reflected in the outcome; they are never returned to the transport.
func (p *Processor) Process(ctx context.Context, loc *gps.Location) Outcome {
	start := time.Now()
	outcome := p.process(ctx, loc)
	elapsed := time.Since(start)

	metrics.RecordLocation(string(outcome), elapsed)
	p.metrics.ObserveProcessing(elapsed, p.now())

	return outcome
}

func (p *Processor) process(ctx context.Context, loc *gps.Location) Outcome {
	if _, ok := p.registry.Get(loc.DeviceID); !ok {
		logger.Warn("Location from unregistered GPS device dropped",
			zap.String("device_id", loc.DeviceID),
			zap.String("event", "location_dropped"),
		)
		p.metrics.Update(func(m *IngestMetrics) { m.UnknownDevice++ })
		return OutcomeUnknownDevice
	}

	device, err := p.registry.Touch(loc.DeviceID, gps.StatusUpdate{})
	if err != nil {
		p.metrics.Update(func(m *IngestMetrics) { m.UnknownDevice++ })
		return OutcomeUnknownDevice
	}

	if device.BookingID == nil {
		logger.Debug("Location recorded for device without booking",
			zap.String("device_id", device.DeviceID),
		)
		p.metrics.Update(func(m *IngestMetrics) { m.Untracked++ })
		return OutcomeUntracked
	}
	bookingID := *device.BookingID
	log := logger.WithDevice(device.DeviceID).With(zap.Int64("booking_id", bookingID))

	now := p.now()
	speedKmh := loc.SpeedKmh()
	progress := p.estimator.Estimate(ctx, loc, bookingID)

	create := &gps.LiveTracking{
		BookingID:             bookingID,
		CurrentLatitude:       loc.Latitude,
		CurrentLongitude:      loc.Longitude,
		CurrentSpeed:          speedKmh,
		Heading:               loc.Heading,
		Altitude:              loc.Altitude,
		Accuracy:              loc.Accuracy,
		RouteProgress:         0,
		DistanceToDestination: progress.DistanceKm,
		EstimatedArrival:      now.Add(p.etaHorizon),
		IsActive:              true,
		LastUpdate:            now,
	}
	update := gps.LiveTrackingUpdate{
		CurrentLatitude:       loc.Latitude,
		CurrentLongitude:      loc.Longitude,
		CurrentSpeed:          speedKmh,
		Heading:               loc.Heading,
		Altitude:              loc.Altitude,
		Accuracy:              loc.Accuracy,
		RouteProgress:         progress.RouteProgress,
		DistanceToDestination: progress.DistanceKm,
		EstimatedArrival:      progress.EstimatedArrival,
		IsActive:              true,
		LastUpdate:            now,
	}

	record, err := p.repo.UpsertLiveTracking(ctx, create, update)
	if err != nil {
		log.Error("Failed to upsert live tracking", zap.Error(err))
		metrics.StoreOperationErrors.WithLabelValues("upsert_live_tracking").Inc()
		p.metrics.Update(func(m *IngestMetrics) { m.PersistenceFailures++ })
		return OutcomeDegraded
	}
	p.metrics.Update(func(m *IngestMetrics) { m.TrackingUpserts++ })

	outcome := OutcomeTracked

	eventTime := loc.Timestamp
	if eventTime.IsZero() {
		eventTime = now
	}
	event, err := p.repo.CreateTrackingEvent(ctx, &gps.TrackingEvent{
		BookingID:    bookingID,
		Status:       gps.EventStatusInTransit,
		Location:     p.geocoder.ReverseGeocode(ctx, loc.Latitude, loc.Longitude),
		Latitude:     loc.Latitude,
		Longitude:    loc.Longitude,
		Notes:        fmt.Sprintf("Live GPS update from device %s", device.DeviceID),
		IsLiveUpdate: true,
		ActualSpeed:  speedKmh,
		Timestamp:    eventTime,
	})
	if err != nil {
		log.Error("Failed to record tracking event", zap.Error(err))
		metrics.StoreOperationErrors.WithLabelValues("create_tracking_event").Inc()
		p.metrics.Update(func(m *IngestMetrics) { m.PersistenceFailures++ })
		event = nil
		outcome = OutcomeDegraded
	} else {
		p.metrics.Update(func(m *IngestMetrics) { m.EventsRecorded++ })
	}

	p.broadcast(ctx, log, &gps.LocationUpdate{
		BookingID: bookingID,
		DeviceID:  device.DeviceID,
		Tracking:  record,
		Event:     event,
		Timestamp: now,
	})

	return outcome
}

func (p *Processor) broadcast(ctx context.Context, log *zap.Logger, update *gps.LocationUpdate) {
	bctx, cancel := context.WithTimeout(ctx, p.broadcastTimeout)
	defer cancel()

	if err := p.broadcaster.Broadcast(bctx, update); err != nil {
		log.Warn("Tracking update broadcast failed", zap.Error(err))
		p.metrics.Update(func(m *IngestMetrics) { m.BroadcastFailures++ })
	}
}

// Metrics returns a snapshot of the ingestion counters.
func (p *Processor) Metrics() IngestMetrics {
	return p.metrics.Snapshot()
}

func (p *Processor) Tracker() *MetricsTracker {
	return p.metrics
}
