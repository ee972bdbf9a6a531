package gps

import (
	"context"
	"errors"
	"time"

	domainGPS "cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/ingestion"
	"cargo-tracker/internal/logger"
	"cargo-tracker/internal/metrics"
	"cargo-tracker/internal/tracking"
	appErrors "cargo-tracker/pkg/errors"
	"cargo-tracker/pkg/utils"

	"go.uber.org/zap"
)

// Service implements the operator and stateless-device use cases.
type Service struct {
	tracking   *tracking.Service
	dispatcher *ingestion.Dispatcher
	repo       domainGPS.Repository

	clearPreviousBinding bool
	now                  func() time.Time
}

type Option func(*Service)

// WithClearPreviousBinding makes Assign release the booking from every other
// device first.
func WithClearPreviousBinding(enabled bool) Option {
	return func(s *Service) { s.clearPreviousBinding = enabled }
}

func NewService(svc *tracking.Service, dispatcher *ingestion.Dispatcher, repo domainGPS.Repository, opts ...Option) *Service {
	s := &Service{
		tracking:   svc,
		dispatcher: dispatcher,
		repo:       repo,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterDevice handles a stateless registration. No connection is bound.
func (s *Service) RegisterDevice(req *ingestion.RegisterMessage) (domainGPS.Device, error) {
	device, _, err := s.dispatcher.Register(req, ingestion.TransportHTTP, nil)
	return device, err
}

// ReportLocation handles one stateless location sample. Samples from unknown
// devices are accepted and dropped.
func (s *Service) ReportLocation(ctx context.Context, loc *domainGPS.Location) error {
	_, err := s.dispatcher.Location(ctx, loc, ingestion.TransportHTTP)
	return err
}

func (s *Service) ListDevices() []domainGPS.Device {
	return s.tracking.Registry.List()
}

func (s *Service) GetDevice(ctx context.Context, deviceID string) (*DeviceDetailResponse, error) {
	device, ok := s.tracking.Registry.Get(deviceID)
	if !ok {
		return nil, domainGPS.ErrUnknownDevice
	}

	resp := &DeviceDetailResponse{
		Device:    device,
		Connected: s.tracking.Connections.IsConnected(deviceID),
	}

	if device.VehicleID != nil {
		vehicle, err := s.repo.GetVehicleByID(ctx, *device.VehicleID)
		switch {
		case err == nil:
			resp.Vehicle = vehicle
		case errors.Is(err, domainGPS.ErrVehicleNotFound):
		default:
			logger.Warn("Failed to load vehicle for device",
				zap.String("device_id", deviceID),
				zap.Int64("vehicle_id", *device.VehicleID),
				zap.Error(err),
			)
		}
	}

	return resp, nil
}

// AssignBooking binds a booking to a registered device.
func (s *Service) AssignBooking(req *AssignBookingRequest) (domainGPS.Device, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return domainGPS.Device{}, validationError(err)
	}

	var (
		device   domainGPS.Device
		released []string
		err      error
	)
	if s.clearPreviousBinding {
		device, released, err = s.tracking.Registry.AssignExclusive(req.DeviceID, req.BookingID)
	} else {
		device, err = s.tracking.Registry.Assign(req.DeviceID, req.BookingID)
	}
	if err != nil {
		return domainGPS.Device{}, err
	}

	logger.Info("Booking assigned to GPS device",
		zap.String("device_id", req.DeviceID),
		zap.Int64("booking_id", req.BookingID),
		zap.Strings("released_devices", released),
		zap.String("event", "booking_assigned"),
	)

	return device, nil
}

// SendCommand pushes a command to a device over its live connection.
func (s *Service) SendCommand(req *SendCommandRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return validationError(err)
	}

	msg := ingestion.NewCommandMessage(req.Command, req.Params, s.now())
	if err := s.tracking.Connections.Send(req.DeviceID, msg); err != nil {
		result := "error"
		if errors.Is(err, domainGPS.ErrNotConnected) {
			result = "not_connected"
		}
		metrics.CommandsSent.WithLabelValues(result).Inc()
		return err
	}

	metrics.CommandsSent.WithLabelValues("sent").Inc()
	logger.Info("Command sent to GPS device",
		zap.String("device_id", req.DeviceID),
		zap.String("command", req.Command),
		zap.String("event", "command_sent"),
	)
	return nil
}

func (s *Service) GetTracking(ctx context.Context, bookingID int64) (*TrackingResponse, error) {
	record, err := s.repo.GetLiveTracking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	events, err := s.repo.ListTrackingEvents(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	return &TrackingResponse{Tracking: record, Events: events}, nil
}

func (s *Service) Health(ctx context.Context) *HealthResponse {
	total, active := s.tracking.Registry.Counts()
	connected := s.tracking.Connections.Count()
	metrics.SetDeviceCounts(total, active, connected)

	resp := &HealthResponse{
		Status:    "healthy",
		Database:  "up",
		Devices:   total,
		Active:    active,
		Connected: connected,
		Ingestion: s.dispatcher.Processor().Metrics(),
		CheckedAt: s.now(),
	}

	if err := s.repo.Health(ctx); err != nil {
		logger.Warn("Store health check failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Database = "down"
	}

	return resp
}

func validationError(err error) error {
	if field, message, ok := utils.FirstFieldError(err); ok {
		return &domainGPS.ValidationError{Field: field, Message: message}
	}
	return appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
}
