package postgres

import (
	"context"
	"errors"
	"fmt"

	"cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/infrastructure/database/postgres/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackingRepository implements gps.Repository on PostgreSQL.
type TrackingRepository struct {
	db *DB
}

// NewTrackingRepository creates a new tracking repository
func NewTrackingRepository(db *DB) *TrackingRepository {
	return &TrackingRepository{db: db}
}

var _ gps.Repository = (*TrackingRepository)(nil)

func (r *TrackingRepository) GetLiveTracking(ctx context.Context, bookingID int64) (*gps.LiveTracking, error) {
	var dbModel models.LiveTrackingModel
	err := r.db.DB.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, gps.ErrTrackingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get live tracking: %w", err)
	}

	return toLiveTrackingEntity(&dbModel), nil
}

func (r *TrackingRepository) CreateLiveTracking(ctx context.Context, record *gps.LiveTracking) (*gps.LiveTracking, error) {
	dbModel := toLiveTrackingModel(record)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return nil, fmt.Errorf("failed to create live tracking: %w", err)
	}
	return toLiveTrackingEntity(dbModel), nil
}

func (r *TrackingRepository) UpdateLiveTracking(ctx context.Context, bookingID int64, update gps.LiveTrackingUpdate) (*gps.LiveTracking, error) {
	var dbModel models.LiveTrackingModel
	result := r.db.DB.WithContext(ctx).
		Model(&dbModel).
		Clauses(clause.Returning{}).
		Where("booking_id = ?", bookingID).
		Updates(updateColumns(update))

	if result.Error != nil {
		return nil, fmt.Errorf("failed to update live tracking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, gps.ErrTrackingNotFound
	}

	return toLiveTrackingEntity(&dbModel), nil
}

// UpsertLiveTracking is a single INSERT ... ON CONFLICT (booking_id) DO UPDATE.
func (r *TrackingRepository) UpsertLiveTracking(ctx context.Context, create *gps.LiveTracking, update gps.LiveTrackingUpdate) (*gps.LiveTracking, error) {
	dbModel := toLiveTrackingModel(create)

	err := r.db.DB.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "booking_id"}},
				DoUpdates: clause.Assignments(updateColumns(update)),
			},
			clause.Returning{},
		).
		Create(dbModel).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert live tracking: %w", err)
	}

	return toLiveTrackingEntity(dbModel), nil
}

// CreateTrackingEvent relies on the (booking_id, status) unique index; a
// conflicting insert is skipped and the stored row returned.
func (r *TrackingRepository) CreateTrackingEvent(ctx context.Context, event *gps.TrackingEvent) (*gps.TrackingEvent, error) {
	dbModel := toTrackingEventModel(event)

	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}, {Name: "status"}},
			DoNothing: true,
		}).
		Create(dbModel).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create tracking event: %w", err)
	}

	var stored models.TrackingEventModel
	err = r.db.DB.WithContext(ctx).
		Where("booking_id = ? AND status = ?", event.BookingID, event.Status).
		First(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load tracking event: %w", err)
	}

	return toTrackingEventEntity(&stored), nil
}

func (r *TrackingRepository) ListTrackingEvents(ctx context.Context, bookingID int64) ([]*gps.TrackingEvent, error) {
	var dbModels []models.TrackingEventModel
	err := r.db.DB.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("timestamp ASC, id ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking events: %w", err)
	}

	events := make([]*gps.TrackingEvent, len(dbModels))
	for i := range dbModels {
		events[i] = toTrackingEventEntity(&dbModels[i])
	}
	return events, nil
}

func (r *TrackingRepository) GetBooking(ctx context.Context, bookingID int64) (*gps.Booking, error) {
	var dbModel models.BookingModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", bookingID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, gps.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &gps.Booking{
		ID:                dbModel.ID,
		Status:            dbModel.Status,
		VehicleID:         dbModel.VehicleID,
		PickupLatitude:    dbModel.PickupLatitude,
		PickupLongitude:   dbModel.PickupLongitude,
		DeliveryLatitude:  dbModel.DeliveryLatitude,
		DeliveryLongitude: dbModel.DeliveryLongitude,
	}, nil
}

func (r *TrackingRepository) GetVehicleByID(ctx context.Context, vehicleID int64) (*gps.Vehicle, error) {
	var dbModel models.VehicleModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", vehicleID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, gps.ErrVehicleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	return &gps.Vehicle{
		ID:          dbModel.ID,
		PlateNumber: dbModel.PlateNumber,
		VehicleType: dbModel.VehicleType,
		Status:      dbModel.Status,
	}, nil
}

func (r *TrackingRepository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}

func updateColumns(u gps.LiveTrackingUpdate) map[string]interface{} {
	return map[string]interface{}{
		"current_latitude":        u.CurrentLatitude,
		"current_longitude":       u.CurrentLongitude,
		"current_speed":           u.CurrentSpeed,
		"heading":                 u.Heading,
		"altitude":                u.Altitude,
		"accuracy":                u.Accuracy,
		"route_progress":          u.RouteProgress,
		"distance_to_destination": u.DistanceToDestination,
		"estimated_arrival":       u.EstimatedArrival,
		"is_active":               u.IsActive,
		"last_update":             u.LastUpdate,
	}
}

func toLiveTrackingModel(t *gps.LiveTracking) *models.LiveTrackingModel {
	return &models.LiveTrackingModel{
		ID:                    t.ID,
		BookingID:             t.BookingID,
		CurrentLatitude:       t.CurrentLatitude,
		CurrentLongitude:      t.CurrentLongitude,
		CurrentSpeed:          t.CurrentSpeed,
		Heading:               t.Heading,
		Altitude:              t.Altitude,
		Accuracy:              t.Accuracy,
		RouteProgress:         t.RouteProgress,
		DistanceToDestination: t.DistanceToDestination,
		EstimatedArrival:      t.EstimatedArrival,
		IsActive:              t.IsActive,
		LastUpdate:            t.LastUpdate,
	}
}

func toLiveTrackingEntity(m *models.LiveTrackingModel) *gps.LiveTracking {
	return &gps.LiveTracking{
		ID:                    m.ID,
		BookingID:             m.BookingID,
		CurrentLatitude:       m.CurrentLatitude,
		CurrentLongitude:      m.CurrentLongitude,
		CurrentSpeed:          m.CurrentSpeed,
		Heading:               m.Heading,
		Altitude:              m.Altitude,
		Accuracy:              m.Accuracy,
		RouteProgress:         m.RouteProgress,
		DistanceToDestination: m.DistanceToDestination,
		EstimatedArrival:      m.EstimatedArrival,
		IsActive:              m.IsActive,
		LastUpdate:            m.LastUpdate,
	}
}

func toTrackingEventModel(e *gps.TrackingEvent) *models.TrackingEventModel {
	return &models.TrackingEventModel{
		BookingID:    e.BookingID,
		Status:       e.Status,
		Location:     e.Location,
		Latitude:     e.Latitude,
		Longitude:    e.Longitude,
		Notes:        e.Notes,
		IsLiveUpdate: e.IsLiveUpdate,
		ActualSpeed:  e.ActualSpeed,
		Timestamp:    e.Timestamp,
	}
}

func toTrackingEventEntity(m *models.TrackingEventModel) *gps.TrackingEvent {
	return &gps.TrackingEvent{
		ID:           m.ID,
		BookingID:    m.BookingID,
		Status:       m.Status,
		Location:     m.Location,
		Latitude:     m.Latitude,
		Longitude:    m.Longitude,
		Notes:        m.Notes,
		IsLiveUpdate: m.IsLiveUpdate,
		ActualSpeed:  m.ActualSpeed,
		Timestamp:    m.Timestamp,
	}
}
