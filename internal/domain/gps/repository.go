package gps

import (
	"context"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

// Repository is the persistence collaborator. Bookings and vehicles are owned
// by the wider platform and only read here.
type Repository interface {
	GetLiveTracking(ctx context.Context, bookingID int64) (*LiveTracking, error)
	CreateLiveTracking(ctx context.Context, record *LiveTracking) (*LiveTracking, error)
	UpdateLiveTracking(ctx context.Context, bookingID int64, update LiveTrackingUpdate) (*LiveTracking, error)
	// UpsertLiveTracking inserts create, or applies update to the existing row
	// for create.BookingID, in a single statement.
	UpsertLiveTracking(ctx context.Context, create *LiveTracking, update LiveTrackingUpdate) (*LiveTracking, error)

	// CreateTrackingEvent returns the existing row when one with the same
	// (BookingID, Status) is already stored.
	CreateTrackingEvent(ctx context.Context, event *TrackingEvent) (*TrackingEvent, error)
	ListTrackingEvents(ctx context.Context, bookingID int64) ([]*TrackingEvent, error)

	GetBooking(ctx context.Context, bookingID int64) (*Booking, error)
	GetVehicleByID(ctx context.Context, vehicleID int64) (*Vehicle, error)

	Health(ctx context.Context) error
}
