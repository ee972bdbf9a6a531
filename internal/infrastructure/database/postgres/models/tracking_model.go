package models

import (
	"time"
)

// LiveTrackingModel is the per-booking position projection. One row per booking.
type LiveTrackingModel struct {
	ID                    int64     `gorm:"primaryKey;autoIncrement"`
	BookingID             int64     `gorm:"not null;uniqueIndex"`
	CurrentLatitude       float64   `gorm:"type:double precision;not null"`
	CurrentLongitude      float64   `gorm:"type:double precision;not null"`
	CurrentSpeed          float64   `gorm:"type:double precision;not null;default:0"`
	Heading               float64   `gorm:"type:double precision;not null;default:0"`
	Altitude              float64   `gorm:"type:double precision;not null;default:0"`
	Accuracy              float64   `gorm:"type:double precision;not null;default:0"`
	RouteProgress         float64   `gorm:"type:double precision;not null;default:0"`
	DistanceToDestination float64   `gorm:"type:double precision;not null;default:0"`
	EstimatedArrival      time.Time `gorm:"type:timestamptz"`
	IsActive              bool      `gorm:"not null;default:true"`
	LastUpdate            time.Time `gorm:"type:timestamptz;not null"`
}

func (LiveTrackingModel) TableName() string {
	return "live_tracking"
}

// TrackingEventModel is the journey log. (booking_id, status) is unique.
type TrackingEventModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	BookingID    int64     `gorm:"not null;uniqueIndex:idx_tracking_events_booking_status"`
	Status       string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_tracking_events_booking_status"`
	Location     string    `gorm:"type:varchar(255)"`
	Latitude     float64   `gorm:"type:double precision;not null"`
	Longitude    float64   `gorm:"type:double precision;not null"`
	Notes        string    `gorm:"type:text"`
	IsLiveUpdate bool      `gorm:"not null;default:false"`
	ActualSpeed  float64   `gorm:"type:double precision;default:0"`
	Timestamp    time.Time `gorm:"type:timestamptz;not null;index"`
}

func (TrackingEventModel) TableName() string {
	return "tracking_events"
}

// BookingModel maps the columns of the platform's bookings table read here.
type BookingModel struct {
	ID                int64    `gorm:"primaryKey"`
	Status            string   `gorm:"type:varchar(50)"`
	VehicleID         *int64   `gorm:"index"`
	PickupLatitude    *float64 `gorm:"type:double precision"`
	PickupLongitude   *float64 `gorm:"type:double precision"`
	DeliveryLatitude  *float64 `gorm:"type:double precision"`
	DeliveryLongitude *float64 `gorm:"type:double precision"`
}

func (BookingModel) TableName() string {
	return "bookings"
}

// VehicleModel maps the columns of the platform's vehicles table read here.
type VehicleModel struct {
	ID          int64  `gorm:"primaryKey"`
	PlateNumber string `gorm:"type:varchar(32)"`
	VehicleType string `gorm:"type:varchar(50)"`
	Status      string `gorm:"type:varchar(50)"`
}

func (VehicleModel) TableName() string {
	return "vehicles"
}
