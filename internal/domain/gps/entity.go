package gps

import (
	"time"
)

// Device is the in-memory state of a GPS tracker unit.
type Device struct {
	DeviceID        string    `json:"deviceId"`
	VehicleID       *int64    `json:"vehicleId"`
	BookingID       *int64    `json:"bookingId"`
	IMEI            string    `json:"imei,omitempty"`
	SimNumber       string    `json:"simNumber,omitempty"`
	FirmwareVersion string    `json:"firmwareVersion,omitempty"`
	LastSeen        time.Time `json:"lastSeen"`
	IsActive        bool      `json:"isActive"`
	BatteryLevel    *int      `json:"batteryLevel"`
	SignalStrength  *int      `json:"signalStrength"`
}

// Registration carries the attributes supplied with a register message.
// Anything not supplied is absent on the resulting Device.
type Registration struct {
	DeviceID        string
	VehicleID       *int64
	BookingID       *int64
	IMEI            string
	SimNumber       string
	FirmwareVersion string
}

// StatusUpdate is merged into a Device on touch. Nil fields are left alone.
type StatusUpdate struct {
	BatteryLevel   *int `json:"batteryLevel" validate:"omitempty,gte=0,lte=100"`
	SignalStrength *int `json:"signalStrength"`
}

// Location is a single point-in-time sample reported by a device.
// Speed is in meters per second.
type Location struct {
	DeviceID   string    `json:"deviceId" validate:"required,max=128"`
	Latitude   float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64   `json:"longitude" validate:"gte=-180,lte=180"`
	Altitude   float64   `json:"altitude"`
	Speed      float64   `json:"speed" validate:"gte=0"`
	Heading    float64   `json:"heading" validate:"gte=0,lte=360"`
	Accuracy   float64   `json:"accuracy" validate:"gte=0"`
	Timestamp  time.Time `json:"timestamp"`
	HDOP       float64   `json:"hdop" validate:"gte=0"`
	Satellites int       `json:"satellites" validate:"gte=0"`
}

// SpeedKmh converts the reported speed to kilometers per hour.
func (l Location) SpeedKmh() float64 {
	return l.Speed * 3.6
}

// LiveTracking is the latest-known-position projection kept per booking.
type LiveTracking struct {
	ID                    int64     `json:"id"`
	BookingID             int64     `json:"bookingId"`
	CurrentLatitude       float64   `json:"currentLatitude"`
	CurrentLongitude      float64   `json:"currentLongitude"`
	CurrentSpeed          float64   `json:"currentSpeed"`
	Heading               float64   `json:"heading"`
	Altitude              float64   `json:"altitude"`
	Accuracy              float64   `json:"accuracy"`
	RouteProgress         float64   `json:"routeProgress"`
	DistanceToDestination float64   `json:"distanceToDestination"`
	EstimatedArrival      time.Time `json:"estimatedArrival"`
	IsActive              bool      `json:"isActive"`
	LastUpdate            time.Time `json:"lastUpdate"`
}

// LiveTrackingUpdate holds the columns rewritten when a booking's record already exists.
type LiveTrackingUpdate struct {
	CurrentLatitude       float64
	CurrentLongitude      float64
	CurrentSpeed          float64
	Heading               float64
	Altitude              float64
	Accuracy              float64
	RouteProgress         float64
	DistanceToDestination float64
	EstimatedArrival      time.Time
	IsActive              bool
	LastUpdate            time.Time
}

// Apply copies u onto t, leaving identity fields untouched.
func (u LiveTrackingUpdate) Apply(t *LiveTracking) {
	t.CurrentLatitude = u.CurrentLatitude
	t.CurrentLongitude = u.CurrentLongitude
	t.CurrentSpeed = u.CurrentSpeed
	t.Heading = u.Heading
	t.Altitude = u.Altitude
	t.Accuracy = u.Accuracy
	t.RouteProgress = u.RouteProgress
	t.DistanceToDestination = u.DistanceToDestination
	t.EstimatedArrival = u.EstimatedArrival
	t.IsActive = u.IsActive
	t.LastUpdate = u.LastUpdate
}

const (
	EventStatusInTransit = "in_transit"
)

// TrackingEvent is an append-only journey log entry. (BookingID, Status) is unique.
type TrackingEvent struct {
	ID           int64     `json:"id"`
	BookingID    int64     `json:"bookingId"`
	Status       string    `json:"status"`
	Location     string    `json:"location"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Notes        string    `json:"notes"`
	IsLiveUpdate bool      `json:"isLiveUpdate"`
	ActualSpeed  float64   `json:"actualSpeed"`
	Timestamp    time.Time `json:"timestamp"`
}

// Booking is the slice of the platform's booking row this subsystem reads.
type Booking struct {
	ID                int64    `json:"id"`
	Status            string   `json:"status"`
	VehicleID         *int64   `json:"vehicleId"`
	PickupLatitude    *float64 `json:"pickupLatitude"`
	PickupLongitude   *float64 `json:"pickupLongitude"`
	DeliveryLatitude  *float64 `json:"deliveryLatitude"`
	DeliveryLongitude *float64 `json:"deliveryLongitude"`
}

// HasRoute reports whether both route endpoints are known.
func (b *Booking) HasRoute() bool {
	return b.PickupLatitude != nil && b.PickupLongitude != nil &&
		b.DeliveryLatitude != nil && b.DeliveryLongitude != nil
}

// Vehicle is the slice of the platform's vehicle row this subsystem reads.
type Vehicle struct {
	ID          int64  `json:"id"`
	PlateNumber string `json:"plateNumber"`
	VehicleType string `json:"vehicleType"`
	Status      string `json:"status"`
}

// LocationUpdate is what gets fanned out after a tracked location is stored.
type LocationUpdate struct {
	BookingID int64          `json:"bookingId"`
	DeviceID  string         `json:"deviceId"`
	Tracking  *LiveTracking  `json:"tracking"`
	Event     *TrackingEvent `json:"event,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
