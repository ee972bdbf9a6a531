package gps

import (
	"time"

	domainGPS "cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/ingestion"
)

type AssignBookingRequest struct {
	DeviceID  string `json:"deviceId" validate:"required,max=128"`
	BookingID int64  `json:"bookingId" validate:"required,gt=0"`
}

type SendCommandRequest struct {
	DeviceID string                 `json:"deviceId" validate:"required,max=128"`
	Command  string                 `json:"command" validate:"required,max=64"`
	Params   map[string]interface{} `json:"params"`
}

type DeviceDetailResponse struct {
	domainGPS.Device
	Connected bool               `json:"connected"`
	Vehicle   *domainGPS.Vehicle `json:"vehicle,omitempty"`
}

type TrackingResponse struct {
	Tracking *domainGPS.LiveTracking    `json:"tracking"`
	Events   []*domainGPS.TrackingEvent `json:"events"`
}

type HealthResponse struct {
	Status    string                  `json:"status"`
	Database  string                  `json:"database"`
	Devices   int                     `json:"devices"`
	Active    int                     `json:"activeDevices"`
	Connected int                     `json:"connectedDevices"`
	Ingestion ingestion.IngestMetrics `json:"ingestion"`
	CheckedAt time.Time               `json:"checkedAt"`
}
