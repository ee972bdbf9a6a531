package ingestion

import (
	"time"

	"cargo-tracker/internal/domain/gps"
)

// Device message types.
const (
	MessageTypeRegister   = "register"
	MessageTypeLocation   = "location"
	MessageTypeStatus     = "status"
	MessageTypeHeartbeat  = "heartbeat"
	MessageTypeRegistered = "registered"
	MessageTypeCommand    = "command"
)

// Transport labels used in logs and metrics.
const (
	TransportWebSocket = "websocket"
	TransportHTTP      = "http"
	TransportMQTT      = "mqtt"
)

const (
	invalidMessageFormat = "Invalid message format"
	deviceNotRegistered  = "Device not registered"
)

// Envelope is the minimal shape every inbound frame shares.
type Envelope struct {
	Type string `json:"type"`
}

// RegisterMessage announces a device. The HTTP register body uses the same
// shape without the type field.
type RegisterMessage struct {
	Type            string `json:"type,omitempty"`
	DeviceID        string `json:"deviceId" validate:"required,max=128"`
	VehicleID       *int64 `json:"vehicleId,omitempty"`
	BookingID       *int64 `json:"bookingId,omitempty"`
	IMEI            string `json:"imei,omitempty" validate:"omitempty,max=32"`
	SimNumber       string `json:"simNumber,omitempty" validate:"omitempty,max=32"`
	FirmwareVersion string `json:"firmwareVersion,omitempty" validate:"omitempty,max=64"`
}

func (m *RegisterMessage) Registration() gps.Registration {
	return gps.Registration{
		DeviceID:        m.DeviceID,
		VehicleID:       m.VehicleID,
		BookingID:       m.BookingID,
		IMEI:            m.IMEI,
		SimNumber:       m.SimNumber,
		FirmwareVersion: m.FirmwareVersion,
	}
}

type LocationMessage struct {
	Type string        `json:"type"`
	Data *gps.Location `json:"data"`
}

type StatusMessage struct {
	Type     string           `json:"type"`
	DeviceID string           `json:"deviceId"`
	Data     gps.StatusUpdate `json:"data"`
}

type HeartbeatMessage struct {
	Type     string `json:"type"`
	DeviceID string `json:"deviceId"`
}

// DeviceConfig is pushed to a device when it registers.
type DeviceConfig struct {
	ReportingInterval int  `json:"reportingInterval"`
	HighAccuracyMode  bool `json:"highAccuracyMode"`
}

type RegisteredMessage struct {
	Type      string       `json:"type"`
	DeviceID  string       `json:"deviceId"`
	Timestamp time.Time    `json:"timestamp"`
	Config    DeviceConfig `json:"config"`
}

type CommandMessage struct {
	Type      string                 `json:"type"`
	Command   string                 `json:"command"`
	Params    map[string]interface{} `json:"params"`
	Timestamp time.Time              `json:"timestamp"`
}

// ErrorMessage is the reply for a frame that could not be handled.
type ErrorMessage struct {
	Error string `json:"error"`
}

// Frame is a decoded inbound message. Exactly one payload field is set,
// matching Type.
type Frame struct {
	Type      string
	Register  *RegisterMessage
	Location  *gps.Location
	Status    *StatusMessage
	Heartbeat *HeartbeatMessage
}

// DeviceID returns the device the frame is about.
func (f *Frame) DeviceID() string {
	switch {
	case f.Register != nil:
		return f.Register.DeviceID
	case f.Location != nil:
		return f.Location.DeviceID
	case f.Status != nil:
		return f.Status.DeviceID
	case f.Heartbeat != nil:
		return f.Heartbeat.DeviceID
	}
	return ""
}

// NewCommandMessage frames an outbound command.
func NewCommandMessage(command string, params map[string]interface{}, now time.Time) CommandMessage {
	if params == nil {
		params = map[string]interface{}{}
	}
	return CommandMessage{
		Type:      MessageTypeCommand,
		Command:   command,
		Params:    params,
		Timestamp: now,
	}
}
