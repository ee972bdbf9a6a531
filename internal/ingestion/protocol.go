package ingestion

import (
	"errors"

	"cargo-tracker/internal/domain/gps"

	"github.com/goccy/go-json"
)

// ParseFrame decodes a persistent-channel frame. Anything that is not valid
// JSON, has an unknown type, or lacks its payload is a *gps.ProtocolError.
func ParseFrame(payload []byte) (*Frame, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, &gps.ProtocolError{Reason: invalidMessageFormat, Err: err}
	}

	frame := &Frame{Type: env.Type}

	switch env.Type {
	case MessageTypeRegister:
		var msg RegisterMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, &gps.ProtocolError{Reason: invalidMessageFormat, Err: err}
		}
		if msg.DeviceID == "" {
			return nil, &gps.ProtocolError{Reason: invalidMessageFormat, Err: gps.ErrInvalidDeviceID}
		}
		frame.Register = &msg

	case MessageTypeLocation:
		var msg LocationMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, &gps.ProtocolError{Reason: invalidMessageFormat, Err: err}
		}
		if msg.Data == nil {
			return nil, &gps.ProtocolError{Reason: invalidMessageFormat, Err: errors.New("location data is missing")}
		}
		frame.Location = msg.Data

	case MessageTypeStatus:
		var msg StatusMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, &gps.ProtocolError{Reason: invalidMessageFormat, Err: err}
		}
		frame.Status = &msg

	case MessageTypeHeartbeat:
		var msg HeartbeatMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, &gps.ProtocolError{Reason: invalidMessageFormat, Err: err}
		}
		frame.Heartbeat = &msg

	default:
		return nil, &gps.ProtocolError{Reason: invalidMessageFormat, Err: errors.New("unknown message type " + env.Type)}
	}

	return frame, nil
}

// ParseLocation decodes a bare location sample, as posted over HTTP or MQTT.
func ParseLocation(payload []byte) (*gps.Location, error) {
	var loc gps.Location
	if err := json.Unmarshal(payload, &loc); err != nil {
		return nil, &gps.ProtocolError{Reason: invalidMessageFormat, Err: err}
	}
	return &loc, nil
}

// ParseRegister decodes a register body that may omit the type field.
func ParseRegister(payload []byte) (*RegisterMessage, error) {
	var msg RegisterMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, &gps.ProtocolError{Reason: invalidMessageFormat, Err: err}
	}
	if msg.DeviceID == "" {
		return nil, &gps.ProtocolError{Reason: invalidMessageFormat, Err: gps.ErrInvalidDeviceID}
	}
	return &msg, nil
}

func ParseStatus(payload []byte) (*StatusMessage, error) {
	var msg StatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, &gps.ProtocolError{Reason: invalidMessageFormat, Err: err}
	}
	return &msg, nil
}

func ParseHeartbeat(payload []byte) (*HeartbeatMessage, error) {
	var msg HeartbeatMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, &gps.ProtocolError{Reason: invalidMessageFormat, Err: err}
	}
	return &msg, nil
}

// EncodeFrame marshals an outbound frame.
func EncodeFrame(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
