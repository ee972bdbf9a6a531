package gps

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownDevice     = errors.New("device not registered")
	ErrNotConnected      = errors.New("device not connected")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrVehicleNotFound   = errors.New("vehicle not found")
	ErrTrackingNotFound  = errors.New("live tracking record not found")
	ErrInvalidDeviceID   = errors.New("device id is required")
	ErrHandleUnavailable = errors.New("connection handle unavailable")
)

// ProtocolError is a frame the handler could not accept.
// The connection that sent it stays open.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}
	return "protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ValidationError is a sample with an out-of-range field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}
