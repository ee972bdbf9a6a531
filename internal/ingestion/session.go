package ingestion

import (
	"context"
	"errors"

	"cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/logger"
	"cargo-tracker/internal/metrics"
	"cargo-tracker/internal/tracking"

	"go.uber.org/zap"
)

// SessionState is the lifecycle of one persistent device connection.
type SessionState int

const (
	StateUnregistered SessionState = iota
	StateRegistered
	StateActive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateRegistered:
		return "registered"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session runs the per-connection protocol. It is driven by a single read
// loop, so frames from one connection are handled strictly in order.
type Session struct {
	dispatcher  *Dispatcher
	connections *tracking.ConnectionManager
	handle      tracking.Handle

	state    SessionState
	deviceID string
}

func NewSession(dispatcher *Dispatcher, handle tracking.Handle) *Session {
	return &Session{
		dispatcher:  dispatcher,
		connections: dispatcher.connections,
		handle:      handle,
		state:       StateUnregistered,
	}
}

func (s *Session) State() SessionState {
	return s.state
}

// DeviceID is the id of the last successful register on this session.
func (s *Session) DeviceID() string {
	return s.deviceID
}

// HandleFrame processes one inbound frame and returns the reply to send,
// or nil when the frame needs no reply.
func (s *Session) HandleFrame(ctx context.Context, payload []byte) interface{} {
	if s.state == StateClosed {
		return nil
	}

	frame, err := ParseFrame(payload)
	if err != nil {
		metrics.MessagesRejected.WithLabelValues(TransportWebSocket, "protocol").Inc()
		logger.Debug("Invalid frame on GPS channel",
			zap.String("device_id", s.deviceID),
			zap.Error(err),
		)
		return ErrorMessage{Error: invalidMessageFormat}
	}

	if s.state == StateUnregistered && frame.Type != MessageTypeRegister {
		metrics.MessagesRejected.WithLabelValues(TransportWebSocket, "unregistered").Inc()
		logger.Debug("Frame before register rejected",
			zap.String("type", frame.Type),
			zap.String("device_id", frame.DeviceID()),
		)
		return ErrorMessage{Error: deviceNotRegistered}
	}

	switch frame.Type {
	case MessageTypeRegister:
		_, reply, err := s.dispatcher.Register(frame.Register, TransportWebSocket, s.handle)
		if err != nil {
			return errorReply(err)
		}
		s.deviceID = reply.DeviceID
		s.state = StateRegistered
		return reply

	case MessageTypeLocation:
		if _, err := s.dispatcher.Location(ctx, frame.Location, TransportWebSocket); err != nil {
			return errorReply(err)
		}

	case MessageTypeStatus:
		if err := s.dispatcher.Status(frame.Status, TransportWebSocket); err != nil {
			return errorReply(err)
		}

	case MessageTypeHeartbeat:
		if err := s.dispatcher.Heartbeat(frame.Heartbeat, TransportWebSocket); err != nil {
			return errorReply(err)
		}
	}

	s.state = StateActive
	return nil
}

// Close releases the connection binding. Safe to call more than once.
func (s *Session) Close() {
	if s.state == StateClosed {
		return
	}
	if s.state != StateUnregistered {
		s.connections.Unbind(s.handle)
	}
	s.state = StateClosed
}

// errorReply maps a handling error to the frame sent back. Unknown devices
// are dropped silently.
func errorReply(err error) interface{} {
	var verr *gps.ValidationError
	switch {
	case errors.Is(err, gps.ErrUnknownDevice):
		return nil
	case errors.As(err, &verr):
		return ErrorMessage{Error: verr.Error()}
	default:
		return ErrorMessage{Error: invalidMessageFormat}
	}
}
