package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/logger"
	"cargo-tracker/internal/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Settings configures when the store circuit opens.
type Settings struct {
	Name             string
	FailureThreshold uint32
	Timeout          time.Duration
}

// Store wraps a gps.Repository so a failing database is short-circuited
// instead of stalling every connection's processing.
type Store struct {
	next gps.Repository
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

var _ gps.Repository = (*Store)(nil)

func NewStore(next gps.Repository, s Settings) *Store {
	if s.Name == "" {
		s.Name = "tracking-store"
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		// Lookups that find nothing are answers, not outages.
		IsSuccessful: func(err error) bool {
			return err == nil || isNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Store circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Store{next: next, cb: cb, name: s.Name}
}

// State reports the current breaker state.
func (s *Store) State() gobreaker.State {
	return s.cb.State()
}

func call[T any](s *Store, fn func() (T, error)) (T, error) {
	var zero T

	result, err := s.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%s unavailable: %w", s.name, err)
		}
		return zero, err
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func (s *Store) GetLiveTracking(ctx context.Context, bookingID int64) (*gps.LiveTracking, error) {
	return call(s, func() (*gps.LiveTracking, error) {
		return s.next.GetLiveTracking(ctx, bookingID)
	})
}

func (s *Store) CreateLiveTracking(ctx context.Context, record *gps.LiveTracking) (*gps.LiveTracking, error) {
	return call(s, func() (*gps.LiveTracking, error) {
		return s.next.CreateLiveTracking(ctx, record)
	})
}

func (s *Store) UpdateLiveTracking(ctx context.Context, bookingID int64, update gps.LiveTrackingUpdate) (*gps.LiveTracking, error) {
	return call(s, func() (*gps.LiveTracking, error) {
		return s.next.UpdateLiveTracking(ctx, bookingID, update)
	})
}

func (s *Store) UpsertLiveTracking(ctx context.Context, create *gps.LiveTracking, update gps.LiveTrackingUpdate) (*gps.LiveTracking, error) {
	return call(s, func() (*gps.LiveTracking, error) {
		return s.next.UpsertLiveTracking(ctx, create, update)
	})
}

func (s *Store) CreateTrackingEvent(ctx context.Context, event *gps.TrackingEvent) (*gps.TrackingEvent, error) {
	return call(s, func() (*gps.TrackingEvent, error) {
		return s.next.CreateTrackingEvent(ctx, event)
	})
}

func (s *Store) ListTrackingEvents(ctx context.Context, bookingID int64) ([]*gps.TrackingEvent, error) {
	return call(s, func() ([]*gps.TrackingEvent, error) {
		return s.next.ListTrackingEvents(ctx, bookingID)
	})
}

func (s *Store) GetBooking(ctx context.Context, bookingID int64) (*gps.Booking, error) {
	return call(s, func() (*gps.Booking, error) {
		return s.next.GetBooking(ctx, bookingID)
	})
}

func (s *Store) GetVehicleByID(ctx context.Context, vehicleID int64) (*gps.Vehicle, error) {
	return call(s, func() (*gps.Vehicle, error) {
		return s.next.GetVehicleByID(ctx, vehicleID)
	})
}

// Health bypasses the breaker so probes see the real database state.
func (s *Store) Health(ctx context.Context) error {
	return s.next.Health(ctx)
}

func isNotFound(err error) bool {
	return errors.Is(err, gps.ErrTrackingNotFound) ||
		errors.Is(err, gps.ErrBookingNotFound) ||
		errors.Is(err, gps.ErrVehicleNotFound)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
