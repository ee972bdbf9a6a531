package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/domain/gps/mocks"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/mock/gomock"
)

func TestStore_OpensAfterConsecutiveFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	dbErr := errors.New("connection refused")

	repo.EXPECT().
		UpsertLiveTracking(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dbErr).
		Times(3)

	store := NewStore(repo, Settings{Name: "test-open", FailureThreshold: 3, Timeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.UpsertLiveTracking(ctx, &gps.LiveTracking{BookingID: 1}, gps.LiveTrackingUpdate{}); !errors.Is(err, dbErr) {
			t.Fatalf("call %d error = %v, want dbErr", i, err)
		}
	}

	if store.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", store.State())
	}

	// The open breaker must not reach the repository.
	_, err := store.UpsertLiveTracking(ctx, &gps.LiveTracking{BookingID: 1}, gps.LiveTrackingUpdate{})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("error = %v, want ErrOpenState", err)
	}
}

func TestStore_NotFoundDoesNotTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)

	repo.EXPECT().
		GetBooking(gomock.Any(), int64(9)).
		Return(nil, gps.ErrBookingNotFound).
		Times(5)

	store := NewStore(repo, Settings{Name: "test-notfound", FailureThreshold: 2})

	for i := 0; i < 5; i++ {
		if _, err := store.GetBooking(context.Background(), 9); !errors.Is(err, gps.ErrBookingNotFound) {
			t.Fatalf("GetBooking() error = %v, want ErrBookingNotFound", err)
		}
	}
	if store.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", store.State())
	}
}

func TestStore_PassesResultsThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)

	event := &gps.TrackingEvent{ID: 4, BookingID: 55, Status: gps.EventStatusInTransit}
	repo.EXPECT().CreateTrackingEvent(gomock.Any(), gomock.Any()).Return(event, nil)
	repo.EXPECT().ListTrackingEvents(gomock.Any(), int64(55)).Return([]*gps.TrackingEvent{event}, nil)
	repo.EXPECT().GetVehicleByID(gomock.Any(), int64(3)).Return(&gps.Vehicle{ID: 3}, nil)
	repo.EXPECT().Health(gomock.Any()).Return(nil)

	store := NewStore(repo, Settings{})
	ctx := context.Background()

	got, err := store.CreateTrackingEvent(ctx, &gps.TrackingEvent{BookingID: 55})
	if err != nil || got.ID != 4 {
		t.Fatalf("CreateTrackingEvent() = %v, %v", got, err)
	}
	events, err := store.ListTrackingEvents(ctx, 55)
	if err != nil || len(events) != 1 {
		t.Fatalf("ListTrackingEvents() = %v, %v", events, err)
	}
	vehicle, err := store.GetVehicleByID(ctx, 3)
	if err != nil || vehicle.ID != 3 {
		t.Fatalf("GetVehicleByID() = %v, %v", vehicle, err)
	}
	if err := store.Health(ctx); err != nil {
		t.Fatalf("Health() error = %v", err)
	}
}
