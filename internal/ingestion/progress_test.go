package ingestion

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/domain/gps/mocks"

	"go.uber.org/mock/gomock"
)

func float64Ptr(v float64) *float64 { return &v }

func TestHaversine(t *testing.T) {
	// Ho Chi Minh City to Hanoi, roughly 1137 km.
	d := Haversine(10.7769, 106.7009, 21.0285, 105.8542)
	if math.Abs(d-1137) > 15 {
		t.Errorf("Haversine() = %.1f km, want about 1137", d)
	}
	if Haversine(1, 1, 1, 1) != 0 {
		t.Error("distance to self should be zero")
	}
}

func TestRandomEstimator(t *testing.T) {
	e := NewRandomEstimator(4 * time.Hour)
	e.now = fixedClock

	for i := 0; i < 50; i++ {
		p := e.Estimate(context.Background(), &gps.Location{}, 1)
		if p.RouteProgress < 0 || p.RouteProgress >= 100 {
			t.Fatalf("RouteProgress = %v out of range", p.RouteProgress)
		}
		if p.DistanceKm < 0 || p.DistanceKm >= 100 {
			t.Fatalf("DistanceKm = %v out of range", p.DistanceKm)
		}
		if !p.EstimatedArrival.Equal(testNow.Add(4 * time.Hour)) {
			t.Fatalf("EstimatedArrival = %v", p.EstimatedArrival)
		}
	}
}

func TestHaversineEstimator(t *testing.T) {
	ctrl := gomock.NewController(t)
	bookings := mocks.NewMockRepository(ctrl)

	bookings.EXPECT().GetBooking(gomock.Any(), int64(1)).Return(&gps.Booking{
		ID:                1,
		PickupLatitude:    float64Ptr(0),
		PickupLongitude:   float64Ptr(0),
		DeliveryLatitude:  float64Ptr(0),
		DeliveryLongitude: float64Ptr(2),
	}, nil)

	e := NewHaversineEstimator(bookings, 4*time.Hour)
	e.now = fixedClock

	// Halfway along the equator, moving at 20 m/s (72 km/h).
	p := e.Estimate(context.Background(), &gps.Location{Latitude: 0, Longitude: 1, Speed: 20}, 1)

	if math.Abs(p.RouteProgress-50) > 0.5 {
		t.Errorf("RouteProgress = %.2f, want about 50", p.RouteProgress)
	}
	if math.Abs(p.DistanceKm-111.2) > 1 {
		t.Errorf("DistanceKm = %.2f, want about 111.2", p.DistanceKm)
	}
	wantETA := testNow.Add(time.Duration(p.DistanceKm / 72 * float64(time.Hour)))
	if p.EstimatedArrival.Sub(wantETA).Abs() > time.Second {
		t.Errorf("EstimatedArrival = %v, want %v", p.EstimatedArrival, wantETA)
	}
}

func TestHaversineEstimator_Fallbacks(t *testing.T) {
	ctrl := gomock.NewController(t)
	bookings := mocks.NewMockRepository(ctrl)

	gomock.InOrder(
		bookings.EXPECT().GetBooking(gomock.Any(), int64(2)).Return(nil, gps.ErrBookingNotFound),
		bookings.EXPECT().GetBooking(gomock.Any(), int64(3)).Return(&gps.Booking{ID: 3}, nil),
		bookings.EXPECT().GetBooking(gomock.Any(), int64(4)).Return(nil, errors.New("timeout")),
	)

	e := NewHaversineEstimator(bookings, 4*time.Hour)
	e.now = fixedClock
	e.fallback = fixedEstimator{progress: Progress{RouteProgress: 7}}

	for _, id := range []int64{2, 3, 4} {
		p := e.Estimate(context.Background(), &gps.Location{}, id)
		if p.RouteProgress != 7 {
			t.Errorf("booking %d: RouteProgress = %v, want fallback 7", id, p.RouteProgress)
		}
	}
}

func TestHaversineEstimator_StationaryUsesHorizon(t *testing.T) {
	ctrl := gomock.NewController(t)
	bookings := mocks.NewMockRepository(ctrl)
	bookings.EXPECT().GetBooking(gomock.Any(), int64(1)).Return(&gps.Booking{
		PickupLatitude:    float64Ptr(0),
		PickupLongitude:   float64Ptr(0),
		DeliveryLatitude:  float64Ptr(0),
		DeliveryLongitude: float64Ptr(1),
	}, nil)

	e := NewHaversineEstimator(bookings, 2*time.Hour)
	e.now = fixedClock

	p := e.Estimate(context.Background(), &gps.Location{Latitude: 0, Longitude: 5}, 1)
	if p.RouteProgress != 0 {
		t.Errorf("RouteProgress past the origin should clamp to 0, got %v", p.RouteProgress)
	}
	if !p.EstimatedArrival.Equal(testNow.Add(2 * time.Hour)) {
		t.Errorf("EstimatedArrival = %v, want now+2h", p.EstimatedArrival)
	}
}

func TestHaversineEstimator_SlowSpeedKeepsETAInFuture(t *testing.T) {
	// Ho Chi Minh City to Hanoi.
	route := &gps.Booking{
		PickupLatitude:    float64Ptr(10.7769),
		PickupLongitude:   float64Ptr(106.7009),
		DeliveryLatitude:  float64Ptr(21.0285),
		DeliveryLongitude: float64Ptr(105.8542),
	}

	tests := []struct {
		name  string
		speed float64
		want  time.Time
	}{
		{"creeping counts as stationary", 0.0001, testNow.Add(4 * time.Hour)},
		{"very slow is capped", 0.3, testNow.Add(maxTravelTime)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			bookings := mocks.NewMockRepository(ctrl)
			bookings.EXPECT().GetBooking(gomock.Any(), int64(1)).Return(route, nil)

			e := NewHaversineEstimator(bookings, 4*time.Hour)
			e.now = fixedClock

			p := e.Estimate(context.Background(), &gps.Location{
				Latitude: 10.7769, Longitude: 106.7009, Speed: tt.speed,
			}, 1)
			if !p.EstimatedArrival.After(testNow) {
				t.Fatalf("EstimatedArrival = %v is not after now", p.EstimatedArrival)
			}
			if !p.EstimatedArrival.Equal(tt.want) {
				t.Errorf("EstimatedArrival = %v, want %v", p.EstimatedArrival, tt.want)
			}
		})
	}
}
