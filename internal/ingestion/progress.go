package ingestion

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/logger"

	"go.uber.org/zap"
)

const (
	earthRadiusKm = 6371.0

	// Below this a vehicle is treated as stationary.
	minMovingSpeedKmh = 1.0
	// Travel-time estimates are capped here.
	maxTravelTime = 30 * 24 * time.Hour
)

// Progress is the route position estimate for one sample.
type Progress struct {
	RouteProgress    float64
	DistanceKm       float64
	EstimatedArrival time.Time
}

// ProgressEstimator computes route progress for a sample on a booking.
type ProgressEstimator interface {
	Estimate(ctx context.Context, loc *gps.Location, bookingID int64) Progress
}

// RandomEstimator produces placeholder values: progress in [0,100),
// distance in [0,100) km and ETA at now+horizon.
type RandomEstimator struct {
	horizon time.Duration
	now     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomEstimator(horizon time.Duration) *RandomEstimator {
	return &RandomEstimator{
		horizon: horizon,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (e *RandomEstimator) Estimate(_ context.Context, _ *gps.Location, _ int64) Progress {
	e.mu.Lock()
	progress := e.rng.Float64() * 100
	distance := e.rng.Float64() * 100
	e.mu.Unlock()

	return Progress{
		RouteProgress:    progress,
		DistanceKm:       distance,
		EstimatedArrival: e.now().Add(e.horizon),
	}
}

// BookingReader is the read side of the store the haversine estimator needs.
type BookingReader interface {
	GetBooking(ctx context.Context, bookingID int64) (*gps.Booking, error)
}

// HaversineEstimator measures great-circle distance from the sample to the
// booking's delivery point.
type HaversineEstimator struct {
	bookings BookingReader
	fallback ProgressEstimator
	horizon  time.Duration
	now      func() time.Time
}

func NewHaversineEstimator(bookings BookingReader, horizon time.Duration) *HaversineEstimator {
	return &HaversineEstimator{
		bookings: bookings,
		fallback: NewRandomEstimator(horizon),
		horizon:  horizon,
		now:      time.Now,
	}
}

func (e *HaversineEstimator) Estimate(ctx context.Context, loc *gps.Location, bookingID int64) Progress {
	booking, err := e.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		if !errors.Is(err, gps.ErrBookingNotFound) {
			logger.Warn("Failed to load booking for progress estimate",
				zap.Int64("booking_id", bookingID),
				zap.Error(err),
			)
		}
		return e.fallback.Estimate(ctx, loc, bookingID)
	}
	if !booking.HasRoute() {
		return e.fallback.Estimate(ctx, loc, bookingID)
	}

	total := Haversine(*booking.PickupLatitude, *booking.PickupLongitude,
		*booking.DeliveryLatitude, *booking.DeliveryLongitude)
	remaining := Haversine(loc.Latitude, loc.Longitude,
		*booking.DeliveryLatitude, *booking.DeliveryLongitude)

	progress := 100.0
	if total > 0 {
		progress = clamp((1-remaining/total)*100, 0, 100)
	}

	eta := e.now().Add(e.horizon)
	if speed := loc.SpeedKmh(); speed >= minMovingSpeedKmh {
		eta = e.now().Add(travelTime(remaining, speed))
	}

	return Progress{
		RouteProgress:    progress,
		DistanceKm:       remaining,
		EstimatedArrival: eta,
	}
}

// travelTime converts distance over speed to a duration, capped at maxTravelTime.
func travelTime(distanceKm, speedKmh float64) time.Duration {
	hours := distanceKm / speedKmh
	if hours >= maxTravelTime.Hours() {
		return maxTravelTime
	}
	return time.Duration(hours * float64(time.Hour))
}

// Haversine returns the great-circle distance in kilometers.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
