package ingestion

import (
	"context"
	"fmt"
)

// Geocoder turns coordinates into a human readable place.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, latitude, longitude float64) string
}

// CoordinateGeocoder renders the coordinates themselves.
type CoordinateGeocoder struct{}

func (CoordinateGeocoder) ReverseGeocode(_ context.Context, latitude, longitude float64) string {
	return fmt.Sprintf("%.6f, %.6f", latitude, longitude)
}
