package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cargo-tracker/internal/domain/gps"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store is a gps.Repository backed by an embedded SQLite database.
// Timestamps are stored as unix nanoseconds.
type Store struct {
	db *sql.DB
}

var _ gps.Repository = (*Store)(nil)

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps :memory: databases shared and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// Init creates the necessary tables and indexes.
func (s *Store) Init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bookings (
		id INTEGER PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'pending',
		vehicle_id INTEGER,
		pickup_latitude REAL,
		pickup_longitude REAL,
		delivery_latitude REAL,
		delivery_longitude REAL
	);

	CREATE TABLE IF NOT EXISTS vehicles (
		id INTEGER PRIMARY KEY,
		plate_number TEXT NOT NULL,
		vehicle_type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS live_tracking (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		booking_id INTEGER NOT NULL UNIQUE,
		current_latitude REAL NOT NULL,
		current_longitude REAL NOT NULL,
		current_speed REAL NOT NULL DEFAULT 0,
		heading REAL NOT NULL DEFAULT 0,
		altitude REAL NOT NULL DEFAULT 0,
		accuracy REAL NOT NULL DEFAULT 0,
		route_progress REAL NOT NULL DEFAULT 0,
		distance_to_destination REAL NOT NULL DEFAULT 0,
		estimated_arrival INTEGER NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		last_update INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tracking_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		booking_id INTEGER NOT NULL,
		status TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		is_live_update INTEGER NOT NULL DEFAULT 0,
		actual_speed REAL NOT NULL DEFAULT 0,
		timestamp INTEGER NOT NULL,
		UNIQUE (booking_id, status)
	);

	CREATE INDEX IF NOT EXISTS idx_tracking_events_booking ON tracking_events(booking_id, timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

const liveTrackingColumns = `id, booking_id, current_latitude, current_longitude, current_speed, heading, altitude,
	accuracy, route_progress, distance_to_destination, estimated_arrival, is_active, last_update`

func (s *Store) GetLiveTracking(ctx context.Context, bookingID int64) (*gps.LiveTracking, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+liveTrackingColumns+` FROM live_tracking WHERE booking_id = ?`, bookingID)

	record, err := scanLiveTracking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, gps.ErrTrackingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get live tracking: %w", err)
	}
	return record, nil
}

func (s *Store) CreateLiveTracking(ctx context.Context, record *gps.LiveTracking) (*gps.LiveTracking, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO live_tracking
		(booking_id, current_latitude, current_longitude, current_speed, heading, altitude, accuracy,
		 route_progress, distance_to_destination, estimated_arrival, is_active, last_update)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+liveTrackingColumns,
		record.BookingID, record.CurrentLatitude, record.CurrentLongitude, record.CurrentSpeed,
		record.Heading, record.Altitude, record.Accuracy, record.RouteProgress,
		record.DistanceToDestination, toNanos(record.EstimatedArrival), record.IsActive, toNanos(record.LastUpdate),
	)

	created, err := scanLiveTracking(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create live tracking: %w", err)
	}
	return created, nil
}

func (s *Store) UpdateLiveTracking(ctx context.Context, bookingID int64, update gps.LiveTrackingUpdate) (*gps.LiveTracking, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE live_tracking SET
			current_latitude = ?, current_longitude = ?, current_speed = ?, heading = ?, altitude = ?,
			accuracy = ?, route_progress = ?, distance_to_destination = ?, estimated_arrival = ?,
			is_active = ?, last_update = ?
		WHERE booking_id = ?
		RETURNING `+liveTrackingColumns,
		update.CurrentLatitude, update.CurrentLongitude, update.CurrentSpeed, update.Heading, update.Altitude,
		update.Accuracy, update.RouteProgress, update.DistanceToDestination, toNanos(update.EstimatedArrival),
		update.IsActive, toNanos(update.LastUpdate), bookingID,
	)

	updated, err := scanLiveTracking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, gps.ErrTrackingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update live tracking: %w", err)
	}
	return updated, nil
}

// UpsertLiveTracking inserts create or, when the booking already has a
// record, applies update to it in the same statement.
func (s *Store) UpsertLiveTracking(ctx context.Context, create *gps.LiveTracking, update gps.LiveTrackingUpdate) (*gps.LiveTracking, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO live_tracking
		(booking_id, current_latitude, current_longitude, current_speed, heading, altitude, accuracy,
		 route_progress, distance_to_destination, estimated_arrival, is_active, last_update)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(booking_id) DO UPDATE SET
			current_latitude = ?, current_longitude = ?, current_speed = ?, heading = ?, altitude = ?,
			accuracy = ?, route_progress = ?, distance_to_destination = ?, estimated_arrival = ?,
			is_active = ?, last_update = ?
		RETURNING `+liveTrackingColumns,
		create.BookingID, create.CurrentLatitude, create.CurrentLongitude, create.CurrentSpeed,
		create.Heading, create.Altitude, create.Accuracy, create.RouteProgress,
		create.DistanceToDestination, toNanos(create.EstimatedArrival), create.IsActive, toNanos(create.LastUpdate),
		update.CurrentLatitude, update.CurrentLongitude, update.CurrentSpeed, update.Heading, update.Altitude,
		update.Accuracy, update.RouteProgress, update.DistanceToDestination, toNanos(update.EstimatedArrival),
		update.IsActive, toNanos(update.LastUpdate),
	)

	record, err := scanLiveTracking(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert live tracking: %w", err)
	}
	return record, nil
}

const trackingEventColumns = `id, booking_id, status, location, latitude, longitude, notes, is_live_update, actual_speed, timestamp`

// CreateTrackingEvent stores event unless the booking already has an event
// with the same status, in which case the stored one is returned.
func (s *Store) CreateTrackingEvent(ctx context.Context, event *gps.TrackingEvent) (*gps.TrackingEvent, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracking_events
		(booking_id, status, location, latitude, longitude, notes, is_live_update, actual_speed, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(booking_id, status) DO NOTHING`,
		event.BookingID, event.Status, event.Location, event.Latitude, event.Longitude,
		event.Notes, event.IsLiveUpdate, event.ActualSpeed, toNanos(event.Timestamp),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracking event: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+trackingEventColumns+` FROM tracking_events WHERE booking_id = ? AND status = ?`,
		event.BookingID, event.Status)

	stored, err := scanTrackingEvent(row)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracking event: %w", err)
	}
	return stored, nil
}

func (s *Store) ListTrackingEvents(ctx context.Context, bookingID int64) ([]*gps.TrackingEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trackingEventColumns+` FROM tracking_events WHERE booking_id = ? ORDER BY timestamp, id`,
		bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking events: %w", err)
	}
	defer rows.Close()

	events := []*gps.TrackingEvent{}
	for rows.Next() {
		event, err := scanTrackingEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracking event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *Store) GetBooking(ctx context.Context, bookingID int64) (*gps.Booking, error) {
	var (
		booking                  gps.Booking
		vehicleID                sql.NullInt64
		pickupLat, pickupLng     sql.NullFloat64
		deliveryLat, deliveryLng sql.NullFloat64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, status, vehicle_id, pickup_latitude, pickup_longitude, delivery_latitude, delivery_longitude
		FROM bookings WHERE id = ?`, bookingID,
	).Scan(&booking.ID, &booking.Status, &vehicleID, &pickupLat, &pickupLng, &deliveryLat, &deliveryLng)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, gps.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	booking.VehicleID = nullInt64(vehicleID)
	booking.PickupLatitude = nullFloat(pickupLat)
	booking.PickupLongitude = nullFloat(pickupLng)
	booking.DeliveryLatitude = nullFloat(deliveryLat)
	booking.DeliveryLongitude = nullFloat(deliveryLng)

	return &booking, nil
}

func (s *Store) GetVehicleByID(ctx context.Context, vehicleID int64) (*gps.Vehicle, error) {
	var vehicle gps.Vehicle
	err := s.db.QueryRowContext(ctx,
		`SELECT id, plate_number, vehicle_type, status FROM vehicles WHERE id = ?`, vehicleID,
	).Scan(&vehicle.ID, &vehicle.PlateNumber, &vehicle.VehicleType, &vehicle.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, gps.ErrVehicleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return &vehicle, nil
}

// UpsertBooking seeds or replaces a booking row. Bookings are owned by the
// wider platform; this exists for local runs and tests.
func (s *Store) UpsertBooking(ctx context.Context, booking *gps.Booking) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO bookings
		(id, status, vehicle_id, pickup_latitude, pickup_longitude, delivery_latitude, delivery_longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		booking.ID, booking.Status, booking.VehicleID,
		booking.PickupLatitude, booking.PickupLongitude, booking.DeliveryLatitude, booking.DeliveryLongitude,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert booking %d: %w", booking.ID, err)
	}
	return nil
}

// UpsertVehicle seeds or replaces a vehicle row.
func (s *Store) UpsertVehicle(ctx context.Context, vehicle *gps.Vehicle) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO vehicles (id, plate_number, vehicle_type, status)
		VALUES (?, ?, ?, ?)`,
		vehicle.ID, vehicle.PlateNumber, vehicle.VehicleType, vehicle.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert vehicle %d: %w", vehicle.ID, err)
	}
	return nil
}

// CountLiveTracking returns the number of live tracking rows for a booking.
func (s *Store) CountLiveTracking(ctx context.Context, bookingID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM live_tracking WHERE booking_id = ?`, bookingID).Scan(&n)
	return n, err
}

func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLiveTracking(row scanner) (*gps.LiveTracking, error) {
	var (
		record      gps.LiveTracking
		eta, update int64
	)
	err := row.Scan(
		&record.ID, &record.BookingID, &record.CurrentLatitude, &record.CurrentLongitude, &record.CurrentSpeed,
		&record.Heading, &record.Altitude, &record.Accuracy, &record.RouteProgress, &record.DistanceToDestination,
		&eta, &record.IsActive, &update,
	)
	if err != nil {
		return nil, err
	}
	record.EstimatedArrival = fromNanos(eta)
	record.LastUpdate = fromNanos(update)
	return &record, nil
}

func scanTrackingEvent(row scanner) (*gps.TrackingEvent, error) {
	var (
		event gps.TrackingEvent
		ts    int64
	)
	err := row.Scan(
		&event.ID, &event.BookingID, &event.Status, &event.Location, &event.Latitude, &event.Longitude,
		&event.Notes, &event.IsLiveUpdate, &event.ActualSpeed, &ts,
	)
	if err != nil {
		return nil, err
	}
	event.Timestamp = fromNanos(ts)
	return &event, nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
