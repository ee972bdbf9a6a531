package tracking

import (
	"sort"
	"sync"
	"time"

	"cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/logger"

	"go.uber.org/zap"
)

// Registry owns the in-memory state of every known GPS device.
// Records live for the lifetime of the process; nothing is ever removed.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*gps.Device
	now     func() time.Time
}

type RegistryOption func(*Registry)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		devices: make(map[string]*gps.Device),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register inserts or fully replaces the record for reg.DeviceID.
// Nothing from a previous registration survives unless supplied again.
func (r *Registry) Register(reg gps.Registration) gps.Device {
	device := &gps.Device{
		DeviceID:        reg.DeviceID,
		VehicleID:       reg.VehicleID,
		BookingID:       reg.BookingID,
		IMEI:            reg.IMEI,
		SimNumber:       reg.SimNumber,
		FirmwareVersion: reg.FirmwareVersion,
		LastSeen:        r.now(),
		IsActive:        true,
	}

	r.mu.Lock()
	_, existed := r.devices[reg.DeviceID]
	r.devices[reg.DeviceID] = device
	snapshot := *device
	r.mu.Unlock()

	logger.Info("GPS device registered",
		zap.String("device_id", reg.DeviceID),
		zap.Bool("re_registration", existed),
		zap.String("event", "device_registered"),
	)

	return snapshot
}

// Touch refreshes liveness and merges any supplied status fields.
func (r *Registry) Touch(deviceID string, update gps.StatusUpdate) (gps.Device, error) {
	r.mu.Lock()
	device, ok := r.devices[deviceID]
	if !ok {
		r.mu.Unlock()
		logger.Warn("Touch for unknown GPS device ignored",
			zap.String("device_id", deviceID),
		)
		return gps.Device{}, gps.ErrUnknownDevice
	}

	device.LastSeen = r.now()
	device.IsActive = true
	if update.BatteryLevel != nil {
		level := *update.BatteryLevel
		device.BatteryLevel = &level
	}
	if update.SignalStrength != nil {
		signal := *update.SignalStrength
		device.SignalStrength = &signal
	}
	snapshot := *device
	r.mu.Unlock()

	return snapshot, nil
}

// Assign binds a booking to an existing device.
func (r *Registry) Assign(deviceID string, bookingID int64) (gps.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[deviceID]
	if !ok {
		return gps.Device{}, gps.ErrUnknownDevice
	}

	id := bookingID
	device.BookingID = &id

	return *device, nil
}

// AssignExclusive binds a booking to deviceID and clears it from every other
// device in one step. It returns the device and the ids it released.
func (r *Registry) AssignExclusive(deviceID string, bookingID int64) (gps.Device, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[deviceID]
	if !ok {
		return gps.Device{}, nil, gps.ErrUnknownDevice
	}

	released := r.releaseLocked(bookingID, deviceID)
	id := bookingID
	device.BookingID = &id

	return *device, released, nil
}

// releaseLocked clears the booking binding on every device bound to bookingID
// except keep. Callers hold r.mu.
func (r *Registry) releaseLocked(bookingID int64, keep string) []string {
	var released []string
	for id, device := range r.devices {
		if id == keep || device.BookingID == nil || *device.BookingID != bookingID {
			continue
		}
		device.BookingID = nil
		released = append(released, id)
	}
	sort.Strings(released)

	return released
}

func (r *Registry) Get(deviceID string) (gps.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, ok := r.devices[deviceID]
	if !ok {
		return gps.Device{}, false
	}
	return *device, true
}

// List returns a snapshot of every known device ordered by id.
func (r *Registry) List() []gps.Device {
	r.mu.RLock()
	devices := make([]gps.Device, 0, len(r.devices))
	for _, device := range r.devices {
		devices = append(devices, *device)
	}
	r.mu.RUnlock()

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].DeviceID < devices[j].DeviceID
	})
	return devices
}

// MarkDisconnected records a transport close as an immediate staleness signal.
func (r *Registry) MarkDisconnected(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if device, ok := r.devices[deviceID]; ok {
		device.IsActive = false
		device.LastSeen = r.now()
	}
}

// Sweep deactivates every device whose lastSeen is strictly older than timeout
// relative to now, and returns their ids.
func (r *Registry) Sweep(now time.Time, timeout time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stale []string
	for id, device := range r.devices {
		if device.IsActive && now.Sub(device.LastSeen) > timeout {
			device.IsActive = false
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)

	return stale
}

// Counts returns the number of known and currently active devices.
func (r *Registry) Counts() (total, active int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, device := range r.devices {
		if device.IsActive {
			active++
		}
	}
	return len(r.devices), active
}
