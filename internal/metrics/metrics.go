package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Device metrics
	DevicesRegistered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gps_devices_registered",
			Help: "Number of GPS devices known to the registry",
		},
	)

	DevicesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gps_devices_active",
			Help: "Number of GPS devices currently considered live",
		},
	)

	DevicesConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gps_devices_connected",
			Help: "Number of GPS devices with a bound persistent connection",
		},
	)

	DevicesMarkedStale = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gps_devices_marked_stale_total",
			Help: "Total number of devices deactivated by the staleness sweep",
		},
	)

	// Ingestion metrics
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gps_messages_received_total",
			Help: "Total number of device messages received",
		},
		[]string{"transport", "type"},
	)

	MessagesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gps_messages_rejected_total",
			Help: "Total number of device messages rejected",
		},
		[]string{"transport", "reason"},
	)

	LocationsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gps_locations_processed_total",
			Help: "Total number of location samples by processing outcome",
		},
		[]string{"outcome"},
	)

	LocationProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gps_location_processing_duration_seconds",
			Help:    "Time spent processing a single location sample",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// Persistence metrics
	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gps_store_errors_total",
			Help: "Total number of failed persistence calls",
		},
		[]string{"operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gps_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Broadcast metrics
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gps_broadcasts_total",
			Help: "Total number of tracking update broadcasts by sink and result",
		},
		[]string{"sink", "result"},
	)

	// Outbound commands
	CommandsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gps_commands_sent_total",
			Help: "Total number of commands pushed to devices",
		},
		[]string{"result"},
	)
)

// RecordLocation records the outcome and latency of one processed sample.
func RecordLocation(outcome string, duration time.Duration) {
	LocationsProcessed.WithLabelValues(outcome).Inc()
	LocationProcessingDuration.Observe(duration.Seconds())
}

// RecordBroadcast records the result of a single sink publish.
func RecordBroadcast(sink string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	BroadcastsTotal.WithLabelValues(sink, result).Inc()
}

// SetDeviceCounts publishes a registry snapshot.
func SetDeviceCounts(total, active, connected int) {
	DevicesRegistered.Set(float64(total))
	DevicesActive.Set(float64(active))
	DevicesConnected.Set(float64(connected))
}
