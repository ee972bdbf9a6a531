package ingestion

import (
	"sync"
	"time"
)

// IngestMetrics tracks location ingestion counters for the health endpoint.
type IngestMetrics struct {
	MessagesReceived      int64         `json:"messagesReceived"`
	MessagesRejected      int64         `json:"messagesRejected"`
	LocationsProcessed    int64         `json:"locationsProcessed"`
	UnknownDevice         int64         `json:"unknownDevice"`
	Untracked             int64         `json:"untracked"`
	TrackingUpserts       int64         `json:"trackingUpserts"`
	EventsRecorded        int64         `json:"eventsRecorded"`
	PersistenceFailures   int64         `json:"persistenceFailures"`
	BroadcastFailures     int64         `json:"broadcastFailures"`
	LastProcessedAt       time.Time     `json:"lastProcessedAt"`
	AverageProcessingTime time.Duration `json:"averageProcessingTime"`
}

// MetricsTracker provides a goroutine-safe wrapper around IngestMetrics.
type MetricsTracker struct {
	mu        sync.RWMutex
	metrics   IngestMetrics
	listeners []func(IngestMetrics)
}

// NewMetricsTracker builds a new tracker with zeroed metrics.
func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{}
}

// Update applies a mutation in a thread-safe way.
func (t *MetricsTracker) Update(fn func(*IngestMetrics)) {
	if fn == nil {
		return
	}

	t.mu.Lock()
	fn(&t.metrics)
	snapshot := t.metrics
	listeners := t.listeners
	t.mu.Unlock()

	for _, listener := range listeners {
		listener(snapshot)
	}
}

// ObserveProcessing folds one processing duration into the running average.
func (t *MetricsTracker) ObserveProcessing(d time.Duration, at time.Time) {
	t.Update(func(m *IngestMetrics) {
		m.LocationsProcessed++
		m.LastProcessedAt = at
		if m.AverageProcessingTime == 0 {
			m.AverageProcessingTime = d
		} else {
			m.AverageProcessingTime = (m.AverageProcessingTime + d) / 2
		}
	})
}

// Snapshot returns a copy of the current metrics.
func (t *MetricsTracker) Snapshot() IngestMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metrics
}

// Reset clears accumulated metrics.
func (t *MetricsTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = IngestMetrics{}
}

// OnChange registers a callback invoked whenever metrics are updated.
func (t *MetricsTracker) OnChange(listener func(IngestMetrics)) {
	if listener == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, listener)
}
