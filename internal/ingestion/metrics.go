package ingestion

import (
	"sync"
	"time"
)

type IngestMetrics struct {
	MessagesReceived      int64         `json:"messagesReceived"`
	MessagesProcessed     int64         `json:"messagesProcessed"`
	MessagesFailed        int64         `json:"messagesFailed"`
	MessagesDropped       int64         `json:"messagesDropped"`
	UnknownULDs           int64         `json:"unknownUlds"`
	LastProcessedAt       time.Time     `json:"lastProcessedAt"`
	AverageProcessingTime time.Duration `json:"averageProcessingTime"`
	BufferSize            int           `json:"bufferSize"`
}

// MetricsTracker guards IngestMetrics and notifies listeners on every change.
type MetricsTracker struct {
	mu        sync.RWMutex
	metrics   IngestMetrics
	listeners []func(IngestMetrics)
}

func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{}
}

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

func (t *MetricsTracker) Snapshot() IngestMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metrics
}

func (t *MetricsTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = IngestMetrics{}
}

// OnChange registers a callback invoked after each update, outside the lock.
func (t *MetricsTracker) OnChange(listener func(IngestMetrics)) {
	if listener == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, listener)
}
