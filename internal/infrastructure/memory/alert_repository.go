package memory

import (
	"sync"

	"uld-tracker/internal/domain/alert"
)

const DefaultAlertCapacity = 100

// AlertRepository keeps the newest alerts in a fixed-size ring.
type AlertRepository struct {
	mu   sync.RWMutex
	ring []alert.Alert
	next int
	size int
}

func NewAlertRepository(capacity int) *AlertRepository {
	if capacity <= 0 {
		capacity = DefaultAlertCapacity
	}
	return &AlertRepository{ring: make([]alert.Alert, capacity)}
}

func (r *AlertRepository) Add(a alert.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ring[r.next] = a
	r.next = (r.next + 1) % len(r.ring)
	if r.size < len(r.ring) {
		r.size++
	}
}

// Recent returns up to limit alerts, newest first. limit <= 0 means all retained.
func (r *AlertRepository) Recent(limit int) []alert.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > r.size {
		limit = r.size
	}

	out := make([]alert.Alert, 0, limit)
	capacity := len(r.ring)
	for i := 0; i < limit; i++ {
		idx := (r.next - 1 - i + capacity) % capacity
		out = append(out, r.ring[idx])
	}
	return out
}

func (r *AlertRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

func (r *AlertRepository) Capacity() int {
	return len(r.ring)
}
