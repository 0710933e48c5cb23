package broadcast

import "time"

type Kind string

const (
	KindUnitUpdate      Kind = "unit-update"
	KindNewAlert        Kind = "new-alert"
	KindAnalyticsUpdate Kind = "analytics-update"
)

// Event is one published change. Seq is assigned by the hub and strictly
// increases across all kinds.
type Event struct {
	Seq       uint64    `json:"seq"`
	Kind      Kind      `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Observer receives hub bookkeeping callbacks, e.g. for metrics. Calls are
// made with the hub lock held and must not call back into the hub.
type Observer interface {
	EventPublished(kind Kind)
	SubscriberDropped()
	SubscribersChanged(n int)
}

type nopObserver struct{}

func (nopObserver) EventPublished(Kind)    {}
func (nopObserver) SubscriberDropped()     {}
func (nopObserver) SubscribersChanged(int) {}
