package broadcast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "uld-tracker/pkg/errors"
)

const DefaultBufferSize = 64

// Subscription is a live feed of events published after Subscribe returned.
type Subscription struct {
	id   uint64
	hub  *Hub
	ch   chan Event
	once sync.Once
	err  error // why the hub ended the subscription; set before ch is closed
}

func (s *Subscription) ID() uint64 {
	return s.id
}

// Events is closed when the subscription ends, either by Close or because the
// hub dropped a subscriber that fell behind.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Err reports why the hub closed Events: appErrors.ErrSubscriberGone when the
// subscriber fell behind, appErrors.ErrHubClosed on shutdown. It is nil while
// the subscription is live or after the subscriber closed it itself, and is
// only meaningful once Events has been closed.
func (s *Subscription) Err() error {
	return s.err
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.id)
	})
}

type Stats struct {
	Subscribers int    `json:"subscribers"`
	Published   uint64 `json:"published"`
	Delivered   uint64 `json:"delivered"`
	Dropped     uint64 `json:"dropped"`
}

// Hub fans events out to every subscriber without ever blocking the publisher.
// A subscriber whose buffer is full is dropped on the spot; the others still
// receive the event.
type Hub struct {
	mu         sync.Mutex
	subs       map[uint64]*Subscription
	nextID     uint64
	seq        uint64
	closed     bool
	bufferSize int
	stats      Stats

	log      *zap.Logger
	observer Observer
	now      func() time.Time
}

func NewHub(bufferSize int, log *zap.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		subs:       make(map[uint64]*Subscription),
		bufferSize: bufferSize,
		log:        log,
		observer:   nopObserver{},
		now:        time.Now,
	}
}

func (h *Hub) SetObserver(o Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if o == nil {
		o = nopObserver{}
	}
	h.observer = o
}

func (h *Hub) Subscribe() (*Subscription, error) {
	return h.SubscribeWithBuffer(h.bufferSize)
}

func (h *Hub) SubscribeWithBuffer(size int) (*Subscription, error) {
	if size <= 0 {
		size = h.bufferSize
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, appErrors.ErrHubClosed
	}

	h.nextID++
	sub := &Subscription{
		id:  h.nextID,
		hub: h,
		ch:  make(chan Event, size),
	}
	h.subs[sub.id] = sub
	h.stats.Subscribers = len(h.subs)
	h.observer.SubscribersChanged(len(h.subs))

	h.log.Debug("Subscriber registered", zap.Uint64("subscriber_id", sub.id))
	return sub, nil
}

// Publish stamps and delivers an event to every current subscriber.
func (h *Hub) Publish(kind Kind, payload any) Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	ev := Event{
		Seq:       h.seq,
		Kind:      kind,
		Payload:   payload,
		Timestamp: h.now(),
	}

	if h.closed {
		return ev
	}

	h.stats.Published++
	h.observer.EventPublished(kind)

	for id, sub := range h.subs {
		select {
		case sub.ch <- ev:
			h.stats.Delivered++
		default:
			h.log.Warn("Subscriber buffer full, dropping subscriber",
				zap.Uint64("subscriber_id", id),
				zap.String("event", string(kind)),
				zap.Uint64("seq", ev.Seq),
			)
			h.dropLocked(id, sub)
		}
	}

	return ev
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[id]
	if !ok {
		return
	}

	delete(h.subs, id)
	close(sub.ch)
	h.stats.Subscribers = len(h.subs)
	h.observer.SubscribersChanged(len(h.subs))
	h.log.Debug("Subscriber unregistered", zap.Uint64("subscriber_id", id))
}

func (h *Hub) dropLocked(id uint64, sub *Subscription) {
	delete(h.subs, id)
	sub.err = appErrors.ErrSubscriberGone
	close(sub.ch)
	h.stats.Dropped++
	h.stats.Subscribers = len(h.subs)
	h.observer.SubscriberDropped()
	h.observer.SubscribersChanged(len(h.subs))
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		sub.err = appErrors.ErrHubClosed
		close(sub.ch)
	}
	h.stats.Subscribers = 0
	h.observer.SubscribersChanged(0)
}

// Forward delivers sub's events to fn until ctx ends, the subscription closes
// or fn fails. A failing or panicking fn only ends its own subscription.
func Forward(ctx context.Context, sub *Subscription, fn func(Event) error) (err error) {
	defer sub.Close()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber %d panicked: %v", sub.ID(), r)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				if err := sub.Err(); err != nil {
					return err
				}
				return appErrors.ErrSubscriberGone
			}
			if err := fn(ev); err != nil {
				return fmt.Errorf("deliver seq %d: %w", ev.Seq, err)
			}
		}
	}
}
