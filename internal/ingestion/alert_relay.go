package ingestion

import (
	"context"
	"time"

	"go.uber.org/zap"

	"uld-tracker/internal/broadcast"
)

// Subscriber hands out hub subscriptions; the fleet service implements it.
type Subscriber interface {
	Subscribe(buffer int) (*broadcast.Subscription, error)
}

// AlertRelay republishes every new-alert event to an MQTT topic for devices
// and operations tooling that do not hold a websocket.
type AlertRelay struct {
	source    Subscriber
	broker    Broker
	topic     string
	qos       byte
	buffer    int
	retryWait time.Duration
	log       *zap.Logger
}

func NewAlertRelay(source Subscriber, broker Broker, topic string, qos byte, log *zap.Logger) *AlertRelay {
	if log == nil {
		log = zap.NewNop()
	}
	return &AlertRelay{
		source:    source,
		broker:    broker,
		topic:     topic,
		qos:       qos,
		buffer:    256,
		retryWait: time.Second,
		log:       log,
	}
}

// Run relays until ctx ends. If the hub drops the relay for falling behind,
// it subscribes again; alerts published in between are not replayed.
func (r *AlertRelay) Run(ctx context.Context) error {
	for {
		sub, err := r.source.Subscribe(r.buffer)
		if err != nil {
			return err
		}

		err = broadcast.Forward(ctx, sub, r.relay)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		r.log.Warn("Alert relay subscription ended, resubscribing", zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.retryWait):
		}
	}
}

func (r *AlertRelay) relay(ev broadcast.Event) error {
	if ev.Kind != broadcast.KindNewAlert {
		return nil
	}

	// A broker hiccup loses this alert on the relay only; the subscription stays.
	if err := r.broker.PublishJSON(r.topic, r.qos, ev); err != nil {
		r.log.Warn("Failed to publish alert to MQTT",
			zap.String("topic", r.topic),
			zap.Uint64("seq", ev.Seq),
			zap.Error(err),
		)
	}
	return nil
}

// Start runs the relay in the background and returns a function that stops it.
func (r *AlertRelay) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := r.Run(ctx); err != nil && ctx.Err() == nil {
			r.log.Error("Alert relay exited", zap.Error(err))
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
