package ingestion

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	pkgmqtt "uld-tracker/pkg/mqtt"
)

// Broker is the subset of the MQTT client the intake and relay use.
type Broker interface {
	Connect() error
	Subscribe(topic string, qos byte, handler pkgmqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
	PublishJSON(topic string, qos byte, v any) error
	Disconnect()
}

var _ Broker = (*pkgmqtt.Client)(nil)

type MQTTIngestionConfig struct {
	TelemetryTopic string // e.g. uld/+/telemetry
	QoS            byte
}

// MQTTIngestionClient subscribes to device telemetry and feeds the processor.
type MQTTIngestionClient struct {
	cfg       *MQTTIngestionConfig
	broker    Broker
	processor *Processor
	log       *zap.Logger

	mu            sync.Mutex
	started       bool
	subscriptions []string
}

func NewMQTTIngestionClient(cfg *MQTTIngestionConfig, broker Broker, processor *Processor, log *zap.Logger) (*MQTTIngestionClient, error) {
	if cfg == nil || cfg.TelemetryTopic == "" {
		return nil, errors.New("mqtt ingestion telemetry topic is not configured")
	}
	if broker == nil {
		return nil, errors.New("mqtt broker client is required")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &MQTTIngestionClient{
		cfg:       cfg,
		broker:    broker,
		processor: processor,
		log:       log,
	}, nil
}

// Start connects to the broker and subscribes to the telemetry topic. The
// broker connection is expected to be shared with the alert relay, so Start
// does not reconnect when already started.
func (c *MQTTIngestionClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}

	if err := c.broker.Connect(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	topic := c.cfg.TelemetryTopic
	if err := c.broker.Subscribe(topic, c.cfg.QoS, c.handleTelemetryMessage); err != nil {
		c.broker.Disconnect()
		return fmt.Errorf("subscribe failed for topic %s: %w", topic, err)
	}
	c.subscriptions = append(c.subscriptions, topic)
	c.log.Info("Listening for MQTT telemetry", zap.String("topic", topic))

	c.started = true
	return nil
}

func (c *MQTTIngestionClient) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return
	}

	if len(c.subscriptions) > 0 {
		if err := c.broker.Unsubscribe(c.subscriptions...); err != nil {
			c.log.Warn("Failed to unsubscribe from MQTT topics", zap.Error(err))
		}
	}

	c.broker.Disconnect()
	c.started = false
	c.subscriptions = nil
}

func (c *MQTTIngestionClient) handleTelemetryMessage(topic string, payload []byte) {
	msg, err := ParseTelemetry(c.cfg.TelemetryTopic, topic, payload)
	if err != nil {
		c.log.Warn("Invalid telemetry payload", zap.String("topic", topic), zap.Error(err))
		c.processor.Metrics().Update(func(m *IngestMetrics) {
			m.MessagesFailed++
		})
		return
	}

	c.processor.Submit(msg)
}
