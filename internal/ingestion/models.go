package ingestion

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"uld-tracker/internal/usecase/fleet"
)

// TelemetryMessage is a device report received over MQTT. The ULD id may be
// carried in the payload, the topic, or both.
type TelemetryMessage struct {
	ULDID     string    `json:"uldId"`
	Timestamp time.Time `json:"timestamp"`
	fleet.ReportTelemetryRequest

	Topic      string    `json:"-"`
	ReceivedAt time.Time `json:"-"`
}

// ParseTelemetry decodes payload and fills the ULD id from the topic's single
// level wildcard when the payload does not carry one.
func ParseTelemetry(pattern, topic string, payload []byte) (*TelemetryMessage, error) {
	var msg TelemetryMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("decode telemetry on %s: %w", topic, err)
	}

	msg.Topic = topic
	msg.ReceivedAt = time.Now()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = msg.ReceivedAt
	}

	fromTopic := TopicWildcard(pattern, topic)
	switch {
	case msg.ULDID == "":
		msg.ULDID = fromTopic
	case fromTopic != "" && !strings.EqualFold(fromTopic, msg.ULDID):
		return nil, &ValidationError{
			Field:   "uldId",
			Message: fmt.Sprintf("payload id %q does not match topic id %q", msg.ULDID, fromTopic),
		}
	}

	return &msg, nil
}

// TopicWildcard returns the topic level matched by the first "+" in pattern,
// or "" when pattern has none or topic does not line up with it.
func TopicWildcard(pattern, topic string) string {
	patternLevels := strings.Split(pattern, "/")
	topicLevels := strings.Split(topic, "/")

	for i, level := range patternLevels {
		if i >= len(topicLevels) {
			return ""
		}
		switch level {
		case "+":
			return topicLevels[i]
		case "#":
			return ""
		default:
			if level != topicLevels[i] {
				return ""
			}
		}
	}
	return ""
}
