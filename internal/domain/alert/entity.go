package alert

import "time"

// Alert is immutable once created.
type Alert struct {
	ID        string    `json:"id"`
	ULDID     string    `json:"uldId"`
	Kind      Kind      `json:"kind"`
	Severity  Severity  `json:"severity"`
	Priority  Priority  `json:"priority"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold string    `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

type Kind string

const (
	KindLowBattery         Kind = "low-battery"
	KindHighShock          Kind = "high-shock"
	KindTemperatureOutside Kind = "temperature-out-of-range"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Priority is the coarse low/medium/high label shown on dashboards.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)
