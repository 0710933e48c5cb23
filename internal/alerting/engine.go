package alerting

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"uld-tracker/internal/domain/alert"
	"uld-tracker/internal/domain/uld"
)

// Thresholds holds the rule limits and the recovery band for each rule.
type Thresholds struct {
	LowBattery     float64
	HighShock      float64
	TemperatureMin float64
	TemperatureMax float64

	BatteryHysteresis     float64
	ShockHysteresis       float64
	TemperatureHysteresis float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		LowBattery:            20,
		HighShock:             5,
		TemperatureMin:        5,
		TemperatureMax:        35,
		BatteryHysteresis:     2,
		ShockHysteresis:       0.5,
		TemperatureHysteresis: 1,
	}
}

type rule struct {
	kind     alert.Kind
	severity alert.Severity
	priority alert.Priority
	title    string

	violated  func(s uld.Sensors, t Thresholds) bool
	recovered func(s uld.Sensors, t Thresholds) bool
	describe  func(u *uld.ULD, t Thresholds) (value float64, threshold, message string)
}

// rules are evaluated in this order; each is independent of the others.
var rules = []rule{
	{
		kind:     alert.KindLowBattery,
		severity: alert.SeverityWarning,
		priority: alert.PriorityMedium,
		title:    "Low Battery",
		violated: func(s uld.Sensors, t Thresholds) bool {
			return s.Battery < t.LowBattery
		},
		recovered: func(s uld.Sensors, t Thresholds) bool {
			return s.Battery >= t.LowBattery+t.BatteryHysteresis
		},
		describe: func(u *uld.ULD, t Thresholds) (float64, string, string) {
			return u.Sensors.Battery,
				fmt.Sprintf("min: %.1f%%", t.LowBattery),
				fmt.Sprintf("ULD %s battery at %.1f%%", u.ID, u.Sensors.Battery)
		},
	},
	{
		kind:     alert.KindHighShock,
		severity: alert.SeverityCritical,
		priority: alert.PriorityHigh,
		title:    "Impact Detected",
		violated: func(s uld.Sensors, t Thresholds) bool {
			return s.ShockLevel > t.HighShock
		},
		recovered: func(s uld.Sensors, t Thresholds) bool {
			return s.ShockLevel <= t.HighShock-t.ShockHysteresis
		},
		describe: func(u *uld.ULD, t Thresholds) (float64, string, string) {
			return u.Sensors.ShockLevel,
				fmt.Sprintf("max: %.1fg", t.HighShock),
				fmt.Sprintf("ULD %s experienced high impact (%.1fg)", u.ID, u.Sensors.ShockLevel)
		},
	},
	{
		kind:     alert.KindTemperatureOutside,
		severity: alert.SeverityWarning,
		priority: alert.PriorityMedium,
		title:    "Temperature Warning",
		violated: func(s uld.Sensors, t Thresholds) bool {
			return s.Temperature < t.TemperatureMin || s.Temperature > t.TemperatureMax
		},
		recovered: func(s uld.Sensors, t Thresholds) bool {
			return s.Temperature >= t.TemperatureMin+t.TemperatureHysteresis &&
				s.Temperature <= t.TemperatureMax-t.TemperatureHysteresis
		},
		describe: func(u *uld.ULD, t Thresholds) (float64, string, string) {
			return u.Sensors.Temperature,
				fmt.Sprintf("range: %.1f°C to %.1f°C", t.TemperatureMin, t.TemperatureMax),
				fmt.Sprintf("ULD %s temperature at %.1f°C", u.ID, u.Sensors.Temperature)
		},
	},
}

type latchKey struct {
	uldID string
	kind  alert.Kind
}

// Engine turns a ULD's current sensor readings into alerts.
//
// Rules are edge-triggered: when a rule fires, a latch is set for that ULD and
// kind, and the rule stays silent until the reading recovers past the
// hysteresis band, which clears the latch. A reading hovering around a
// threshold therefore produces one alert, not one per tick.
type Engine struct {
	mu         sync.Mutex
	thresholds Thresholds
	latched    map[latchKey]struct{}
	now        func() time.Time
}

func NewEngine(thresholds Thresholds) *Engine {
	return &Engine{
		thresholds: thresholds,
		latched:    make(map[latchKey]struct{}),
		now:        time.Now,
	}
}

// WithClock overrides the timestamp source; used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate returns the alerts that fire for u's current readings, in rule order.
func (e *Engine) Evaluate(u *uld.ULD) []alert.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var alerts []alert.Alert
	for _, r := range rules {
		key := latchKey{uldID: u.ID, kind: r.kind}

		if _, isLatched := e.latched[key]; isLatched {
			if r.recovered(u.Sensors, e.thresholds) {
				delete(e.latched, key)
			}
			continue
		}

		if !r.violated(u.Sensors, e.thresholds) {
			continue
		}

		e.latched[key] = struct{}{}

		value, threshold, message := r.describe(u, e.thresholds)
		ts := e.now()
		alerts = append(alerts, alert.Alert{
			ID:        NewAlertID(ts),
			ULDID:     u.ID,
			Kind:      r.kind,
			Severity:  r.severity,
			Priority:  r.priority,
			Title:     r.title,
			Message:   message,
			Value:     value,
			Threshold: threshold,
			Timestamp: ts,
		})
	}

	return alerts
}

// IsLatched reports whether kind has fired for uldID and not yet recovered.
func (e *Engine) IsLatched(uldID string, kind alert.Kind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.latched[latchKey{uldID: uldID, kind: kind}]
	return ok
}

// NewAlertID combines the creation time with a random suffix so alerts raised
// in the same millisecond stay distinct.
func NewAlertID(ts time.Time) string {
	return fmt.Sprintf("ALERT%d-%s", ts.UnixMilli(), uuid.NewString()[:8])
}
