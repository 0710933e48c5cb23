package alerting

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uld-tracker/internal/domain/alert"
	"uld-tracker/internal/domain/uld"
)

func healthy(id string) *uld.ULD {
	return &uld.ULD{
		ID:      id,
		Sensors: uld.Sensors{Temperature: 22, Humidity: 60, ShockLevel: 0.2, Battery: 80},
	}
}

func TestEvaluate_Shock(t *testing.T) {
	e := NewEngine(DefaultThresholds())

	u := healthy("AKE00001CI")
	u.Sensors.ShockLevel = 6
	alerts := e.Evaluate(u)

	require.Len(t, alerts, 1)
	assert.Equal(t, alert.KindHighShock, alerts[0].Kind)
	assert.Equal(t, alert.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, alert.PriorityHigh, alerts[0].Priority)
	assert.Equal(t, "AKE00001CI", alerts[0].ULDID)
	assert.Contains(t, alerts[0].Message, "6.0g")

	calm := healthy("AKE00002CI")
	calm.Sensors.ShockLevel = 4
	assert.Empty(t, e.Evaluate(calm))
}

func TestEvaluate_RuleOrderAndIndependence(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	e := NewEngine(DefaultThresholds()).WithClock(func() time.Time { return now })

	u := healthy("AKN00001CI")
	u.Sensors.Battery = 12.5
	u.Sensors.ShockLevel = 7
	u.Sensors.Temperature = 38

	alerts := e.Evaluate(u)
	require.Len(t, alerts, 3)

	assert.Equal(t, alert.KindLowBattery, alerts[0].Kind)
	assert.Equal(t, alert.SeverityWarning, alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "12.5%")

	assert.Equal(t, alert.KindHighShock, alerts[1].Kind)

	assert.Equal(t, alert.KindTemperatureOutside, alerts[2].Kind)
	assert.Equal(t, alert.SeverityWarning, alerts[2].Severity)
	assert.Contains(t, alerts[2].Message, "38.0")

	seen := map[string]bool{}
	for _, a := range alerts {
		assert.Equal(t, now, a.Timestamp)
		assert.True(t, strings.HasPrefix(a.ID, "ALERT"))
		assert.False(t, seen[a.ID], "duplicate alert id %s", a.ID)
		seen[a.ID] = true
	}
}

func TestEvaluate_TemperatureBothSides(t *testing.T) {
	e := NewEngine(DefaultThresholds())

	cold := healthy("AMA00001CI")
	cold.Sensors.Temperature = 4.9
	require.Len(t, e.Evaluate(cold), 1)

	boundary := healthy("AMA00002CI")
	boundary.Sensors.Temperature = 35
	assert.Empty(t, e.Evaluate(boundary))
}

func TestEvaluate_EdgeTriggeredWithHysteresis(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	u := healthy("AKE00009CI")

	steps := []struct {
		battery float64
		fires   bool
		latched bool
	}{
		{25, false, false},
		{19.9, true, true},  // falls below 20
		{19.5, false, true}, // still violating, already alerted
		{20.5, false, true}, // above threshold but inside the band
		{19.8, false, true}, // dips again without clearing
		{22, false, false},  // recovers past 20+2, latch clears
		{18, true, true},    // a new falling edge fires again
	}

	for i, step := range steps {
		u.Sensors.Battery = step.battery
		alerts := e.Evaluate(u)
		if step.fires {
			require.Len(t, alerts, 1, "step %d", i)
			assert.Equal(t, alert.KindLowBattery, alerts[0].Kind)
		} else {
			assert.Empty(t, alerts, "step %d", i)
		}
		assert.Equal(t, step.latched, e.IsLatched(u.ID, alert.KindLowBattery), "step %d", i)
	}
}

func TestEvaluate_LatchesArePerULDAndKind(t *testing.T) {
	e := NewEngine(DefaultThresholds())

	a := healthy("AKE00001CI")
	a.Sensors.ShockLevel = 6
	require.Len(t, e.Evaluate(a), 1)

	b := healthy("AKE00002CI")
	b.Sensors.ShockLevel = 6
	require.Len(t, e.Evaluate(b), 1)

	a.Sensors.Battery = 10
	alerts := e.Evaluate(a)
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.KindLowBattery, alerts[0].Kind)
}

func TestEvaluate_SteadyViolationAlertsOnce(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	u := healthy("AKE00003CI")
	u.Sensors.Battery = 15

	total := 0
	for i := 0; i < 6; i++ {
		total += len(e.Evaluate(u))
	}
	assert.Equal(t, 1, total)
	assert.True(t, e.IsLatched(u.ID, alert.KindLowBattery))
}

func TestNewAlertID_DistinctWithinSameMillisecond(t *testing.T) {
	ts := time.UnixMilli(1700000000000)
	ids := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		ids[NewAlertID(ts)] = struct{}{}
	}
	assert.Len(t, ids, 1000)
}
