package simulation

import (
	"fmt"
	"math/rand"

	"uld-tracker/internal/config"
	"uld-tracker/internal/domain/uld"
)

const (
	JitterRadius = 0.025 // degrees around the home airport

	TemperatureMin  = 10.0
	TemperatureMax  = 40.0
	TemperatureStep = 1.0

	HumidityMin  = 30.0
	HumidityMax  = 90.0
	HumidityStep = 2.5

	BatteryMin = 0.0
	BatteryMax = 100.0

	ShockIdleMax  = 0.5
	ShockSpikeMin = 3.0
	ShockSpikeMax = 7.0
)

// Model holds the per-tick random-walk parameters.
type Model struct {
	InclusionProbability    float64
	AnalyticsProbability    float64
	BatteryDrain            float64
	ZoneChangeProbability   float64
	StatusChangeProbability float64
	ShockSpikeProbability   float64
}

func DefaultModel() Model {
	return Model{
		InclusionProbability:    0.4,
		AnalyticsProbability:    0.2,
		BatteryDrain:            0.1,
		ZoneChangeProbability:   0.1,
		StatusChangeProbability: 0.05,
		ShockSpikeProbability:   0.05,
	}
}

func ModelFromConfig(cfg config.SimulationConfig) Model {
	return Model{
		InclusionProbability:    cfg.InclusionProbability,
		AnalyticsProbability:    cfg.AnalyticsProbability,
		BatteryDrain:            cfg.BatteryDrain,
		ZoneChangeProbability:   cfg.ZoneChangeProbability,
		StatusChangeProbability: cfg.StatusChangeProbability,
		ShockSpikeProbability:   cfg.ShockSpikeProbability,
	}
}

// Advance moves u one tick forward.
//
// Position is re-drawn around the home airport each tick rather than walked, so
// a unit never drifts away. Temperature and humidity walk and are clamped, which
// also pulls an out-of-band reported value back into the simulated range.
// A lost unit keeps its status.
func (m Model) Advance(u *uld.ULD, rng *rand.Rand) {
	if home, ok := uld.LookupAirport(u.Airport); ok {
		u.Location.Lat = home.Lat + uniform(rng, -JitterRadius, JitterRadius)
		u.Location.Lng = home.Lng + uniform(rng, -JitterRadius, JitterRadius)
		u.Location.Airport = home.Code
	}

	if rng.Float64() < m.ZoneChangeProbability {
		u.Location.Zone = fmt.Sprintf("%s_%s", u.Airport, uld.Zones[rng.Intn(len(uld.Zones))])
	}

	u.Sensors.Temperature = clamp(u.Sensors.Temperature+uniform(rng, -TemperatureStep, TemperatureStep), TemperatureMin, TemperatureMax)
	u.Sensors.Humidity = clamp(u.Sensors.Humidity+uniform(rng, -HumidityStep, HumidityStep), HumidityMin, HumidityMax)

	if u.Status == uld.StatusInUse {
		u.Sensors.Battery -= m.BatteryDrain
	}
	u.Sensors.Battery = clamp(u.Sensors.Battery, BatteryMin, BatteryMax)

	if rng.Float64() < m.ShockSpikeProbability {
		u.Sensors.ShockLevel = uniform(rng, ShockSpikeMin, ShockSpikeMax)
	} else {
		u.Sensors.ShockLevel = uniform(rng, 0, ShockIdleMax)
	}

	if u.Status != uld.StatusLost && rng.Float64() < m.StatusChangeProbability {
		u.Status = uld.ActiveStatuses[rng.Intn(len(uld.ActiveStatuses))]
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
