// Package forecast provides demand forecasts for the prediction views. The
// default implementation is a stochastic placeholder; anything satisfying
// Forecaster can replace it.
package forecast

//go:generate mockgen -source=forecaster.go -destination=mock_forecaster.go -package=forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

type Forecaster interface {
	Forecast(ctx context.Context) (*Forecast, error)
}

type Forecast struct {
	DemandForecast          []DayDemand       `json:"demandForecast"`
	ShortageWarnings        []ShortageWarning `json:"shortageWarnings"`
	OptimizationSuggestions []Suggestion      `json:"optimizationSuggestions"`
}

// DayDemand is the predicted ULD demand per route for one day.
type DayDemand struct {
	Date   string
	Routes map[string]int
}

// MarshalJSON flattens routes next to the date, one chart series per route.
func (d DayDemand) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(d.Routes)+1)
	for route, n := range d.Routes {
		flat[route] = n
	}
	flat["date"] = d.Date
	return json.Marshal(flat)
}

type ShortageWarning struct {
	Airport           string `json:"airport"`
	PredictedShortage int    `json:"predictedShortage"`
	Timeframe         string `json:"timeframe"`
	Confidence        string `json:"confidence"`
}

type Suggestion struct {
	Type            string `json:"type"`
	Priority        string `json:"priority"`
	Suggestion      string `json:"suggestion"`
	EstimatedImpact string `json:"estimatedImpact"`
}

var (
	Routes           = []string{"TPE-LAX", "TPE-NRT", "TPE-SIN", "LAX-TPE", "NRT-TPE"}
	ShortageAirports = []string{"LAX", "NRT", "SIN"}
)

const HorizonDays = 7

// RandomForecaster draws plausible-looking numbers; it has no model behind it.
type RandomForecaster struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewRandomForecaster(rng *rand.Rand) *RandomForecaster {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomForecaster{rng: rng, now: time.Now}
}

func (f *RandomForecaster) Forecast(ctx context.Context) (*Forecast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	today := f.now()
	out := &Forecast{
		DemandForecast:          make([]DayDemand, 0, HorizonDays),
		ShortageWarnings:        []ShortageWarning{},
		OptimizationSuggestions: defaultSuggestions(),
	}

	for i := 0; i < HorizonDays; i++ {
		day := DayDemand{
			Date:   today.AddDate(0, 0, i).Format("2006-01-02"),
			Routes: make(map[string]int, len(Routes)),
		}
		for _, route := range Routes {
			day.Routes[route] = 5 + f.rng.Intn(15)
		}
		out.DemandForecast = append(out.DemandForecast, day)
	}

	for _, airport := range ShortageAirports {
		if f.rng.Float64() <= 0.5 {
			continue
		}
		out.ShortageWarnings = append(out.ShortageWarnings, ShortageWarning{
			Airport:           airport,
			PredictedShortage: 3 + f.rng.Intn(7),
			Timeframe:         "48 hours",
			Confidence:        fmt.Sprintf("%.1f%%", 85+f.rng.Float64()*10),
		})
	}

	return out, nil
}

func defaultSuggestions() []Suggestion {
	return []Suggestion{
		{
			Type:            "reallocation",
			Priority:        "high",
			Suggestion:      "Move 5 ULDs from TPE to LAX to prevent shortage",
			EstimatedImpact: "Reduce turnaround time by 1.2 hours",
		},
		{
			Type:            "maintenance",
			Priority:        "medium",
			Suggestion:      "Schedule maintenance for 8 ULDs with high usage",
			EstimatedImpact: "Prevent potential equipment failure",
		},
		{
			Type:            "efficiency",
			Priority:        "low",
			Suggestion:      "Optimize warehouse layout at NRT",
			EstimatedImpact: "Save 15 minutes per ULD retrieval",
		},
	}
}
