package analytics

import (
	"math"
	"time"

	"uld-tracker/internal/domain/uld"
)

// Snapshot is a full recomputation of fleet state; nothing is carried over
// between snapshots.
type Snapshot struct {
	TotalULDs       int            `json:"totalULDs"`
	Available       int            `json:"available"`
	InUse           int            `json:"inUse"`
	InTransit       int            `json:"inTransit"`
	Maintenance     int            `json:"maintenance"`
	Lost            int            `json:"lost"`
	UtilizationRate float64        `json:"utilizationRate"`
	LowBattery      int            `json:"lowBattery"`
	ByAirport       map[string]int `json:"byAirport"`

	// Placeholders until real turnaround/audit data exists. Both are
	// deterministic in the status counts and bounded: turnaround in [2.5,4.5]
	// hours, accuracy in [92,98] percent.
	AvgTurnaroundTime float64 `json:"avgTurnaroundTime"`
	RecordAccuracy    float64 `json:"recordAccuracy"`

	GeneratedAt time.Time `json:"generatedAt"`
}

const (
	BaseTurnaroundHours = 2.5
	BaseRecordAccuracy  = 98.0
)

type Source interface {
	List() []uld.ULD
}

type Aggregator struct {
	source     Source
	lowBattery float64
	now        func() time.Time
}

// NewAggregator counts ULDs under lowBatteryThreshold as low battery.
func NewAggregator(source Source, lowBatteryThreshold float64) *Aggregator {
	return &Aggregator{
		source:     source,
		lowBattery: lowBatteryThreshold,
		now:        time.Now,
	}
}

func (a *Aggregator) Compute() Snapshot {
	return Summarize(a.source.List(), a.lowBattery, a.now())
}

// Summarize derives a Snapshot from ulds.
func Summarize(ulds []uld.ULD, lowBatteryThreshold float64, at time.Time) Snapshot {
	s := Snapshot{
		TotalULDs:   len(ulds),
		ByAirport:   make(map[string]int),
		GeneratedAt: at,
	}

	for i := range ulds {
		u := &ulds[i]
		switch u.Status {
		case uld.StatusAvailable:
			s.Available++
		case uld.StatusInUse:
			s.InUse++
		case uld.StatusInTransit:
			s.InTransit++
		case uld.StatusMaintenance:
			s.Maintenance++
		case uld.StatusLost:
			s.Lost++
		}
		if u.Sensors.Battery < lowBatteryThreshold {
			s.LowBattery++
		}
		s.ByAirport[u.Airport]++
	}

	if s.TotalULDs == 0 {
		s.AvgTurnaroundTime = BaseTurnaroundHours
		s.RecordAccuracy = BaseRecordAccuracy
		return s
	}

	total := float64(s.TotalULDs)
	s.UtilizationRate = round1(100 * float64(s.InUse) / total)
	s.AvgTurnaroundTime = round1(BaseTurnaroundHours + 2*float64(s.Maintenance+s.Lost)/total)
	s.RecordAccuracy = round1(BaseRecordAccuracy - 6*float64(s.Lost)/total)
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
