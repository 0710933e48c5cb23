package memory

import (
	"fmt"
	"math/rand"
	"time"

	"uld-tracker/internal/domain/uld"
)

// SeedFleet creates n sample ULDs spread over the known airports and types.
// Ids follow the carrier format <TYPE><5-digit serial>CI.
func SeedFleet(repo uld.Repository, n int, rng *rand.Rand, now time.Time) error {
	for i := 1; i <= n; i++ {
		code := uld.AirportCodes[rng.Intn(len(uld.AirportCodes))]
		airport := uld.Airports[code]
		typ := uld.Types[rng.Intn(len(uld.Types))]
		status := uld.ActiveStatuses[rng.Intn(len(uld.ActiveStatuses))]

		u := &uld.ULD{
			ID:      fmt.Sprintf("%s%05dCI", typ, i),
			Type:    typ,
			Status:  status,
			Airport: code,
			Location: uld.Location{
				Lat:     airport.Lat + (rng.Float64()-0.5)*0.05,
				Lng:     airport.Lng + (rng.Float64()-0.5)*0.05,
				Zone:    fmt.Sprintf("%s_Warehouse_%c%d", code, 'A'+rune(rng.Intn(5)), rng.Intn(10)),
				Airport: code,
			},
			Sensors: uld.Sensors{
				Temperature: 20 + rng.Float64()*10,
				Humidity:    50 + rng.Float64()*30,
				ShockLevel:  rng.Float64() * 2,
				Battery:     60 + rng.Float64()*40,
			},
			LastUpdate: now,
			CreatedAt:  now.Add(-time.Duration(rng.Float64() * float64(365*24*time.Hour))),
		}

		if err := repo.Create(u); err != nil {
			return fmt.Errorf("seed %s: %w", u.ID, err)
		}
	}
	return nil
}
