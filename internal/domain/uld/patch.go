package uld

import (
	"fmt"
	"math"
	"time"

	appErrors "uld-tracker/pkg/errors"
)

// Patch is an inbound telemetry report. Nil fields are left untouched.
type Patch struct {
	Location *LocationPatch
	Sensors  *SensorsPatch
	Status   *Status
}

type LocationPatch struct {
	Lat     *float64
	Lng     *float64
	Zone    *string
	Airport *string
}

type SensorsPatch struct {
	Temperature *float64
	Humidity    *float64
	ShockLevel  *float64
	Battery     *float64
}

// ValidationError names the first offending field of a patch.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return appErrors.ErrInvalidPatch
}

// Validate checks every field of the patch. Reported temperatures outside the
// simulated band are accepted: they are exactly what the alert rules look for.
func (p *Patch) Validate() error {
	if p == nil {
		return &ValidationError{Field: "patch", Message: "patch is required"}
	}

	if l := p.Location; l != nil {
		if l.Lat != nil && !within(*l.Lat, -90, 90) {
			return &ValidationError{Field: "location.lat", Message: "lat must be between -90 and 90"}
		}
		if l.Lng != nil && !within(*l.Lng, -180, 180) {
			return &ValidationError{Field: "location.lng", Message: "lng must be between -180 and 180"}
		}
		if l.Zone != nil && len(*l.Zone) > 128 {
			return &ValidationError{Field: "location.zone", Message: "zone must be at most 128 characters"}
		}
		if l.Airport != nil && len(*l.Airport) > 8 {
			return &ValidationError{Field: "location.airport", Message: "airport must be at most 8 characters"}
		}
	}

	if s := p.Sensors; s != nil {
		if s.Temperature != nil && !within(*s.Temperature, -100, 100) {
			return &ValidationError{Field: "sensors.temperature", Message: "temperature must be between -100 and 100"}
		}
		if s.Humidity != nil && !within(*s.Humidity, 0, 100) {
			return &ValidationError{Field: "sensors.humidity", Message: "humidity must be between 0 and 100"}
		}
		if s.ShockLevel != nil && !within(*s.ShockLevel, 0, 50) {
			return &ValidationError{Field: "sensors.shockLevel", Message: "shockLevel must be between 0 and 50"}
		}
		if s.Battery != nil && !within(*s.Battery, 0, 100) {
			return &ValidationError{Field: "sensors.battery", Message: "battery must be between 0 and 100"}
		}
	}

	if p.Status != nil && !p.Status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", *p.Status)}
	}

	return nil
}

// Apply writes the patch onto u and stamps LastUpdate. The patch must be valid.
func (p *Patch) Apply(u *ULD, now time.Time) {
	if l := p.Location; l != nil {
		if l.Lat != nil {
			u.Location.Lat = *l.Lat
		}
		if l.Lng != nil {
			u.Location.Lng = *l.Lng
		}
		if l.Zone != nil {
			u.Location.Zone = *l.Zone
		}
		if l.Airport != nil {
			u.Location.Airport = *l.Airport
		}
	}

	if s := p.Sensors; s != nil {
		if s.Temperature != nil {
			u.Sensors.Temperature = *s.Temperature
		}
		if s.Humidity != nil {
			u.Sensors.Humidity = *s.Humidity
		}
		if s.ShockLevel != nil {
			u.Sensors.ShockLevel = *s.ShockLevel
		}
		if s.Battery != nil {
			u.Sensors.Battery = *s.Battery
		}
	}

	if p.Status != nil {
		u.Status = *p.Status
	}

	u.LastUpdate = now
}

func within(v, lo, hi float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= lo && v <= hi
}
