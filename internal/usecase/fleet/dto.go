package fleet

import (
	"strings"

	"uld-tracker/internal/domain/uld"
	"uld-tracker/pkg/utils"
)

// ReportTelemetryRequest is the body of an inbound telemetry report, over HTTP
// or MQTT. Every section is optional.
type ReportTelemetryRequest struct {
	Location *LocationRequest `json:"location"`
	Sensors  *SensorsRequest  `json:"sensors"`
	Status   *string          `json:"status" validate:"omitempty,oneof=available in-use in-transit maintenance lost"`
}

type LocationRequest struct {
	Lat     *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lng     *float64 `json:"lng" validate:"omitempty,min=-180,max=180"`
	Zone    *string  `json:"zone" validate:"omitempty,max=128"`
	Airport *string  `json:"airport" validate:"omitempty,max=8"`
}

type SensorsRequest struct {
	Temperature *float64 `json:"temperature" validate:"omitempty,min=-100,max=100"`
	Humidity    *float64 `json:"humidity" validate:"omitempty,min=0,max=100"`
	ShockLevel  *float64 `json:"shockLevel" validate:"omitempty,min=0,max=50"`
	Battery     *float64 `json:"battery" validate:"omitempty,min=0,max=100"`
}

// ToPatch converts the request into a domain patch.
func (r *ReportTelemetryRequest) ToPatch() *uld.Patch {
	patch := &uld.Patch{}

	if r.Location != nil {
		patch.Location = &uld.LocationPatch{
			Lat: r.Location.Lat,
			Lng: r.Location.Lng,
		}
		if r.Location.Zone != nil {
			zone := utils.SanitizeText(*r.Location.Zone)
			patch.Location.Zone = &zone
		}
		if r.Location.Airport != nil {
			airport := utils.SanitizeID(*r.Location.Airport)
			patch.Location.Airport = &airport
		}
	}

	if r.Sensors != nil {
		patch.Sensors = &uld.SensorsPatch{
			Temperature: r.Sensors.Temperature,
			Humidity:    r.Sensors.Humidity,
			ShockLevel:  r.Sensors.ShockLevel,
			Battery:     r.Sensors.Battery,
		}
	}

	if r.Status != nil {
		status := uld.Status(*r.Status)
		patch.Status = &status
	}

	return patch
}

// ListULDsRequest narrows a listing; empty fields match everything.
type ListULDsRequest struct {
	Status  string `form:"status" validate:"omitempty,oneof=available in-use in-transit maintenance lost"`
	Airport string `form:"airport" validate:"omitempty,len=3,alpha"`
	Type    string `form:"type" validate:"omitempty,oneof=AKE AKN AMA AAP"`
}

func (r *ListULDsRequest) Matches(u *uld.ULD) bool {
	if r.Status != "" && string(u.Status) != r.Status {
		return false
	}
	if r.Airport != "" && !strings.EqualFold(u.Airport, r.Airport) {
		return false
	}
	if r.Type != "" && string(u.Type) != r.Type {
		return false
	}
	return true
}

type AlertsRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=1000"`
}
