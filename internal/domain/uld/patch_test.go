package uld

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestPatchValidate(t *testing.T) {
	tests := []struct {
		name  string
		patch *Patch
		field string
	}{
		{"nil patch", nil, "patch"},
		{"empty patch", &Patch{}, ""},
		{"lat out of range", &Patch{Location: &LocationPatch{Lat: ptr(91.0)}}, "location.lat"},
		{"lng out of range", &Patch{Location: &LocationPatch{Lng: ptr(-181.0)}}, "location.lng"},
		{"NaN temperature", &Patch{Sensors: &SensorsPatch{Temperature: ptr(math.NaN())}}, "sensors.temperature"},
		{"battery over 100", &Patch{Sensors: &SensorsPatch{Battery: ptr(100.5)}}, "sensors.battery"},
		{"negative humidity", &Patch{Sensors: &SensorsPatch{Humidity: ptr(-1.0)}}, "sensors.humidity"},
		{"infinite shock", &Patch{Sensors: &SensorsPatch{ShockLevel: ptr(math.Inf(1))}}, "sensors.shockLevel"},
		{"unknown status", &Patch{Status: ptr(Status("stolen"))}, "status"},
		{"hot but valid report", &Patch{Sensors: &SensorsPatch{Temperature: ptr(55.0)}}, ""},
		{"lost status", &Patch{Status: ptr(StatusLost)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestPatchApply_LeavesOmittedFieldsUntouched(t *testing.T) {
	u := &ULD{
		ID:       "AKE00001CI",
		Status:   StatusInUse,
		Location: Location{Lat: 1, Lng: 2, Zone: "TPE_Customs", Airport: "TPE"},
		Sensors:  Sensors{Temperature: 20, Humidity: 50, ShockLevel: 0.2, Battery: 80},
	}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	patch := &Patch{Sensors: &SensorsPatch{Battery: ptr(10.0)}}
	patch.Apply(u, now)

	assert.Equal(t, 10.0, u.Sensors.Battery)
	assert.Equal(t, 20.0, u.Sensors.Temperature)
	assert.Equal(t, 50.0, u.Sensors.Humidity)
	assert.Equal(t, "TPE_Customs", u.Location.Zone)
	assert.Equal(t, StatusInUse, u.Status)
	assert.Equal(t, now, u.LastUpdate)
}

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("").Valid())
	assert.NotContains(t, ActiveStatuses, StatusLost)
}
