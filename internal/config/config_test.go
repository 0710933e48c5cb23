package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Simulation.TickInterval())
	assert.InDelta(t, 0.4, cfg.Simulation.InclusionProbability, 1e-9)
	assert.InDelta(t, 0.2, cfg.Simulation.AnalyticsProbability, 1e-9)
	assert.InDelta(t, 0.1, cfg.Simulation.BatteryDrain, 1e-9)
	assert.Equal(t, 100, cfg.Alert.Capacity)
	assert.Equal(t, 50, cfg.Fleet.SeedCount)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "uld/+/telemetry", cfg.MQTT.TelemetryTopic)
}

func TestLoadFrom_ReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "SERVER_PORT=9090\nSIM_TICK_INTERVAL_MS=250\nALERT_CAPACITY=10\nCORS_ALLOWED_ORIGINS=http://a.test, http://b.test\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Simulation.TickInterval())
	assert.Equal(t, 10, cfg.Alert.Capacity)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestLoadFrom_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SIM_INCLUSION_PROBABILITY", "0.9")
	t.Setenv("MQTT_ENABLED", "true")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.InDelta(t, 0.9, cfg.Simulation.InclusionProbability, 1e-9)
	assert.True(t, cfg.MQTT.Enabled)
}

func TestLoadFrom_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"probability above one", "SIM_ANALYTICS_PROBABILITY", "1.5"},
		{"negative probability", "SIM_INCLUSION_PROBABILITY", "-0.1"},
		{"zero interval", "SIM_TICK_INTERVAL_MS", "0"},
		{"negative drain", "SIM_BATTERY_DRAIN", "-1"},
		{"zero capacity", "ALERT_CAPACITY", "0"},
		{"bad qos", "MQTT_QOS", "3"},
		{"negative battery band", "ALERT_BATTERY_HYSTERESIS", "-5"},
		{"battery band past full charge", "ALERT_BATTERY_HYSTERESIS", "81"},
		{"negative shock band", "ALERT_SHOCK_HYSTERESIS", "-0.5"},
		{"shock band reaching zero", "ALERT_SHOCK_HYSTERESIS", "5"},
		{"negative temperature band", "ALERT_TEMPERATURE_HYSTERESIS", "-1"},
		{"temperature bands overlapping", "ALERT_TEMPERATURE_HYSTERESIS", "15"},
		{"zero port", "SERVER_PORT", "0"},
		{"port out of range", "SERVER_PORT", "70000"},
		{"non-numeric port", "SERVER_PORT", "http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadFrom_AcceptsHysteresisAtBounds(t *testing.T) {
	t.Setenv("ALERT_BATTERY_HYSTERESIS", "0")
	t.Setenv("ALERT_SHOCK_HYSTERESIS", "4.9")
	t.Setenv("ALERT_TEMPERATURE_HYSTERESIS", "14.5")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Zero(t, cfg.Alert.BatteryHysteresis)
	assert.InDelta(t, 4.9, cfg.Alert.ShockHysteresis, 1e-9)
	assert.InDelta(t, 14.5, cfg.Alert.TemperatureHysteresis, 1e-9)
}

func TestServerConfig_Addr(t *testing.T) {
	assert.Equal(t, "0.0.0.0:3000", ServerConfig{}.Addr())
	assert.Equal(t, "127.0.0.1:8081", ServerConfig{Host: "127.0.0.1", Port: "8081"}.Addr())
	assert.True(t, ServerConfig{Environment: "Production"}.IsProduction())
}
