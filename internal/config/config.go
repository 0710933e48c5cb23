package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"uld-tracker/internal/alerting"
)

type Config struct {
	Server     ServerConfig
	Fleet      FleetConfig
	Simulation SimulationConfig
	Alert      AlertConfig
	Broadcast  BroadcastConfig
	MQTT       MQTTConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type FleetConfig struct {
	SeedCount int // Sample ULDs created at startup
}

type SimulationConfig struct {
	Enabled                 bool
	TickIntervalMS          int
	InclusionProbability    float64 // p: chance an asset is advanced on a tick
	AnalyticsProbability    float64 // q: chance a snapshot is broadcast after a tick
	BatteryDrain            float64 // battery % removed per tick while in-use
	ZoneChangeProbability   float64
	StatusChangeProbability float64
	ShockSpikeProbability   float64
	Seed                    int64 // 0 means time-seeded
}

type AlertConfig struct {
	Capacity              int
	BatteryHysteresis     float64
	ShockHysteresis       float64
	TemperatureHysteresis float64
}

type BroadcastConfig struct {
	SubscriberBuffer int
}

type MQTTConfig struct {
	Enabled        bool
	Broker         string
	ClientID       string
	Username       string
	Password       string
	TelemetryTopic string
	AlertTopic     string
	QoS            int
	KeepAlive      int // seconds
	ConnectTimeout int // seconds
	Workers        int
	BufferSize     int
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "3000")
	v.SetDefault("ENVIRONMENT", "development")

	v.SetDefault("FLEET_SEED_COUNT", 50)

	v.SetDefault("SIM_ENABLED", true)
	v.SetDefault("SIM_TICK_INTERVAL_MS", 5000)
	v.SetDefault("SIM_INCLUSION_PROBABILITY", 0.4)
	v.SetDefault("SIM_ANALYTICS_PROBABILITY", 0.2)
	v.SetDefault("SIM_BATTERY_DRAIN", 0.1)
	v.SetDefault("SIM_ZONE_CHANGE_PROBABILITY", 0.1)
	v.SetDefault("SIM_STATUS_CHANGE_PROBABILITY", 0.05)
	v.SetDefault("SIM_SHOCK_SPIKE_PROBABILITY", 0.05)
	v.SetDefault("SIM_SEED", 0)

	v.SetDefault("ALERT_CAPACITY", 100)
	v.SetDefault("ALERT_BATTERY_HYSTERESIS", 2.0)
	v.SetDefault("ALERT_SHOCK_HYSTERESIS", 0.5)
	v.SetDefault("ALERT_TEMPERATURE_HYSTERESIS", 1.0)

	v.SetDefault("BROADCAST_BUFFER", 64)

	v.SetDefault("MQTT_ENABLED", false)
	v.SetDefault("MQTT_BROKER", "tcp://localhost:1883")
	v.SetDefault("MQTT_CLIENT_ID", "uld-tracker")
	v.SetDefault("MQTT_TELEMETRY_TOPIC", "uld/+/telemetry")
	v.SetDefault("MQTT_ALERT_TOPIC", "uld/alerts")
	v.SetDefault("MQTT_QOS", 1)
	v.SetDefault("MQTT_KEEP_ALIVE", 30)
	v.SetDefault("MQTT_CONNECT_TIMEOUT", 10)
	v.SetDefault("MQTT_WORKERS", 2)
	v.SetDefault("MQTT_BUFFER_SIZE", 1024)

	v.SetDefault("RATE_LIMIT_GENERAL_RPS", 50.0)
	v.SetDefault("RATE_LIMIT_GENERAL_BURST", 100)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS")
	v.SetDefault("CORS_ALLOWED_HEADERS", "Origin,Content-Type,Accept,X-Request-ID")
	v.SetDefault("CORS_EXPOSED_HEADERS", "X-Request-ID")
	v.SetDefault("CORS_MAX_AGE", 43200)
}

// Load reads ".env" from the working directory (if present) and the environment.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit env-file path.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file %s not found. Falling back to environment variables only.", path)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        v.GetString("SERVER_PORT"),
			Host:        v.GetString("SERVER_HOST"),
			Environment: v.GetString("ENVIRONMENT"),
		},
		Fleet: FleetConfig{
			SeedCount: v.GetInt("FLEET_SEED_COUNT"),
		},
		Simulation: SimulationConfig{
			Enabled:                 v.GetBool("SIM_ENABLED"),
			TickIntervalMS:          v.GetInt("SIM_TICK_INTERVAL_MS"),
			InclusionProbability:    v.GetFloat64("SIM_INCLUSION_PROBABILITY"),
			AnalyticsProbability:    v.GetFloat64("SIM_ANALYTICS_PROBABILITY"),
			BatteryDrain:            v.GetFloat64("SIM_BATTERY_DRAIN"),
			ZoneChangeProbability:   v.GetFloat64("SIM_ZONE_CHANGE_PROBABILITY"),
			StatusChangeProbability: v.GetFloat64("SIM_STATUS_CHANGE_PROBABILITY"),
			ShockSpikeProbability:   v.GetFloat64("SIM_SHOCK_SPIKE_PROBABILITY"),
			Seed:                    v.GetInt64("SIM_SEED"),
		},
		Alert: AlertConfig{
			Capacity:              v.GetInt("ALERT_CAPACITY"),
			BatteryHysteresis:     v.GetFloat64("ALERT_BATTERY_HYSTERESIS"),
			ShockHysteresis:       v.GetFloat64("ALERT_SHOCK_HYSTERESIS"),
			TemperatureHysteresis: v.GetFloat64("ALERT_TEMPERATURE_HYSTERESIS"),
		},
		Broadcast: BroadcastConfig{
			SubscriberBuffer: v.GetInt("BROADCAST_BUFFER"),
		},
		MQTT: MQTTConfig{
			Enabled:        v.GetBool("MQTT_ENABLED"),
			Broker:         v.GetString("MQTT_BROKER"),
			ClientID:       v.GetString("MQTT_CLIENT_ID"),
			Username:       v.GetString("MQTT_USERNAME"),
			Password:       v.GetString("MQTT_PASSWORD"),
			TelemetryTopic: v.GetString("MQTT_TELEMETRY_TOPIC"),
			AlertTopic:     v.GetString("MQTT_ALERT_TOPIC"),
			QoS:            v.GetInt("MQTT_QOS"),
			KeepAlive:      v.GetInt("MQTT_KEEP_ALIVE"),
			ConnectTimeout: v.GetInt("MQTT_CONNECT_TIMEOUT"),
			Workers:        v.GetInt("MQTT_WORKERS"),
			BufferSize:     v.GetInt("MQTT_BUFFER_SIZE"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   v.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: v.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods:   splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders:   splitList(v.GetString("CORS_ALLOWED_HEADERS")),
			ExposedHeaders:   splitList(v.GetString("CORS_EXPOSED_HEADERS")),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetInt("CORS_MAX_AGE"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the simulation and alerting cannot run with.
func (c *Config) Validate() error {
	probabilities := map[string]float64{
		"SIM_INCLUSION_PROBABILITY":     c.Simulation.InclusionProbability,
		"SIM_ANALYTICS_PROBABILITY":     c.Simulation.AnalyticsProbability,
		"SIM_ZONE_CHANGE_PROBABILITY":   c.Simulation.ZoneChangeProbability,
		"SIM_STATUS_CHANGE_PROBABILITY": c.Simulation.StatusChangeProbability,
		"SIM_SHOCK_SPIKE_PROBABILITY":   c.Simulation.ShockSpikeProbability,
	}
	for key, p := range probabilities {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", key, p)
		}
	}

	if c.Simulation.TickIntervalMS <= 0 {
		return fmt.Errorf("SIM_TICK_INTERVAL_MS must be positive, got %d", c.Simulation.TickIntervalMS)
	}
	if c.Simulation.BatteryDrain < 0 {
		return fmt.Errorf("SIM_BATTERY_DRAIN must not be negative, got %v", c.Simulation.BatteryDrain)
	}
	if c.Alert.Capacity <= 0 {
		return fmt.Errorf("ALERT_CAPACITY must be positive, got %d", c.Alert.Capacity)
	}
	if c.Fleet.SeedCount < 0 {
		return fmt.Errorf("FLEET_SEED_COUNT must not be negative, got %d", c.Fleet.SeedCount)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.Server.Port != "" {
		if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("SERVER_PORT must be a number within [1,65535], got %q", c.Server.Port)
		}
	}

	return c.Alert.validateHysteresis()
}

// validateHysteresis keeps every recovery band non-negative and reachable, so
// a latched rule can always clear.
func (a AlertConfig) validateHysteresis() error {
	limits := alerting.DefaultThresholds()

	if a.BatteryHysteresis < 0 || limits.LowBattery+a.BatteryHysteresis > 100 {
		return fmt.Errorf("ALERT_BATTERY_HYSTERESIS must be within [0,%v], got %v",
			100-limits.LowBattery, a.BatteryHysteresis)
	}
	if a.ShockHysteresis < 0 || a.ShockHysteresis >= limits.HighShock {
		return fmt.Errorf("ALERT_SHOCK_HYSTERESIS must be within [0,%v), got %v",
			limits.HighShock, a.ShockHysteresis)
	}
	span := limits.TemperatureMax - limits.TemperatureMin
	if a.TemperatureHysteresis < 0 || a.TemperatureHysteresis*2 >= span {
		return fmt.Errorf("ALERT_TEMPERATURE_HYSTERESIS must be within [0,%v), got %v",
			span/2, a.TemperatureHysteresis)
	}
	return nil
}

func (s SimulationConfig) TickInterval() time.Duration {
	return time.Duration(s.TickIntervalMS) * time.Millisecond
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Addr is host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	host := s.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := s.Port
	if port == "" {
		port = "3000"
	}
	return net.JoinHostPort(host, port)
}

// IsProduction reports whether ENVIRONMENT is "production".
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}
