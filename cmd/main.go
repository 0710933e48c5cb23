package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"uld-tracker/internal/alerting"
	"uld-tracker/internal/broadcast"
	"uld-tracker/internal/config"
	"uld-tracker/internal/forecast"
	"uld-tracker/internal/infrastructure/memory"
	"uld-tracker/internal/ingestion"
	"uld-tracker/internal/logger"
	"uld-tracker/internal/metrics"
	"uld-tracker/internal/middleware"
	"uld-tracker/internal/routes"
	"uld-tracker/internal/simulation"
	"uld-tracker/internal/usecase/fleet"
	pkgmqtt "uld-tracker/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	uldRepo := memory.NewULDRepository()
	alertRepo := memory.NewAlertRepository(cfg.Alert.Capacity)
	if err := memory.SeedFleet(uldRepo, cfg.Fleet.SeedCount, rand.New(rand.NewSource(seed)), time.Now()); err != nil {
		logger.Fatal("Failed to seed fleet", zap.Error(err))
	}
	logger.Info("Fleet seeded", zap.Int("ulds", uldRepo.Count()), zap.Int64("seed", seed))

	thresholds := alerting.DefaultThresholds()
	thresholds.BatteryHysteresis = cfg.Alert.BatteryHysteresis
	thresholds.ShockHysteresis = cfg.Alert.ShockHysteresis
	thresholds.TemperatureHysteresis = cfg.Alert.TemperatureHysteresis

	m := metrics.New()

	hub := broadcast.NewHub(cfg.Broadcast.SubscriberBuffer, logger.Named("hub"))
	hub.SetObserver(m)

	fleetService := fleet.NewService(fleet.Dependencies{
		ULDs:       uldRepo,
		Alerts:     alertRepo,
		Engine:     alerting.NewEngine(thresholds),
		Hub:        hub,
		Forecaster: forecast.NewRandomForecaster(rand.New(rand.NewSource(seed + 1))),
		Recorder:   m,
		Logger:     logger.Named("fleet"),
	})

	ticker := simulation.NewTicker(
		fleetService,
		simulation.ModelFromConfig(cfg.Simulation),
		cfg.Simulation.TickInterval(),
		rand.New(rand.NewSource(seed+2)),
		logger.Named("simulation"),
	)
	ticker.SetObserver(m)
	if cfg.Simulation.Enabled {
		if err := ticker.Start(ctx); err != nil {
			logger.Fatal("Failed to start simulation", zap.Error(err))
		}
	}

	var (
		processor *ingestion.Processor
		intake    *ingestion.MQTTIngestionClient
		stopRelay = func() {}
	)
	if cfg.MQTT.Enabled {
		processor, intake, stopRelay = startMQTT(ctx, cfg, fleetService, m)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst)
	go limiter.RunCleanup(ctx, 5*time.Minute)

	router := routes.SetupRoutes(cfg, routes.Dependencies{
		Fleet:       fleetService,
		Ingestion:   processor,
		Metrics:     m,
		RateLimiter: limiter,
	})

	addr := cfg.Server.Addr()
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ticker.Stop()
	stopRelay()
	if intake != nil {
		intake.Stop()
	}
	if processor != nil {
		processor.Stop()
	}
	hub.Close()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

// startMQTT wires the telemetry intake and the alert relay onto one broker
// connection. A broker that cannot be reached is logged and the service runs
// without MQTT.
func startMQTT(ctx context.Context, cfg *config.Config, fleetService *fleet.Service, m *metrics.Metrics) (*ingestion.Processor, *ingestion.MQTTIngestionClient, func()) {
	noop := func() {}

	client := pkgmqtt.NewClient(&pkgmqtt.Config{
		Broker:               cfg.MQTT.Broker,
		ClientID:             cfg.MQTT.ClientID,
		Username:             cfg.MQTT.Username,
		Password:             cfg.MQTT.Password,
		CleanSession:         true,
		KeepAlive:            cfg.MQTT.KeepAlive,
		ConnectTimeout:       cfg.MQTT.ConnectTimeout,
		AutoReconnect:        true,
		MaxReconnectInterval: time.Minute,
	}, logger.Named("mqtt"))

	processor := ingestion.NewProcessor(fleetService, cfg.MQTT.Workers, cfg.MQTT.BufferSize, logger.Named("ingestion"))
	processor.Metrics().OnChange(m.ObserveIngestion)
	processor.Start()

	qos := byte(cfg.MQTT.QoS)
	intake, err := ingestion.NewMQTTIngestionClient(&ingestion.MQTTIngestionConfig{
		TelemetryTopic: cfg.MQTT.TelemetryTopic,
		QoS:            qos,
	}, client, processor, logger.Named("ingestion"))
	if err != nil {
		logger.Error("MQTT intake misconfigured, continuing without it", zap.Error(err))
		processor.Stop()
		return nil, nil, noop
	}

	if err := intake.Start(); err != nil {
		logger.Error("MQTT broker unavailable, continuing without it", zap.Error(err))
		processor.Stop()
		return nil, nil, noop
	}

	stopRelay := noop
	if cfg.MQTT.AlertTopic != "" {
		relay := ingestion.NewAlertRelay(fleetService, client, cfg.MQTT.AlertTopic, qos, logger.Named("alert-relay"))
		stopRelay = relay.Start(ctx)
	}

	return processor, intake, stopRelay
}
