package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cargo-tracker/internal/broadcast"
	"cargo-tracker/internal/config"
	"cargo-tracker/internal/delivery/http/handler"
	"cargo-tracker/internal/delivery/ws"
	domainGPS "cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/infrastructure/database/breaker"
	"cargo-tracker/internal/infrastructure/database/postgres"
	"cargo-tracker/internal/infrastructure/database/sqlite"
	"cargo-tracker/internal/ingestion"
	"cargo-tracker/internal/logger"
	"cargo-tracker/internal/routes"
	"cargo-tracker/internal/tracking"
	usecaseGPS "cargo-tracker/internal/usecase/gps"
	pkgmqtt "cargo-tracker/pkg/mqtt"
	pkgredis "cargo-tracker/pkg/redis"

	"go.uber.org/zap"
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
		zap.String("db_driver", cfg.Database.Driver),
	)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Fatal("Failed to open tracking store", zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("Failed to close tracking store", zap.Error(err))
		}
	}()

	repo := breaker.NewStore(store, breaker.Settings{
		Name:             "tracking-store",
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Timeout:          cfg.Breaker.Timeout,
	})

	trackingService := tracking.NewService(cfg.GPS.SweepInterval, cfg.GPS.StaleTimeout)
	trackingService.Start()

	var mqttClient *pkgmqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient = pkgmqtt.NewClient(&pkgmqtt.Config{
			Broker:               cfg.MQTT.Broker,
			ClientID:             cfg.MQTT.ClientID,
			Username:             cfg.MQTT.Username,
			Password:             cfg.MQTT.Password,
			CleanSession:         true,
			KeepAlive:            30,
			ConnectTimeout:       10,
			AutoReconnect:        true,
			MaxReconnectInterval: time.Minute,
		})
	}

	sinks := broadcast.NewMulti().Add("log", broadcast.NewLog())
	if mqttClient != nil {
		sinks.Add("mqtt", broadcast.NewMQTT(mqttClient, cfg.MQTT.BroadcastTopic, cfg.MQTT.QoS))
	}
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.Connect(pkgredis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		sinks.Add("redis", broadcast.NewRedis(redisClient, cfg.Redis.BroadcastChannel))
	}

	var estimator ingestion.ProgressEstimator = ingestion.NewRandomEstimator(cfg.GPS.ETAHorizon)
	if cfg.GPS.ProgressStrategy == "haversine" {
		estimator = ingestion.NewHaversineEstimator(repo, cfg.GPS.ETAHorizon)
	}

	processor := ingestion.NewProcessor(trackingService.Registry, repo,
		ingestion.WithEstimator(estimator),
		ingestion.WithGeocoder(ingestion.CoordinateGeocoder{}),
		ingestion.WithBroadcaster(sinks),
		ingestion.WithETAHorizon(cfg.GPS.ETAHorizon),
	)
	dispatcher := ingestion.NewDispatcher(trackingService, processor, ingestion.DeviceConfig{
		ReportingInterval: cfg.GPS.ReportingInterval,
		HighAccuracyMode:  cfg.GPS.HighAccuracyMode,
	})

	var mqttIngestion *ingestion.MQTTIngestionClient
	if mqttClient != nil {
		mqttIngestion, err = ingestion.NewMQTTIngestionClient(&ingestion.MQTTIngestionConfig{
			RegisterTopic:  cfg.MQTT.RegisterTopic,
			LocationTopic:  cfg.MQTT.LocationTopic,
			StatusTopic:    cfg.MQTT.StatusTopic,
			HeartbeatTopic: cfg.MQTT.HeartbeatTopic,
			QoS:            cfg.MQTT.QoS,
		}, mqttClient, dispatcher)
		if err != nil {
			logger.Fatal("Failed to create MQTT ingestion client", zap.Error(err))
		}
		if err := mqttIngestion.Start(); err != nil {
			logger.Fatal("Failed to start MQTT ingestion", zap.Error(err))
		}
	}

	gpsService := usecaseGPS.NewService(trackingService, dispatcher, repo,
		usecaseGPS.WithClearPreviousBinding(cfg.GPS.ClearPreviousBinding),
	)
	gpsHandler := handler.NewGPSHandler(gpsService, cfg.Server.PublicWSURL)
	wsHandler := ws.NewHandler(dispatcher, cfg.GPS.CommandSendBufferLimit)

	router := routes.SetupRoutes(cfg, gpsHandler, wsHandler)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	// No WriteTimeout: it would also cut hijacked websocket connections.
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
	}
	wsHandler.Shutdown()
	if mqttIngestion != nil {
		mqttIngestion.Stop()
	}
	trackingService.Stop()

	log.Println("Server exited properly")
}

// openStore opens the configured backend. The returned func releases it.
func openStore(cfg *config.Config) (domainGPS.Repository, func() error, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.NewDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return postgres.NewTrackingRepository(db), db.Close, nil
	case "sqlite":
		store, err := sqlite.NewStore(cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("SQLite store opened", zap.String("path", cfg.Database.SQLitePath))
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
