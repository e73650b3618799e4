// Main entry point for the mission control dashboard service
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mission-control/internal/clients"
	"mission-control/internal/config"
	"mission-control/internal/domain"
	"mission-control/internal/events"
	"mission-control/internal/handlers"
	"mission-control/internal/metrics"
	"mission-control/internal/repo"
	"mission-control/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// Initialize logger
	var logger *zap.Logger
	switch cfg.LogLevel {
	case "debug":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.String("nasa_api_base", cfg.NasaAPIBase),
		zap.Bool("demo_key", cfg.NasaAPIKey == config.DefaultAPIKey),
		zap.String("timezone", cfg.Viewer.Location.String()),
		zap.Stringer("locale", cfg.Viewer.Locale))

	metrics.Register(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := services.Options{Logger: logger}

	// Optional fetch journal
	var journal handlers.JournalReader
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Unable to connect to database", zap.Error(err))
		}
		if err := repo.InitDB(ctx, pool); err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		journalRepo := repo.NewJournalRepo(pool)
		opts.Journal = journalRepo
		journal = journalRepo
		logger.Info("Fetch journal enabled")
	}

	// Optional panel state broadcast
	var publisher *events.Publisher
	if cfg.MQTT.Enabled() {
		publisher, err = events.NewPublisher(&events.Config{
			BrokerURL:   cfg.MQTT.BrokerURL,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create MQTT publisher", zap.Error(err))
		}
		if err := publisher.Connect(); err != nil {
			logger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		opts.Notifier = publisher
	}

	nasa := clients.NewNasaClient(cfg.NasaAPIBase, cfg.NasaAPIKey, cfg.HTTPTimeout)

	rover, err := services.ParseRover(cfg.Defaults.Rover)
	if err != nil {
		logger.Warn("Ignoring configured default rover", zap.Error(err))
		rover = domain.RoverCuriosity
	}
	dashboard := &services.Dashboard{
		Apod: services.NewApodController(nasa, services.Today(time.Now(), cfg.Viewer.Location), opts),
		Rover: services.NewRoverController(nasa, domain.RoverQuery{
			Rover: rover,
			Sol:   services.ClampSol(cfg.Defaults.Sol),
		}, opts),
	}
	dashboard.Start(ctx)

	// Setup HTTP server
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.LoggingMiddleware(logger))

	handler := handlers.NewHandler(dashboard, journal, cfg.Viewer)
	handlers.SetupRoutes(r, handler)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	go func() {
		logger.Info("Mission control listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server", zap.Error(err))
	}

	// In-flight loads observe cancellation and are discarded.
	cancel()
	dashboard.Wait()

	if publisher != nil {
		publisher.Close()
	}
	if pool != nil {
		pool.Close()
	}

	logger.Info("Mission control stopped")
}
