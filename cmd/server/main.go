package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/app"
	"dispatch/internal/config"
	"dispatch/internal/handler"
	internalRedis "dispatch/internal/redis"
	"dispatch/internal/repository/postgres"
	"dispatch/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)
	sessionStore := internalRedis.NewSessionStore(redisClient, cfg.Session.TTL)

	// Initialize repositories.
	rideRepo := postgres.NewRideRepository(db)
	detailsRepo := postgres.NewRideDetailsRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	eventRepo := postgres.NewEventLogRepository(db)
	rejectionRepo := postgres.NewRejectionRepository(db)
	locationLogRepo := postgres.NewLocationLogRepository(db)
	pricingRepo := postgres.NewPricingRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	regionRepo := postgres.NewRegionRepository(db)

	// Initialize services.
	bookingService := service.NewBookingService(db, regionRepo, detailsRepo)
	rideService := service.NewRideService(rideRepo, detailsRepo, eventRepo)
	matchingService := service.NewMatchingService(detailsRepo, driverRepo)
	dispatchService := service.NewDispatchService(db, detailsRepo, driverRepo, rejectionRepo, lockStore)
	fareService := service.NewFareService(pricingRepo, regionRepo, cacheStore)
	walletService := service.NewWalletService(db, walletRepo)
	locationService := service.NewLocationService(driverRepo, locationLogRepo)

	// Initialize handlers.
	rideHandler := handler.NewRideHandler(bookingService, rideService)
	dispatchHandler := handler.NewDispatchHandler(dispatchService, matchingService)
	fareHandler := handler.NewFareHandler(fareService)
	walletHandler := handler.NewWalletHandler(walletService)
	driverHandler := handler.NewDriverHandler(locationService)
	sessionHandler := handler.NewSessionHandler(sessionStore)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RideHandler:     rideHandler,
		DispatchHandler: dispatchHandler,
		FareHandler:     fareHandler,
		WalletHandler:   walletHandler,
		DriverHandler:   driverHandler,
		SessionHandler:  sessionHandler,
		SessionStore:    sessionStore,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
