package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bloodlink/internal/config"
	"bloodlink/internal/handlers"
	"bloodlink/internal/middleware"
	"bloodlink/internal/repositories/mongodb"
	"bloodlink/internal/services"
	"bloodlink/pkg/cache"
	"bloodlink/pkg/database"
	"bloodlink/pkg/logger"
	"bloodlink/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Connect to MongoDB and apply migrations
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	migrator := database.NewMigrator(db.Database)
	if err := migrator.Up(); err != nil {
		appLogger.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to Redis
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Repositories
	donorRepo := mongodb.NewDonorRepository(db.Database)
	requesterRepo := mongodb.NewRequesterRepository(db.Database)
	requestRepo := mongodb.NewRequestRepository(db.Database)
	donationRepo := mongodb.NewDonationRepository(db.Database)

	// Services
	cacheService := services.NewCacheService(redisCache)
	matchingService := services.NewMatchingService(donorRepo, cacheService, cfg.Engine, appLogger)
	donationService := services.NewDonationService(donationRepo, donorRepo, requesterRepo, appLogger)
	requestService := services.NewRequestService(requestRepo, donorRepo, requesterRepo, donationService, cacheService, cfg.Engine, appLogger)
	expiryService := services.NewExpiryService(requestRepo, cfg.Engine, appLogger)

	expiryService.Start()
	defer expiryService.Stop()

	// Handlers
	donorHandler := handlers.NewDonorHandler(matchingService, cfg.Engine)
	requestHandler := handlers.NewRequestHandler(requestService, cfg.Engine)
	donationHandler := handlers.NewDonationHandler(donationService)
	healthHandler := handlers.NewHealthHandler(db, cacheService)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))

	v1 := router.Group("/api/v1")
	{
		routes.SetupDonorRoutes(v1, donorHandler, cfg.Security.JWTSecret)
		routes.SetupRequestRoutes(v1, requestHandler, cfg.Security.JWTSecret)
		routes.SetupDonationRoutes(v1, donationHandler, cfg.Security.JWTSecret)
	}

	router.GET("/health", healthHandler.Check)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithField("port", cfg.App.Port).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Errorf("Forced shutdown: %v", err)
	}
}
