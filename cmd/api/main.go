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

	"github.com/civicworks/warddesk/backend/internal/adapters/cache"
	"github.com/civicworks/warddesk/backend/internal/adapters/database"
	"github.com/civicworks/warddesk/backend/internal/adapters/events"
	"github.com/civicworks/warddesk/backend/internal/adapters/storage"
	"github.com/civicworks/warddesk/backend/internal/api/handlers"
	"github.com/civicworks/warddesk/backend/internal/api/middleware"
	"github.com/civicworks/warddesk/backend/internal/api/routes"
	"github.com/civicworks/warddesk/backend/internal/application/services"
	"github.com/civicworks/warddesk/backend/internal/domain/providers"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	"github.com/civicworks/warddesk/backend/internal/infrastructure/clients/postgres"
	"github.com/civicworks/warddesk/backend/internal/infrastructure/clients/redis"
	s3client "github.com/civicworks/warddesk/backend/internal/infrastructure/clients/s3"
	"github.com/civicworks/warddesk/backend/internal/infrastructure/observability"
	"github.com/civicworks/warddesk/backend/pkg/config"
	"github.com/civicworks/warddesk/backend/pkg/jwt"
)

func main() {

	// Load configuration

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize blob storage for incident photos and avatars
	var blobStore providers.BlobStore
	s3Client, err := s3client.NewClient(ctx, &cfg.Storage)
	if err != nil {
		log.Printf("Warning: Failed to initialize S3 client: %v", err)
	} else {
		blobStore = storage.NewS3Store(s3Client)
		log.Println("Blob storage initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for real-time updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Initialize token manager. Without configured keys an ephemeral pair is
	// generated: fine for development, sessions die with the process.
	privateKey, publicKey := cfg.Auth.PrivateKeyPEM, cfg.Auth.PublicKeyPEM
	if privateKey == "" || publicKey == "" {
		log.Println("Warning: AUTH_PRIVATE_KEY_PEM not set; generating an ephemeral signing key")
		privateKey, publicKey, err = jwt.GenerateKeyPair()
		if err != nil {
			log.Fatalf("Failed to generate signing key pair: %v", err)
		}
	}
	tokens, err := jwt.NewManager(privateKey, publicKey, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
	if err != nil {
		log.Fatalf("Failed to initialize token manager: %v", err)
	}

	// Initialize adapters

	// Create base ward adapter
	baseWardAdapter := database.NewWardAdapter(pgClient)

	// Wrap with caching if Redis is available (for read performance optimization)
	var wardAdapter repositories.WardRepository
	if cacheProvider != nil {
		wardAdapter = database.NewCachedWardAdapter(baseWardAdapter, cacheProvider)
		log.Println("Ward adapter wrapped with caching layer")
	} else {
		wardAdapter = baseWardAdapter
		log.Println("Ward adapter running without cache (Redis unavailable)")
	}

	wardRoomAdapter := database.NewWardRoomAdapter(pgClient)
	wardUserAdapter := database.NewWardUserAdapter(pgClient)

	deviceAdapter := database.NewDeviceAdapter(pgClient)
	requestAdapter := database.NewDeviceRequestAdapter(pgClient)
	incidentAdapter := database.NewIncidentAdapter(pgClient)

	userAdapter := database.NewUserAdapter(pgClient)
	userProfileAdapter := database.NewUserProfileAdapter(pgClient)
	userSettingsAdapter := database.NewUserSettingsAdapter(pgClient)
	systemSettingsAdapter := database.NewSystemSettingsAdapter(pgClient)

	// Initialize services

	authService := services.NewAuthService(userAdapter, userProfileAdapter, tokens)

	deviceService := services.NewDeviceService(deviceAdapter, wardAdapter, blobStore, eventBus)
	wardService := services.NewWardService(wardAdapter, wardRoomAdapter, wardUserAdapter, deviceAdapter)

	requestService := services.NewRequestService(requestAdapter, wardAdapter, eventBus)
	incidentService := services.NewIncidentService(incidentAdapter, deviceAdapter, blobStore, eventBus)

	userService := services.NewUserService(userProfileAdapter, userSettingsAdapter, systemSettingsAdapter, blobStore)

	// Start cache warming so ward name lookups hit the cache from the start
	if cacheProvider != nil {
		warmingService := services.NewCacheWarmingService(wardAdapter, cacheProvider)
		warmingService.StartPeriodicWarming(ctx, 5*time.Minute)
	}

	// Initialize handlers

	authHandler := handlers.NewAuthHandler(authService)

	deviceHandler := handlers.NewDeviceHandler(deviceService)

	wardHandler := handlers.NewWardHandler(wardService)

	requestHandler := handlers.NewRequestHandler(requestService)

	incidentHandler := handlers.NewIncidentHandler(incidentService)

	userHandler := handlers.NewUserHandler(userService)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router. SSE streams are served by the dedicated stream server
	// (cmd/sse) whose write timeouts allow long-lived connections.

	router := routes.NewRouter(
		authHandler,
		deviceHandler,
		wardHandler,
		requestHandler,
		incidentHandler,
		userHandler,
		nil,
		cacheMiddleware,
		tokens,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
