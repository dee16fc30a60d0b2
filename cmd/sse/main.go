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

	"github.com/civicworks/warddesk/backend/internal/adapters/database"
	"github.com/civicworks/warddesk/backend/internal/adapters/events"
	"github.com/civicworks/warddesk/backend/internal/api/handlers"
	"github.com/civicworks/warddesk/backend/internal/api/middleware"
	"github.com/civicworks/warddesk/backend/internal/application/services"
	"github.com/civicworks/warddesk/backend/internal/infrastructure/clients/postgres"
	"github.com/civicworks/warddesk/backend/internal/infrastructure/clients/redis"
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

	log.Println("Starting stream server...")

	// Initialize metrics (toast counts are recorded per snapshot)
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client (counters are recomputed from the store)
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client (required for the event bus)
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis client initialized successfully")

	// Initialize event bus for real-time updates
	eventBus := events.NewRedisEventBus(redisClient)
	log.Println("Event bus initialized successfully")

	// Token validation only needs the public key; a stream server never signs
	if cfg.Auth.PublicKeyPEM == "" || cfg.Auth.PrivateKeyPEM == "" {
		log.Fatalf("AUTH_PRIVATE_KEY_PEM and AUTH_PUBLIC_KEY_PEM must be set for the stream server")
	}
	tokens, err := jwt.NewManager(cfg.Auth.PrivateKeyPEM, cfg.Auth.PublicKeyPEM, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
	if err != nil {
		log.Fatalf("Failed to initialize token manager: %v", err)
	}

	// Initialize the counter service and stream handler
	requestAdapter := database.NewDeviceRequestAdapter(pgClient)
	incidentAdapter := database.NewIncidentAdapter(pgClient)

	counterService := services.NewCounterService(requestAdapter, incidentAdapter, eventBus, metrics)
	streamHandler := handlers.NewStreamHandler(counterService, eventBus)
	log.Println("Stream handler initialized successfully")

	auth := middleware.AuthMiddleware(tokens)

	// Set up router
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// SSE streaming endpoints
	mux.Handle("GET /api/stream/counters", auth(http.HandlerFunc(streamHandler.StreamCounters)))
	mux.Handle("GET /api/stream/updates", auth(http.HandlerFunc(streamHandler.StreamUpdates)))

	// SSE stats endpoint
	mux.HandleFunc("GET /api/stream/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"connected_clients": %d}`, streamHandler.GetClientCount())
	})

	// Apply middleware
	var handler http.Handler = mux
	handler = middleware.CORSMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,  // Longer timeout for SSE
		WriteTimeout: 0,                 // No timeout for SSE streaming
		IdleTimeout:  120 * time.Second, // Allow long-lived connections
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Stream server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Stream server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stream server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if err := eventBus.Close(); err != nil {
		log.Printf("Error closing event bus: %v", err)
	}

	log.Println("Stream server stopped")
}
