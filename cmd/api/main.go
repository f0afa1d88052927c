package main

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/youcodecowboy/conka-sub004/internal/application"
	"github.com/youcodecowboy/conka-sub004/internal/config"
	"github.com/youcodecowboy/conka-sub004/internal/infrastructure/cache"
	"github.com/youcodecowboy/conka-sub004/internal/infrastructure/httpapi"
	"github.com/youcodecowboy/conka-sub004/internal/infrastructure/loop"
	"github.com/youcodecowboy/conka-sub004/internal/infrastructure/repository"
	"github.com/youcodecowboy/conka-sub004/internal/infrastructure/shopify"
	"github.com/youcodecowboy/conka-sub004/internal/ports"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	cfg := config.Load()
	if err := cfg.ValidateAuth(); err != nil {
		logger.Warn().Err(err).Msg("Customer account auth is not fully configured; login will fail")
	}
	if err := cfg.ValidateMirror(); err != nil {
		logger.Warn().Err(err).Msg("Loop API key missing; mirror writes will fail")
	}

	// Optional command audit store
	var auditLog ports.CommandAuditLog
	if cfg.MongoURI != "" {
		client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer client.Disconnect(context.Background())
		auditLog = repository.NewMongoCommandAuditRepository(client.Database(cfg.MongoDatabase))
		logger.Info().Msg("Command audit log enabled")
	}

	// Optional payment-method cache
	var pmCache *cache.Cache
	if cfg.RedisURL != "" {
		c, err := cache.New(cfg.RedisURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer c.Close()
		pmCache = c
		logger.Info().Msg("Payment-method cache enabled")
	}

	// External system adapters
	shopifyClient := shopify.NewCustomerClient(cfg.ShopID, cfg.ClientID, cfg.APIVersion, logger)
	loopClient := loop.NewClient(cfg.LoopAPIBase, cfg.LoopAPIKey, logger)

	// Application services
	authService := application.NewAuthService(cfg, shopifyClient, logger)
	subscriptionService := application.NewSubscriptionService(shopifyClient, loopClient, auditLog, pmCache, logger)

	handler := httpapi.NewHandler(cfg, authService, subscriptionService, logger)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(httpapi.SecurityHeadersMiddleware())
	r.Use(httpapi.MetricsMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AppURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check - must be public for monitoring
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// Auth and subscription routes
	handler.Routes(r)

	logger.Info().Str("port", cfg.Port).Msg("Starting API server")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
