package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aarogya/billing-backend/internal/adapters/cache"
	"github.com/aarogya/billing-backend/internal/adapters/database"
	"github.com/aarogya/billing-backend/internal/adapters/events"
	"github.com/aarogya/billing-backend/internal/adapters/search"
	"github.com/aarogya/billing-backend/internal/api/handlers"
	"github.com/aarogya/billing-backend/internal/api/middleware"
	"github.com/aarogya/billing-backend/internal/api/routes"
	"github.com/aarogya/billing-backend/internal/application/loaders"
	"github.com/aarogya/billing-backend/internal/application/services"
	"github.com/aarogya/billing-backend/internal/domain/providers"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
	"github.com/aarogya/billing-backend/internal/infrastructure/clients/postgres"
	"github.com/aarogya/billing-backend/internal/infrastructure/clients/redis"
	"github.com/aarogya/billing-backend/internal/infrastructure/clients/typesense"
	"github.com/aarogya/billing-backend/internal/infrastructure/observability"
	"github.com/aarogya/billing-backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OpenTelemetry is optional; the server runs fine without an endpoint
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Warn().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized")

	// Redis is optional; without it the server runs uncached and without
	// the event bus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Redis client, running without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized")
	}

	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Typesense client, catalog search falls back to the database")
		typesenseClient = nil
	} else {
		log.Info().Msg("Typesense client initialized")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("event bus initialized")
	}

	// Adapters
	billAdapter := database.NewBillAdapter(pgClient)
	receiptAdapter := database.NewReceiptAdapter(pgClient)
	patientAdapter := database.NewPatientAdapter(pgClient)

	productAdapter := database.NewProductAdapter(pgClient)
	if cacheProvider != nil {
		productAdapter = database.NewCachedProductAdapter(productAdapter, cacheProvider)
		log.Info().Msg("product adapter wrapped with caching layer")
	}

	var searchRepo repositories.ProductSearchRepository
	if typesenseClient != nil {
		adapter := search.NewTypesenseAdapter(typesenseClient)
		if err := adapter.InitSchema(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to init Typesense schema")
		}
		searchRepo = adapter
	}

	// Services
	billingService := services.NewBillingService(billAdapter, receiptAdapter, patientAdapter, productAdapter, eventBus)
	receiptService := services.NewReceiptService(receiptAdapter, cfg.Hospital)
	catalogService := services.NewCatalogService(productAdapter, searchRepo)

	batchLoaders := loaders.NewLoaders(patientAdapter, productAdapter)
	reportService := services.NewReportService(billAdapter, batchLoaders, cacheProvider, metrics)

	if cacheProvider != nil && eventBus != nil {
		invalidationService := services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := invalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
		} else {
			defer invalidationService.Stop()
			log.Info().Msg("cache invalidation service started")
		}
	}

	// Handlers
	billHandler := handlers.NewBillHandler(billingService)
	receiptHandler := handlers.NewReceiptHandler(receiptService)
	patientHandler := handlers.NewPatientHandler(patientAdapter)
	productHandler := handlers.NewProductHandler(catalogService)
	reportHandler := handlers.NewReportHandler(reportService)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
	}

	router := routes.NewRouter(
		billHandler,
		receiptHandler,
		patientHandler,
		productHandler,
		reportHandler,
		cacheMiddleware,
		metrics,
	)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("error during server shutdown")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing event bus")
		}
	}
}
