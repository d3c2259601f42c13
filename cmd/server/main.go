package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dispatch-service/internal/adapters/cache"
	"dispatch-service/internal/adapters/distance"
	"dispatch-service/internal/adapters/events"
	"dispatch-service/internal/adapters/repositories"
	"dispatch-service/internal/api"
	"dispatch-service/internal/api/handlers"
	"dispatch-service/internal/config"
	"dispatch-service/internal/platform/db"
	"dispatch-service/internal/platform/logging"
	"dispatch-service/internal/ports"
	"dispatch-service/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// main is the application composition root. It wires concrete adapters
// (Postgres, Redis, Goong, Kafka) behind ports and starts the HTTP
// server.
func main() {
	if err := godotenv.Load(); err != nil {
		// No .env file is normal outside local development.
		_ = err
	}

	flush, err := logging.Init(config.Get("APP_ENV", "production"))
	if err != nil {
		os.Stderr.WriteString("logger init failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer flush()
	log := zap.L()

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer sqlDB.Close()

	orderRepo := repositories.NewPostgresOrderRepository(sqlDB)
	legRepo := repositories.NewPostgresLegRepository(sqlDB)
	shipperRepo := repositories.NewPostgresShipperRepository(sqlDB)
	warehouseRepo := repositories.NewPostgresWarehouseRepository(sqlDB)
	smeRepo := repositories.NewPostgresSMERepository(sqlDB)
	areaRepo := repositories.NewPostgresAreaRepository(sqlDB)

	// Routing and geocoding are optional: without a Goong key, planning
	// degrades to straight-line estimates and intake skips geocoding.
	var provider ports.DistanceProvider
	var geocoder ports.Geocoder
	if key := os.Getenv("GOONG_API_KEY"); strings.TrimSpace(key) != "" {
		var distanceCache *cache.RedisDistanceCache
		var geocodeCache *cache.RedisGeocodeCache
		if addr := config.Get("REDIS_ADDR", ""); addr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: addr})
			if err := rdb.Ping(ctx).Err(); err != nil {
				log.Fatal("redis connection failed", zap.String("addr", addr), zap.Error(err))
			}
			defer rdb.Close()
			distanceCache = cache.NewRedisDistanceCache(rdb, 24*time.Hour)
			geocodeCache = cache.NewRedisGeocodeCache(rdb, 7*24*time.Hour)
		} else {
			log.Warn("REDIS_ADDR not set, routing responses will not be cached")
		}

		goong, err := distance.NewGoongClient(key, distanceCache, geocodeCache)
		if err != nil {
			log.Fatal("goong client init failed", zap.Error(err))
		}
		provider = goong
		geocoder = goong
	} else {
		log.Warn("GOONG_API_KEY not set, using straight-line distance estimates")
	}

	var publisher ports.EventPublisher
	if broker := config.Get("KAFKA_BROKER", ""); broker != "" {
		kp, err := events.NewKafkaPublisher(broker, config.Get("KAFKA_TOPIC", "dispatch.events"))
		if err != nil {
			log.Fatal("kafka publisher init failed", zap.Error(err))
		}
		defer kp.Close()
		publisher = kp
	} else {
		log.Warn("KAFKA_BROKER not set, domain events will not be published")
	}

	engine := &services.AssignmentEngine{
		Orders:        orderRepo,
		Legs:          legRepo,
		Shippers:      shipperRepo,
		Warehouses:    warehouseRepo,
		SMEs:          smeRepo,
		Distance:      provider,
		Publisher:     publisher,
		MaxActiveLegs: config.GetInt("MAX_ACTIVE_LEGS", 0),
	}

	handler := &handlers.Handler{
		Intake: &services.IntakeService{
			Orders: orderRepo, SMEs: smeRepo, Areas: areaRepo, Geocoder: geocoder,
		},
		Planner: &services.JourneyPlanner{
			Orders: orderRepo, Legs: legRepo, Warehouses: warehouseRepo,
			SMEs: smeRepo, Geocoder: geocoder, Distance: provider,
		},
		Engine: engine,
		Optimizer: &services.BatchOptimizer{
			Engine: engine, Legs: legRepo, Areas: areaRepo,
			Shippers: shipperRepo, Warehouses: warehouseRepo,
		},
		Syncer:   &services.UsageSyncer{Legs: legRepo, Warehouses: warehouseRepo},
		Tracking: &services.TrackingService{
			Orders: orderRepo, Legs: legRepo, Warehouses: warehouseRepo, Shippers: shipperRepo,
		},
	}

	port := config.Get("PORT", "8080")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown incomplete", zap.Error(err))
	}
}
